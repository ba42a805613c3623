package sql

import (
	"context"
	"coverly/internal/entity"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// errBalanceMoved signals that another transaction changed the balance
// between our read and our guarded write; the caller retries.
var errBalanceMoved = errors.New("balance changed concurrently")

// AdjustUserCredits applies a signed delta to the user's balance and records
// the matching ledger entry in one transaction. A negative delta that would
// overdraw the balance fails with entity.ErrInsufficientCredits and leaves
// both tables untouched.
func (r *GormRepository) AdjustUserCredits(ctx context.Context, userID uint, delta int64, reason, note string) (int64, error) {
	if r == nil || r.db == nil {
		return 0, fmt.Errorf("repository not initialised")
	}
	if userID == 0 {
		return 0, fmt.Errorf("invalid user id")
	}

	var balance int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := applyCreditDelta(tx, userID, delta); err != nil {
			return err
		}

		entry := entity.DbCreditEntry{
			UserID: userID,
			Delta:  delta,
			Reason: reason,
			Note:   note,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		var user entity.DbUser
		if err := tx.Select("credits").First(&user, userID).Error; err != nil {
			return err
		}
		balance = user.Credits
		return nil
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}

// SetUserCredits sets the balance to an absolute value and records the
// implied delta in the ledger.
func (r *GormRepository) SetUserCredits(ctx context.Context, userID uint, credits int64, note string) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if userID == 0 {
		return fmt.Errorf("invalid user id")
	}
	if credits < 0 {
		credits = 0
	}

	const maxAttempts = 3
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var user entity.DbUser
			if err := tx.Select("id", "credits").First(&user, userID).Error; err != nil {
				return err
			}

			if credits == user.Credits {
				return nil
			}

			// Guard the write on the balance we read so the ledger delta
			// always matches the actual movement, even when a debit lands
			// between the read and the update. SELECT FOR UPDATE is not an
			// option because sqlite does not parse it.
			result := tx.Model(&entity.DbUser{}).
				Where("id = ? AND credits = ?", userID, user.Credits).
				Update("credits", credits)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return errBalanceMoved
			}

			entry := entity.DbCreditEntry{
				UserID: userID,
				Delta:  credits - user.Credits,
				Reason: entity.CreditReasonAdmin,
				Note:   note,
			}
			return tx.Create(&entry).Error
		})
		if !errors.Is(err, errBalanceMoved) {
			return err
		}
	}
	return err
}

// ListCreditEntries returns the paginated ledger for one user, newest first.
func (r *GormRepository) ListCreditEntries(ctx context.Context, userID uint, params *entity.BaseParams) ([]entity.DbCreditEntry, *entity.Meta, error) {
	if r == nil || r.db == nil {
		return nil, nil, fmt.Errorf("repository not initialised")
	}
	if userID == 0 {
		return nil, nil, fmt.Errorf("invalid user id")
	}

	query := r.db.WithContext(ctx).Model(&entity.DbCreditEntry{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, nil, err
	}

	page, pageSize, offset := normalisePage(params)

	var entries []entity.DbCreditEntry
	if err := query.Order("id DESC").Offset(offset).Limit(pageSize).Find(&entries).Error; err != nil {
		return nil, nil, err
	}

	meta := r.calculatePagination(total, page, pageSize)
	return entries, meta, nil
}

// applyCreditDelta mutates the balance inside an open transaction. Debits are
// conditional on sufficient funds so concurrent spends cannot overdraw.
func applyCreditDelta(tx *gorm.DB, userID uint, delta int64) error {
	if delta == 0 {
		return nil
	}

	query := tx.Model(&entity.DbUser{}).Where("id = ?", userID)
	if delta < 0 {
		query = query.Where("credits >= ?", -delta)
	}

	result := query.UpdateColumn("credits", gorm.Expr("credits + ?", delta))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		if delta < 0 {
			return entity.ErrInsufficientCredits
		}
		return gorm.ErrRecordNotFound
	}
	return nil
}
