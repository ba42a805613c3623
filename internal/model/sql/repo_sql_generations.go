package sql

import (
	"context"
	"coverly/internal/entity"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// CreateGenerationWithDebit inserts the generation row, debits the owner by
// gen.CreditsUsed, and appends the ledger entry, all in one transaction. This
// is the only write path for generations, so credits_used can never drift
// from the balance movement.
func (r *GormRepository) CreateGenerationWithDebit(ctx context.Context, gen *entity.DbGeneration) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if gen == nil {
		return fmt.Errorf("generation is nil")
	}
	if gen.UserID == 0 {
		return fmt.Errorf("generation has no owner")
	}
	if gen.CreditsUsed < 0 {
		return fmt.Errorf("negative credit cost")
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := applyCreditDelta(tx, gen.UserID, -gen.CreditsUsed); err != nil {
			return err
		}

		if err := tx.Create(gen).Error; err != nil {
			return err
		}

		entry := entity.DbCreditEntry{
			UserID:       gen.UserID,
			Delta:        -gen.CreditsUsed,
			Reason:       entity.CreditReasonGeneration,
			GenerationID: &gen.ID,
		}
		return tx.Create(&entry).Error
	})
}

// GetGeneration loads a generation by ID.
func (r *GormRepository) GetGeneration(ctx context.Context, id uint) (*entity.DbGeneration, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return nil, fmt.Errorf("invalid generation id")
	}
	var gen entity.DbGeneration
	if err := r.db.WithContext(ctx).Preload("User").First(&gen, id).Error; err != nil {
		return nil, err
	}
	return &gen, nil
}

// ListGenerations returns paginated generations, newest first. IncludeAll
// skips the owner filter for admin listings.
func (r *GormRepository) ListGenerations(ctx context.Context, params *entity.GenerationQuery) ([]entity.DbGeneration, *entity.Meta, error) {
	if r == nil || r.db == nil {
		return nil, nil, fmt.Errorf("repository not initialised")
	}

	query := r.db.WithContext(ctx).Model(&entity.DbGeneration{})
	if params != nil {
		if !params.IncludeAll && params.UserID > 0 {
			query = query.Where("user_id = ?", params.UserID)
		}
		if imageType := strings.TrimSpace(params.ImageType); imageType != "" {
			query = query.Where("image_type = ?", imageType)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, nil, err
	}

	var base *entity.BaseParams
	if params != nil {
		base = &params.BaseParams
	}
	page, pageSize, offset := normalisePage(base)

	var generations []entity.DbGeneration
	if err := query.Preload("User").Order("id DESC").Offset(offset).Limit(pageSize).Find(&generations).Error; err != nil {
		return nil, nil, err
	}

	meta := r.calculatePagination(total, page, pageSize)
	return generations, meta, nil
}

// DeleteGeneration removes a generation by ID. Spent credits are not
// refunded.
func (r *GormRepository) DeleteGeneration(ctx context.Context, id uint) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return fmt.Errorf("invalid generation id")
	}
	result := r.db.WithContext(ctx).Delete(&entity.DbGeneration{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
