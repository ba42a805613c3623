package sql

import (
	"context"
	"errors"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"coverly/internal/entity"
)

func newTestRepo(t *testing.T) *GormRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&entity.DbUser{},
		&entity.DbGeneration{},
		&entity.DbCreditEntry{},
		&entity.DbSubscriptionRequest{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewGormRepository(db)
}

func seedUser(t *testing.T, repo *GormRepository, credits int64) *entity.DbUser {
	t.Helper()
	user := &entity.DbUser{
		Email:        t.Name() + "@example.com",
		PasswordHash: "x",
		Role:         entity.UserRoleUser,
		IsActive:     true,
		Credits:      credits,
	}
	if err := repo.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func TestCreateGenerationWithDebit(t *testing.T) {
	repo := newTestRepo(t)
	user := seedUser(t, repo, 20)

	gen := &entity.DbGeneration{
		UserID:      user.ID,
		ImageType:   "Featured Image",
		Title:       "Hello",
		Content:     "Body",
		CreditsUsed: 5,
		ImagePath:   "generations/2026/03/14/a.png",
	}
	if err := repo.CreateGenerationWithDebit(context.Background(), gen); err != nil {
		t.Fatalf("CreateGenerationWithDebit failed: %v", err)
	}
	if gen.ID == 0 {
		t.Fatal("generation ID not assigned")
	}

	reloaded, err := repo.GetUserByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if reloaded.Credits != 15 {
		t.Fatalf("balance = %d, want 15", reloaded.Credits)
	}

	var genCount int64
	if err := repo.db.Model(&entity.DbGeneration{}).Count(&genCount).Error; err != nil {
		t.Fatalf("count generations: %v", err)
	}
	if genCount != 1 {
		t.Fatalf("generation rows = %d, want 1", genCount)
	}

	var entries []entity.DbCreditEntry
	if err := repo.db.Where("user_id = ?", user.ID).Find(&entries).Error; err != nil {
		t.Fatalf("load ledger: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("ledger rows = %d, want 1", len(entries))
	}
	entry := entries[0]
	if entry.Delta != -5 {
		t.Fatalf("ledger delta = %d, want -5", entry.Delta)
	}
	if entry.Reason != entity.CreditReasonGeneration {
		t.Fatalf("ledger reason = %q, want %q", entry.Reason, entity.CreditReasonGeneration)
	}
	if entry.GenerationID == nil || *entry.GenerationID != gen.ID {
		t.Fatalf("ledger generation_id = %v, want %d", entry.GenerationID, gen.ID)
	}
}

func TestCreateGenerationWithDebitOverdraw(t *testing.T) {
	repo := newTestRepo(t)
	user := seedUser(t, repo, 3)

	gen := &entity.DbGeneration{
		UserID:      user.ID,
		ImageType:   "Featured Image",
		Title:       "Hello",
		Content:     "Body",
		CreditsUsed: 5,
	}
	err := repo.CreateGenerationWithDebit(context.Background(), gen)
	if !errors.Is(err, entity.ErrInsufficientCredits) {
		t.Fatalf("expected ErrInsufficientCredits, got %v", err)
	}

	reloaded, err := repo.GetUserByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if reloaded.Credits != 3 {
		t.Fatalf("balance = %d, want untouched 3", reloaded.Credits)
	}

	var genCount, ledgerCount int64
	if err := repo.db.Model(&entity.DbGeneration{}).Count(&genCount).Error; err != nil {
		t.Fatalf("count generations: %v", err)
	}
	if err := repo.db.Model(&entity.DbCreditEntry{}).Count(&ledgerCount).Error; err != nil {
		t.Fatalf("count ledger: %v", err)
	}
	if genCount != 0 || ledgerCount != 0 {
		t.Fatalf("rows after rollback = %d generations, %d ledger entries, want 0/0", genCount, ledgerCount)
	}
}

func TestSetUserCreditsRecordsLedgerDelta(t *testing.T) {
	repo := newTestRepo(t)
	user := seedUser(t, repo, 10)

	if err := repo.SetUserCredits(context.Background(), user.ID, 25, "manual top-up"); err != nil {
		t.Fatalf("SetUserCredits failed: %v", err)
	}

	reloaded, err := repo.GetUserByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if reloaded.Credits != 25 {
		t.Fatalf("balance = %d, want 25", reloaded.Credits)
	}

	var entries []entity.DbCreditEntry
	if err := repo.db.Where("user_id = ?", user.ID).Find(&entries).Error; err != nil {
		t.Fatalf("load ledger: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("ledger rows = %d, want 1", len(entries))
	}
	if entries[0].Delta != 15 {
		t.Fatalf("ledger delta = %d, want the actual movement 15", entries[0].Delta)
	}
	if entries[0].Reason != entity.CreditReasonAdmin {
		t.Fatalf("ledger reason = %q, want %q", entries[0].Reason, entity.CreditReasonAdmin)
	}

	// Setting the balance to its current value is a no-op and must not
	// append a zero-delta entry.
	if err := repo.SetUserCredits(context.Background(), user.ID, 25, "noop"); err != nil {
		t.Fatalf("no-op SetUserCredits failed: %v", err)
	}
	var ledgerCount int64
	if err := repo.db.Model(&entity.DbCreditEntry{}).Where("user_id = ?", user.ID).Count(&ledgerCount).Error; err != nil {
		t.Fatalf("count ledger: %v", err)
	}
	if ledgerCount != 1 {
		t.Fatalf("ledger rows after no-op = %d, want 1", ledgerCount)
	}
}

func TestAdjustUserCreditsOverdraw(t *testing.T) {
	repo := newTestRepo(t)
	user := seedUser(t, repo, 4)

	_, err := repo.AdjustUserCredits(context.Background(), user.ID, -5, entity.CreditReasonGeneration, "")
	if !errors.Is(err, entity.ErrInsufficientCredits) {
		t.Fatalf("expected ErrInsufficientCredits, got %v", err)
	}

	reloaded, err := repo.GetUserByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if reloaded.Credits != 4 {
		t.Fatalf("balance = %d, want untouched 4", reloaded.Credits)
	}
}
