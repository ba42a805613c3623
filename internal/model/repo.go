package model

import (
	"context"
	"coverly/internal/entity"
)

// Repository defines the persistence operations used by the application.
type Repository interface {
	// Users
	CreateUser(ctx context.Context, user *entity.DbUser) error
	UpdateUser(ctx context.Context, id uint, updates entity.UserUpdates) error
	GetUserByEmail(ctx context.Context, email string) (*entity.DbUser, error)
	GetUserByID(ctx context.Context, id uint) (*entity.DbUser, error)
	ListUsers(ctx context.Context, params *entity.UserQuery) ([]entity.DbUser, *entity.Meta, error)
	DeleteUser(ctx context.Context, id uint) error
	CountUsers(ctx context.Context) (int64, error)

	// Credits. AdjustUserCredits applies a signed delta atomically and writes
	// the matching ledger entry; a negative delta that would overdraw the
	// balance fails with entity.ErrInsufficientCredits. SetUserCredits is the
	// admin absolute set.
	AdjustUserCredits(ctx context.Context, userID uint, delta int64, reason, note string) (int64, error)
	SetUserCredits(ctx context.Context, userID uint, credits int64, note string) error
	ListCreditEntries(ctx context.Context, userID uint, params *entity.BaseParams) ([]entity.DbCreditEntry, *entity.Meta, error)

	// Generations. CreateGenerationWithDebit debits the owner and inserts the
	// generation row plus its ledger entry in one transaction.
	CreateGenerationWithDebit(ctx context.Context, gen *entity.DbGeneration) error
	GetGeneration(ctx context.Context, id uint) (*entity.DbGeneration, error)
	ListGenerations(ctx context.Context, params *entity.GenerationQuery) ([]entity.DbGeneration, *entity.Meta, error)
	DeleteGeneration(ctx context.Context, id uint) error

	// Subscription intake
	CreateSubscriptionRequest(ctx context.Context, req *entity.DbSubscriptionRequest) error
}
