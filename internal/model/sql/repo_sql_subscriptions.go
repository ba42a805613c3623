package sql

import (
	"context"
	"coverly/internal/entity"
	"fmt"
)

// CreateSubscriptionRequest stores a subscription interest row.
func (r *GormRepository) CreateSubscriptionRequest(ctx context.Context, req *entity.DbSubscriptionRequest) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if req == nil {
		return fmt.Errorf("subscription request is nil")
	}
	return r.db.WithContext(ctx).Create(req).Error
}
