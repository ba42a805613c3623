package entity

import "time"

// DbSubscriptionRequest records an interest-form submission. A confirmation
// email is sent out of band; the row is kept either way.
type DbSubscriptionRequest struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Email string `gorm:"column:email;type:varchar(255);index;not null" json:"email"`
	Plan  string `gorm:"column:plan;type:varchar(64)" json:"plan"`
}

// TableName overrides default pluralised name.
func (DbSubscriptionRequest) TableName() string {
	return "subscription_requests"
}

type SubscribeRequest struct {
	Email string `json:"email" binding:"required,email"`
	Plan  string `json:"plan"`
}
