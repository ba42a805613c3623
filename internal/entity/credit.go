package entity

import "time"

const (
	CreditReasonGeneration = "generation"
	CreditReasonPurchase   = "purchase"
	CreditReasonSignup     = "signup"
	CreditReasonAdmin      = "admin_adjustment"
)

// DbCreditEntry is the audit trail for every credit movement. Delta is
// negative for debits and positive for top-ups.
type DbCreditEntry struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	UserID       uint   `gorm:"column:user_id;index;not null" json:"user_id"`
	Delta        int64  `gorm:"column:delta;not null" json:"delta"`
	Reason       string `gorm:"column:reason;type:varchar(32);index;not null" json:"reason"`
	GenerationID *uint  `gorm:"column:generation_id" json:"generation_id,omitempty"`
	Note         string `gorm:"column:note;type:varchar(512)" json:"note,omitempty"`
}

// TableName overrides default pluralised name.
func (DbCreditEntry) TableName() string {
	return "credit_entries"
}

type CreditStatusResponse struct {
	Credits int64           `json:"credits"`
	Entries []DbCreditEntry `json:"entries"`
	Meta    *Meta           `json:"meta"`
}
