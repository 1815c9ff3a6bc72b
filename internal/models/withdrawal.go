package models

// WithdrawalStatus tracks hand-off to the payout collaborator
type WithdrawalStatus string

const (
	WithdrawalRequested WithdrawalStatus = "requested"
)

// Withdrawal represents an authorized withdrawal request
type Withdrawal struct {
	Base
	AccountID   string           `gorm:"type:varchar(64);not null;index" json:"accountId"`
	Amount      int64            `gorm:"not null" json:"amount"`
	Destination string           `gorm:"type:varchar(255);not null" json:"destination"`
	Status      WithdrawalStatus `gorm:"type:varchar(20);not null" json:"status"`
}
