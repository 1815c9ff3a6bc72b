package models

// Referral links a referred account to the account that invited it.
// ReferredID is unique, which caps referral credit at once per referred account.
type Referral struct {
	Base
	ReferrerID   string `gorm:"type:varchar(64);not null;index" json:"referrerId"`
	ReferredID   string `gorm:"type:varchar(64);not null;uniqueIndex" json:"referredId"`
	RewardAmount int64  `gorm:"not null" json:"rewardAmount"`
}
