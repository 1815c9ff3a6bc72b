package models

// EntryKind identifies why a balance changed
type EntryKind string

const (
	EntrySignupBonus    EntryKind = "signup_bonus"
	EntryAdReward       EntryKind = "ad_reward"
	EntryDailyBonus     EntryKind = "daily_bonus"
	EntryStreakBonus    EntryKind = "streak_bonus"
	EntrySpinReward     EntryKind = "spin_reward"
	EntrySpinPurchase   EntryKind = "spin_purchase"
	EntryQuizReward     EntryKind = "quiz_reward"
	EntryReferralReward EntryKind = "referral_reward"
	EntryExternalCredit EntryKind = "external_credit"
	EntryWithdrawal     EntryKind = "withdrawal"
)

// LedgerEntry records a single signed balance movement
type LedgerEntry struct {
	Base
	AccountID     string    `gorm:"type:varchar(64);not null;index" json:"accountId"`
	Kind          EntryKind `gorm:"type:varchar(32);not null" json:"kind"`
	Amount        int64     `gorm:"not null" json:"amount"`
	BalanceBefore int64     `gorm:"not null" json:"balanceBefore"`
	BalanceAfter  int64     `gorm:"not null" json:"balanceAfter"`
	Source        string    `gorm:"type:varchar(100)" json:"source,omitempty"`
}
