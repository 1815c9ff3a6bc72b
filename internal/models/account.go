package models

import "time"

// Tier is the progression band derived from lifetime earnings
type Tier string

const (
	TierBronze   Tier = "Bronze"
	TierSilver   Tier = "Silver"
	TierGold     Tier = "Gold"
	TierPlatinum Tier = "Platinum"
)

// Rank orders tiers from lowest to highest. Unknown tiers rank as Bronze.
func (t Tier) Rank() int {
	switch t {
	case TierSilver:
		return 1
	case TierGold:
		return 2
	case TierPlatinum:
		return 3
	default:
		return 0
	}
}

// Account is the full per-user ledger record
type Account struct {
	ID            string `gorm:"type:varchar(64);primaryKey" json:"accountId"`
	Balance       int64  `gorm:"not null;default:0" json:"balance"`
	TotalEarnings int64  `gorm:"not null;default:0;index" json:"totalEarnings"`

	AdsWatchedToday int    `gorm:"not null;default:0" json:"adsWatchedToday"`
	LastAdDate      string `gorm:"type:varchar(10)" json:"lastAdDate"`

	DailySpinsUsed      int    `gorm:"not null;default:0" json:"dailySpinsUsed"`
	ExtraSpinsPurchased int    `gorm:"not null;default:0" json:"extraSpinsPurchased"`
	LastSpinDate        string `gorm:"type:varchar(10)" json:"lastSpinDate"`

	LastBonusDate string `gorm:"type:varchar(10)" json:"lastBonusDate"`
	StreakDays    int    `gorm:"not null;default:0" json:"streakDays"`

	ReferralCount int     `gorm:"not null;default:0" json:"referralCount"`
	ReferrerID    *string `gorm:"type:varchar(64);index" json:"referrerId,omitempty"`

	WithdrawalCount    int     `gorm:"not null;default:0" json:"withdrawalCount"`
	HasWithdrawnBefore bool    `gorm:"not null;default:false" json:"hasWithdrawnBefore"`
	PayoutDestination  *string `gorm:"type:varchar(255)" json:"payoutDestination,omitempty"`

	Tier         Tier      `gorm:"type:varchar(16);not null;default:'Bronze'" json:"tier"`
	Achievements StringSet `gorm:"type:jsonb;not null;default:'[]'" json:"achievements"`

	TotalAdsWatched  int `gorm:"not null;default:0" json:"totalAdsWatched"`
	TotalSpins       int `gorm:"not null;default:0" json:"totalSpins"`
	QuizzesCompleted int `gorm:"not null;default:0" json:"quizzesCompleted"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewAccount returns a zero-balance Bronze account
func NewAccount(id string) *Account {
	return &Account{
		ID:           id,
		Tier:         TierBronze,
		Achievements: StringSet{},
	}
}

// Clone returns a deep copy that shares no pointers or slices with a
func (a *Account) Clone() *Account {
	c := *a
	if a.ReferrerID != nil {
		v := *a.ReferrerID
		c.ReferrerID = &v
	}
	if a.PayoutDestination != nil {
		v := *a.PayoutDestination
		c.PayoutDestination = &v
	}
	c.Achievements = append(StringSet{}, a.Achievements...)
	return &c
}
