// Package notify carries one-time user notifications from the ledger to the
// transport collaborator. Publishing happens after the ledger transaction
// commits; delivery happens on a worker.
package notify

import (
	"fmt"
	"time"

	"github.com/clawearning/backend/internal/models"
	"github.com/clawearning/backend/internal/services/progression"
)

// Kind identifies a notification type
type Kind string

const (
	KindAchievementUnlocked Kind = "achievement_unlocked"
	KindTierUp              Kind = "tier_up"
	KindDailyReset          Kind = "daily_reset"
	KindWithdrawalProcessed Kind = "withdrawal_processed"
	KindReferralJoined      Kind = "referral_joined"
)

// Notification is the payload delivered to the transport collaborator
type Notification struct {
	ID        string                 `json:"id"`
	Kind      Kind                   `json:"kind"`
	AccountID string                 `json:"accountId"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
}

// AchievementUnlocked announces a newly unlocked achievement
func AchievementUnlocked(accountID string, rule progression.Rule) Notification {
	return Notification{
		Kind:      KindAchievementUnlocked,
		AccountID: accountID,
		Message:   fmt.Sprintf("Achievement unlocked: %s!", rule.Name),
		Data: map[string]interface{}{
			"achievementId": rule.ID(),
			"name":          rule.Name,
		},
	}
}

// TierUp announces a promotion
func TierUp(accountID string, from, to models.Tier) Notification {
	return Notification{
		Kind:      KindTierUp,
		AccountID: accountID,
		Message:   fmt.Sprintf("Congratulations! You reached %s tier.", to),
		Data: map[string]interface{}{
			"from": string(from),
			"to":   string(to),
		},
	}
}

// DailyReset tells the user their daily ads and spins are available again
func DailyReset(accountID, day string) Notification {
	return Notification{
		Kind:      KindDailyReset,
		AccountID: accountID,
		Message:   "A new day has started. Your daily ads and free spins are ready.",
		Data:      map[string]interface{}{"day": day},
	}
}

// WithdrawalProcessed confirms an authorized withdrawal
func WithdrawalProcessed(accountID string, amount, balance int64, destination string) Notification {
	return Notification{
		Kind:      KindWithdrawalProcessed,
		AccountID: accountID,
		Message:   fmt.Sprintf("Your withdrawal of %d has been requested to %s.", amount, destination),
		Data: map[string]interface{}{
			"amount":      amount,
			"balance":     balance,
			"destination": destination,
		},
	}
}

// ReferralJoined tells a referrer that someone joined through their link
func ReferralJoined(referrerID, referredID string, bonus int64) Notification {
	return Notification{
		Kind:      KindReferralJoined,
		AccountID: referrerID,
		Message:   fmt.Sprintf("A friend joined with your link. You earned %d!", bonus),
		Data: map[string]interface{}{
			"referredId": referredID,
			"bonus":      bonus,
		},
	}
}

// Progress builds the notifications for an evaluation outcome
func Progress(accountID string, unlocked []progression.Rule, previous, current models.Tier) []Notification {
	notes := make([]Notification, 0, len(unlocked)+1)
	if previous != current && previous != "" {
		notes = append(notes, TierUp(accountID, previous, current))
	}
	for _, rule := range unlocked {
		notes = append(notes, AchievementUnlocked(accountID, rule))
	}
	return notes
}
