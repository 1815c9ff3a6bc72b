package rewards

import (
	"context"
	"strings"

	"github.com/clawearning/backend/internal/apperrors"
	"github.com/clawearning/backend/internal/models"
	"github.com/clawearning/backend/internal/services/ledger"
)

// WatchAd counts one ad view and credits the ad reward on every
// AdsPerReward-th view of the day.
func (e *Engine) WatchAd(ctx context.Context, accountID string) (*Outcome, error) {
	return e.Apply(ctx, accountID, e.watchAd)
}

func (e *Engine) watchAd(c *ledger.Change, today string, out *Outcome) error {
	a := c.Account
	if a.AdsWatchedToday >= e.economy.MaxDailyAds {
		return apperrors.ErrLimitReached
	}

	a.AdsWatchedToday++
	a.TotalAdsWatched++
	if a.AdsWatchedToday%e.economy.AdsPerReward == 0 {
		c.Credit(models.EntryAdReward, e.economy.AdReward, "")
	}
	return nil
}

// DailyBonus credits the flat daily bonus once per calendar day
func (e *Engine) DailyBonus(ctx context.Context, accountID string) (*Outcome, error) {
	return e.Apply(ctx, accountID, func(c *ledger.Change, today string, out *Outcome) error {
		if c.Account.LastBonusDate == today {
			return apperrors.ErrAlreadyClaimed
		}

		c.Account.LastBonusDate = today
		c.Credit(models.EntryDailyBonus, e.economy.DailyBonus, "")
		return nil
	})
}

// StreakBonus shares the daily gate with DailyBonus. Consecutive days grow
// the streak, any gap restarts it at one.
func (e *Engine) StreakBonus(ctx context.Context, accountID string) (*Outcome, error) {
	return e.Apply(ctx, accountID, func(c *ledger.Change, today string, out *Outcome) error {
		a := c.Account
		if a.LastBonusDate == today {
			return apperrors.ErrAlreadyClaimed
		}

		yesterday, err := ledger.PreviousDay(today)
		if err != nil {
			return err
		}
		if a.LastBonusDate == yesterday {
			a.StreakDays++
		} else {
			a.StreakDays = 1
		}

		a.LastBonusDate = today
		c.Credit(models.EntryStreakBonus, int64(a.StreakDays)*e.economy.StreakBonusPerDay, "")
		return nil
	})
}

// Spin consumes a free spin, or a purchased one once the free allotment is
// used, and credits a uniform draw from the reward table.
func (e *Engine) Spin(ctx context.Context, accountID string) (*Outcome, error) {
	return e.Apply(ctx, accountID, func(c *ledger.Change, today string, out *Outcome) error {
		a := c.Account
		switch {
		case a.DailySpinsUsed < e.economy.FreeSpinsPerDay:
			a.DailySpinsUsed++
		case a.ExtraSpinsPurchased > 0:
			a.ExtraSpinsPurchased--
		default:
			return apperrors.ErrNoSpinsLeft
		}

		table := e.economy.SpinRewards
		reward := table[e.intn(len(table))]
		a.TotalSpins++
		out.SpinReward = reward
		c.Credit(models.EntrySpinReward, reward, "")
		return nil
	})
}

// BuySpin spends SpinCost on one extra spin
func (e *Engine) BuySpin(ctx context.Context, accountID string) (*Outcome, error) {
	return e.Apply(ctx, accountID, func(c *ledger.Change, today string, out *Outcome) error {
		if err := c.Debit(models.EntrySpinPurchase, e.economy.SpinCost, ""); err != nil {
			return err
		}
		c.Account.ExtraSpinsPurchased++
		return nil
	})
}

// QuizComplete credits score times the quiz point value. The score is
// trusted; only its sign is checked.
func (e *Engine) QuizComplete(ctx context.Context, accountID string, score int) (*Outcome, error) {
	if score < 0 {
		return nil, apperrors.Validation("quiz score must not be negative")
	}

	return e.Apply(ctx, accountID, func(c *ledger.Change, today string, out *Outcome) error {
		c.Account.QuizzesCompleted++
		c.Credit(models.EntryQuizReward, int64(score)*e.economy.QuizPointValue, "")
		return nil
	})
}

// Credit applies an external reward callback
func (e *Engine) Credit(ctx context.Context, accountID string, amount int64, source string) (*Outcome, error) {
	source = strings.TrimSpace(source)
	if amount <= 0 {
		return nil, apperrors.Validation("amount must be positive")
	}
	if source == "" {
		return nil, apperrors.Validation("source is required")
	}

	return e.Apply(ctx, accountID, func(c *ledger.Change, today string, out *Outcome) error {
		c.Credit(models.EntryExternalCredit, amount, source)
		return nil
	})
}

// Signup credits the welcome bonus to a brand-new account
func (e *Engine) Signup() Mutation {
	return func(c *ledger.Change, today string, out *Outcome) error {
		c.Credit(models.EntrySignupBonus, e.economy.SignupBonus, "")
		return nil
	}
}

// ReferralCredit rewards the referrer of referredID. Only account creation
// applies it, inside the transaction that inserts the referred account.
func (e *Engine) ReferralCredit(referredID string) Mutation {
	return func(c *ledger.Change, today string, out *Outcome) error {
		c.Account.ReferralCount++
		c.Credit(models.EntryReferralReward, e.economy.ReferralBonus, referredID)
		return nil
	}
}
