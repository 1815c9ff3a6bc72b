// Package actions routes inbound action descriptors to the ledger services
// and renders their results.
package actions

import (
	"context"
	"encoding/json"
	"time"

	"github.com/clawearning/backend/internal/apperrors"
	"github.com/clawearning/backend/internal/metrics"
	"github.com/clawearning/backend/internal/models"
	"github.com/clawearning/backend/internal/services/accounts"
	"github.com/clawearning/backend/internal/services/progression"
	"github.com/clawearning/backend/internal/services/rewards"
	"github.com/clawearning/backend/internal/services/withdrawal"
	"github.com/sirupsen/logrus"
)

// Kind names an inbound action
type Kind string

const (
	KindStart                Kind = "start"
	KindWatchAd              Kind = "watch_ad"
	KindDailyBonus           Kind = "daily_bonus"
	KindStreakBonus          Kind = "streak_bonus"
	KindSpin                 Kind = "spin"
	KindBuySpin              Kind = "buy_spin"
	KindQuizComplete         Kind = "quiz_complete"
	KindWithdraw             Kind = "withdraw"
	KindSetPayoutDestination Kind = "set_payout_destination"
	KindBalance              Kind = "balance"
	KindReferralLink         Kind = "referral_link"
)

// Status is the coarse result of an action
type Status string

const (
	StatusSuccess  Status = "success"
	StatusDeclined Status = "declined"
	StatusError    Status = "error"
)

// Action is an inbound action descriptor
type Action struct {
	AccountID  string          `json:"accountId"`
	Kind       Kind            `json:"actionKind"`
	Params     json.RawMessage `json:"params,omitempty"`
	ReferrerID string          `json:"referrerId,omitempty"`
}

// Result is returned to the transport for rendering
type Result struct {
	Status  Status                 `json:"result"`
	Reason  string                 `json:"reason,omitempty"`
	Message string                 `json:"message,omitempty"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

type quizParams struct {
	Score *int `json:"score"`
}

type destinationParams struct {
	Destination string `json:"destination"`
}

// Dispatcher executes actions
type Dispatcher struct {
	accounts   *accounts.Manager
	engine     *rewards.Engine
	withdrawal *withdrawal.Authorizer
	log        logrus.FieldLogger
}

// NewDispatcher creates a dispatcher
func NewDispatcher(accounts *accounts.Manager, engine *rewards.Engine, withdrawal *withdrawal.Authorizer, log logrus.FieldLogger) *Dispatcher {
	return &Dispatcher{
		accounts:   accounts,
		engine:     engine,
		withdrawal: withdrawal,
		log:        log,
	}
}

// Dispatch runs one action. Expected refusals come back declined with a
// stable reason; storage and unexpected failures come back as errors.
func (d *Dispatcher) Dispatch(ctx context.Context, action Action) Result {
	start := time.Now()
	payload, err := d.run(ctx, action)

	result := Result{Status: StatusSuccess, Payload: payload}
	if err != nil {
		result = d.failure(action, err)
	}

	metrics.RecordAction(string(action.Kind), string(result.Status))
	d.log.WithFields(logrus.Fields{
		"account_id": action.AccountID,
		"action":     action.Kind,
		"status":     result.Status,
		"reason":     result.Reason,
		"duration":   time.Since(start),
	}).Debug("Action dispatched")
	return result
}

func (d *Dispatcher) failure(action Action, err error) Result {
	switch apperrors.KindOf(err) {
	case apperrors.KindValidation, apperrors.KindState:
		return Result{
			Status:  StatusDeclined,
			Reason:  apperrors.ReasonOf(err),
			Message: apperrors.MessageOf(err),
		}
	}

	d.log.WithFields(logrus.Fields{
		"account_id": action.AccountID,
		"action":     action.Kind,
	}).WithError(err).Error("Action failed")

	return Result{
		Status:  StatusError,
		Reason:  apperrors.ReasonOf(err),
		Message: "Something went wrong, please try again later",
	}
}

func (d *Dispatcher) run(ctx context.Context, action Action) (map[string]interface{}, error) {
	if err := accounts.ValidateID(action.AccountID); err != nil {
		return nil, err
	}
	id := action.AccountID

	switch action.Kind {
	case KindStart:
		created, err := d.accounts.Create(ctx, id, action.ReferrerID)
		if err != nil {
			return nil, err
		}
		payload := accountPayload(created.Account)
		payload["created"] = created.Created
		payload["referralApplied"] = created.ReferralApplied
		return payload, nil

	case KindWatchAd:
		out, err := d.engine.WatchAd(ctx, id)
		if err != nil {
			return nil, err
		}
		payload := outcomePayload(out)
		payload["adsWatchedToday"] = out.Account.AdsWatchedToday
		payload["adsUntilReward"] = adsUntilReward(out.Account, d.engine.Economy().AdsPerReward)
		return payload, nil

	case KindDailyBonus:
		return d.outcome(d.engine.DailyBonus(ctx, id))

	case KindStreakBonus:
		out, err := d.engine.StreakBonus(ctx, id)
		if err != nil {
			return nil, err
		}
		payload := outcomePayload(out)
		payload["streakDays"] = out.Account.StreakDays
		return payload, nil

	case KindSpin:
		out, err := d.engine.Spin(ctx, id)
		if err != nil {
			return nil, err
		}
		payload := outcomePayload(out)
		payload["spinReward"] = out.SpinReward
		payload["freeSpinsLeft"] = freeSpinsLeft(out.Account, d.engine.Economy().FreeSpinsPerDay)
		payload["extraSpins"] = out.Account.ExtraSpinsPurchased
		return payload, nil

	case KindBuySpin:
		out, err := d.engine.BuySpin(ctx, id)
		if err != nil {
			return nil, err
		}
		payload := outcomePayload(out)
		payload["extraSpins"] = out.Account.ExtraSpinsPurchased
		return payload, nil

	case KindQuizComplete:
		var params quizParams
		if err := decodeParams(action.Params, &params); err != nil {
			return nil, err
		}
		if params.Score == nil {
			return nil, apperrors.Validation("params.score is required")
		}
		return d.outcome(d.engine.QuizComplete(ctx, id, *params.Score))

	case KindWithdraw:
		result, err := d.withdrawal.Withdraw(ctx, id)
		if err != nil {
			return nil, err
		}
		payload := accountPayload(result.Account)
		payload["amount"] = result.Amount
		payload["destination"] = result.Destination
		return payload, nil

	case KindSetPayoutDestination:
		var params destinationParams
		if err := decodeParams(action.Params, &params); err != nil {
			return nil, err
		}
		account, err := d.withdrawal.SetPayoutDestination(ctx, id, params.Destination)
		if err != nil {
			return nil, err
		}
		return accountPayload(account), nil

	case KindBalance:
		account, err := d.accounts.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		payload := accountPayload(account)
		payload["nextPayoutMinimum"] = d.withdrawal.MinimumFor(account)
		if next, needed, ok := progression.NextTier(account.TotalEarnings); ok {
			payload["nextTier"] = next
			payload["nextTierIn"] = needed
		}
		return payload, nil

	case KindReferralLink:
		account, err := d.accounts.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"accountId":     account.ID,
			"referralLink":  d.accounts.ReferralLink(account.ID),
			"referralCount": account.ReferralCount,
		}, nil
	}

	return nil, apperrors.Validation("unknown action %q", action.Kind)
}

func (d *Dispatcher) outcome(out *rewards.Outcome, err error) (map[string]interface{}, error) {
	if err != nil {
		return nil, err
	}
	return outcomePayload(out), nil
}

func decodeParams(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return apperrors.Validation("invalid params: %v", err)
	}
	return nil
}

func accountPayload(a *models.Account) map[string]interface{} {
	return map[string]interface{}{
		"accountId":     a.ID,
		"balance":       a.Balance,
		"totalEarnings": a.TotalEarnings,
		"tier":          a.Tier,
	}
}

func outcomePayload(out *rewards.Outcome) map[string]interface{} {
	payload := accountPayload(out.Account)
	payload["credited"] = out.Credited
	payload["debited"] = out.Debited
	if ids := out.UnlockedIDs(); len(ids) > 0 {
		payload["achievementsUnlocked"] = ids
	}
	if out.PreviousTier != out.Tier {
		payload["tierChanged"] = true
	}
	return payload
}

func adsUntilReward(a *models.Account, every int) int {
	if every <= 0 {
		return 0
	}
	return every - a.AdsWatchedToday%every
}

func freeSpinsLeft(a *models.Account, perDay int) int {
	if left := perDay - a.DailySpinsUsed; left > 0 {
		return left
	}
	return 0
}
