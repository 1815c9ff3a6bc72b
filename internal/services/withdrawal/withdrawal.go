// Package withdrawal authorizes payouts against the tiered minimums.
package withdrawal

import (
	"context"
	"strings"

	"github.com/clawearning/backend/internal/apperrors"
	"github.com/clawearning/backend/internal/models"
	"github.com/clawearning/backend/internal/services/ledger"
	"github.com/clawearning/backend/internal/services/notify"
	"github.com/clawearning/backend/internal/services/rewards"
	"github.com/sirupsen/logrus"
)

const maxDestinationLength = 256

// Result describes an authorized withdrawal
type Result struct {
	Account     *models.Account
	Amount      int64
	Destination string
}

// Authorizer checks eligibility and debits withdrawals
type Authorizer struct {
	engine    *rewards.Engine
	publisher notify.Publisher
	log       logrus.FieldLogger
}

// NewAuthorizer creates an authorizer
func NewAuthorizer(engine *rewards.Engine, publisher notify.Publisher, log logrus.FieldLogger) *Authorizer {
	return &Authorizer{engine: engine, publisher: publisher, log: log}
}

// MinimumFor returns the payout minimum that applies to the account's next withdrawal
func (w *Authorizer) MinimumFor(a *models.Account) int64 {
	economy := w.engine.Economy()
	if a.HasWithdrawnBefore {
		return economy.SubsequentMinPayout
	}
	return economy.InitialMinPayout
}

// Withdraw debits exactly the applicable minimum. A missing payout
// destination is reported before the balance check.
func (w *Authorizer) Withdraw(ctx context.Context, accountID string) (*Result, error) {
	result := &Result{}
	out, err := w.engine.Apply(ctx, accountID, func(c *ledger.Change, today string, _ *rewards.Outcome) error {
		a := c.Account
		if a.PayoutDestination == nil || *a.PayoutDestination == "" {
			return apperrors.ErrNoPayoutDestination
		}

		amount := w.MinimumFor(a)
		if a.Balance < amount {
			return apperrors.ErrInsufficientBalance
		}
		if err := c.Debit(models.EntryWithdrawal, amount, *a.PayoutDestination); err != nil {
			return err
		}

		a.WithdrawalCount++
		a.HasWithdrawnBefore = true
		c.RecordWithdrawal(amount, *a.PayoutDestination)

		result.Amount = amount
		result.Destination = *a.PayoutDestination
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.Account = out.Account

	w.log.WithFields(logrus.Fields{
		"account_id": accountID,
		"amount":     result.Amount,
	}).Info("Withdrawal authorized")

	notify.PublishQuietly(ctx, w.publisher, w.log,
		notify.WithdrawalProcessed(accountID, result.Amount, out.Account.Balance, result.Destination))
	return result, nil
}

// SetPayoutDestination stores where future withdrawals are sent
func (w *Authorizer) SetPayoutDestination(ctx context.Context, accountID, destination string) (*models.Account, error) {
	destination = strings.TrimSpace(destination)
	if destination == "" {
		return nil, apperrors.Validation("destination is required")
	}
	if len(destination) > maxDestinationLength {
		return nil, apperrors.Validation("destination must be at most %d characters", maxDestinationLength)
	}

	out, err := w.engine.Apply(ctx, accountID, func(c *ledger.Change, today string, _ *rewards.Outcome) error {
		c.Account.PayoutDestination = &destination
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out.Account, nil
}
