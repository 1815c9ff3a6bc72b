package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clawearning/backend/internal/apperrors"
	"github.com/clawearning/backend/internal/metrics"
	"github.com/clawearning/backend/internal/services/ledger"
	"github.com/clawearning/backend/internal/services/notify"
	"github.com/clawearning/backend/internal/services/rewards"
	"github.com/sirupsen/logrus"
)

const sweepLeaseTTL = 23 * time.Hour

// errAlreadyCurrent discards the transaction for accounts already on today
var errAlreadyCurrent = &apperrors.Error{Kind: apperrors.KindState, Reason: "already_current", Message: "account already reset today"}

// SweepReport summarizes one daily sweep
type SweepReport struct {
	Day      string
	Skipped  bool
	Accounts int
	Reset    int
	Failed   int
}

// DailyResetJob resets day-scoped counters for every account at the day
// boundary and tells each reset account about it.
type DailyResetJob struct {
	store     ledger.Store
	calendar  *ledger.Calendar
	publisher notify.Publisher
	locker    Locker
	log       logrus.FieldLogger
}

// NewDailyResetJob creates the sweep job
func NewDailyResetJob(store ledger.Store, calendar *ledger.Calendar, publisher notify.Publisher, locker Locker, log logrus.FieldLogger) *DailyResetJob {
	return &DailyResetJob{
		store:     store,
		calendar:  calendar,
		publisher: publisher,
		locker:    locker,
		log:       log.WithField("job", "daily_reset"),
	}
}

// Run sweeps every account once per day. Each account is reset in its own
// transaction; notifications go out after all locks are released.
func (j *DailyResetJob) Run(ctx context.Context) (*SweepReport, error) {
	start := j.calendar.Clock().Now()
	today := j.calendar.Today()
	report := &SweepReport{Day: today}

	ok, err := j.locker.TryLock(ctx, "daily-sweep:"+today, sweepLeaseTTL)
	if err != nil {
		return nil, fmt.Errorf("error obtaining sweep lock: %w", err)
	}
	if !ok {
		j.log.WithField("day", today).Info("Daily sweep already claimed by another instance")
		report.Skipped = true
		return report, nil
	}

	ids, err := j.store.AccountIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing accounts: %w", err)
	}
	report.Accounts = len(ids)

	reset := make([]string, 0, len(ids))
	for _, id := range ids {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}

		_, err := ledger.UpdateWithRetry(ctx, j.store, id, func(c *ledger.Change) error {
			if !rewards.ResetDay(c.Account, today) {
				return errAlreadyCurrent
			}
			return nil
		})
		switch {
		case err == nil:
			reset = append(reset, id)
		case errors.Is(err, errAlreadyCurrent):
		default:
			report.Failed++
			j.log.WithField("account_id", id).WithError(err).Error("Error resetting account")
		}
	}
	report.Reset = len(reset)

	for _, id := range reset {
		notify.PublishQuietly(ctx, j.publisher, j.log, notify.DailyReset(id, today))
	}

	metrics.RecordSweep(j.calendar.Clock().Since(start), report.Reset)
	j.log.WithFields(logrus.Fields{
		"day":      today,
		"accounts": report.Accounts,
		"reset":    report.Reset,
		"failed":   report.Failed,
	}).Info("Daily sweep finished")
	return report, nil
}
