// Package rewards applies reward and spend actions to accounts. Each action
// runs in one ledger transaction: reset the day cycle, validate, mutate,
// then re-derive tier and achievements.
package rewards

import (
	"context"
	"math/rand"

	"github.com/clawearning/backend/internal/config"
	"github.com/clawearning/backend/internal/models"
	"github.com/clawearning/backend/internal/services/ledger"
	"github.com/clawearning/backend/internal/services/notify"
	"github.com/clawearning/backend/internal/services/progression"
	"github.com/sirupsen/logrus"
)

// Outcome is what an action changed
type Outcome struct {
	Account      *models.Account
	Credited     int64
	Debited      int64
	SpinReward   int64
	DayReset     bool
	Unlocked     []progression.Rule
	PreviousTier models.Tier
	Tier         models.Tier
}

// UnlockedIDs returns the ids of achievements unlocked by the action
func (o *Outcome) UnlockedIDs() []string {
	ids := make([]string, 0, len(o.Unlocked))
	for _, r := range o.Unlocked {
		ids = append(ids, r.ID())
	}
	return ids
}

// Mutation validates and mutates the locked account for one action
type Mutation func(c *ledger.Change, today string, out *Outcome) error

// Engine runs reward actions
type Engine struct {
	store     ledger.Store
	calendar  *ledger.Calendar
	evaluator *progression.Evaluator
	economy   config.EconomyConfig
	publisher notify.Publisher
	log       logrus.FieldLogger
	intn      func(n int) int
}

// NewEngine creates an engine
func NewEngine(store ledger.Store, calendar *ledger.Calendar, evaluator *progression.Evaluator, economy config.EconomyConfig, publisher notify.Publisher, log logrus.FieldLogger) *Engine {
	return &Engine{
		store:     store,
		calendar:  calendar,
		evaluator: evaluator,
		economy:   economy,
		publisher: publisher,
		log:       log,
		intn:      rand.Intn,
	}
}

// WithRandom replaces the spin draw. intn must return a value in [0, n).
func (e *Engine) WithRandom(intn func(n int) int) *Engine {
	e.intn = intn
	return e
}

// Economy returns the reward schedule in force
func (e *Engine) Economy() config.EconomyConfig {
	return e.economy
}

// Calendar returns the engine's calendar
func (e *Engine) Calendar() *ledger.Calendar {
	return e.calendar
}

// Store returns the engine's ledger store
func (e *Engine) Store() ledger.Store {
	return e.store
}

// Apply runs m in one transaction, retrying once on storage failure, and
// publishes progress notifications after commit.
func (e *Engine) Apply(ctx context.Context, accountID string, m Mutation) (*Outcome, error) {
	var out *Outcome
	account, err := ledger.UpdateWithRetry(ctx, e.store, accountID, func(c *ledger.Change) error {
		out = &Outcome{}
		return e.transform(c, m, out)
	})
	if err != nil {
		return nil, err
	}

	out.Account = account
	notify.PublishQuietly(ctx, e.publisher, e.log,
		notify.Progress(accountID, out.Unlocked, out.PreviousTier, out.Tier)...)
	return out, nil
}

// Bind turns m into a ledger update that fills out. Used where the caller
// owns the transaction, such as account creation.
func (e *Engine) Bind(m Mutation, out *Outcome) ledger.UpdateFunc {
	return func(c *ledger.Change) error {
		*out = Outcome{}
		return e.transform(c, m, out)
	}
}

func (e *Engine) transform(c *ledger.Change, m Mutation, out *Outcome) error {
	today := e.calendar.Today()
	out.DayReset = ResetDay(c.Account, today)

	if err := m(c, today, out); err != nil {
		return err
	}

	result := e.evaluator.Evaluate(c.Account)
	out.Unlocked = result.Unlocked
	out.PreviousTier = result.PreviousTier
	out.Tier = result.Tier

	for _, entry := range c.Entries() {
		if entry.Amount > 0 {
			out.Credited += entry.Amount
		} else {
			out.Debited -= entry.Amount
		}
	}
	return nil
}
