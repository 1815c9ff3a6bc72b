package withdrawal

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/clawearning/backend/internal/apperrors"
	"github.com/clawearning/backend/internal/config"
	"github.com/clawearning/backend/internal/logging"
	"github.com/clawearning/backend/internal/models"
	"github.com/clawearning/backend/internal/services/ledger"
	"github.com/clawearning/backend/internal/services/notify"
	"github.com/clawearning/backend/internal/services/progression"
	"github.com/clawearning/backend/internal/services/rewards"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu    sync.Mutex
	notes []notify.Notification
}

func (r *recordingPublisher) Publish(ctx context.Context, notes ...notify.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, notes...)
	return nil
}

func (r *recordingPublisher) kinds() []notify.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]notify.Kind, 0, len(r.notes))
	for _, n := range r.notes {
		kinds = append(kinds, n.Kind)
	}
	return kinds
}

type fixture struct {
	store      *ledger.MemoryStore
	engine     *rewards.Engine
	authorizer *Authorizer
	publisher  *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC))
	store := ledger.NewMemoryStore(clock)
	publisher := &recordingPublisher{}
	log := logging.Discard()
	engine := rewards.NewEngine(store, ledger.NewCalendar(clock, time.UTC), progression.NewEvaluator(nil),
		config.DefaultEconomy(), publisher, log)

	return &fixture{
		store:      store,
		engine:     engine,
		authorizer: NewAuthorizer(engine, publisher, log),
		publisher:  publisher,
	}
}

// seed creates id with the given balance
func (f *fixture) seed(t *testing.T, id string, balance int64) {
	t.Helper()
	_, err := f.store.Create(context.Background(), id, nil, nil)
	require.NoError(t, err)
	if balance > 0 {
		_, err = f.engine.Credit(context.Background(), id, balance, "seed")
		require.NoError(t, err)
	}
}

func TestWithdrawRequiresDestinationFirst(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "u1", 0)

	_, err := f.authorizer.Withdraw(ctx, "u1")
	assert.ErrorIs(t, err, apperrors.ErrNoPayoutDestination)
}

func TestWithdrawBelowInitialMinimum(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "u1", 15)

	_, err := f.authorizer.SetPayoutDestination(ctx, "u1", "UQ-wallet")
	require.NoError(t, err)

	_, err = f.authorizer.Withdraw(ctx, "u1")
	assert.ErrorIs(t, err, apperrors.ErrInsufficientBalance)

	account, err := f.store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(15), account.Balance)
	assert.False(t, account.HasWithdrawnBefore)
}

func TestWithdrawDebitsExactlyTheMinimum(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "u1", 25)

	_, err := f.authorizer.SetPayoutDestination(ctx, "u1", "  UQ-wallet  ")
	require.NoError(t, err)

	result, err := f.authorizer.Withdraw(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(20), result.Amount)
	assert.Equal(t, "UQ-wallet", result.Destination)
	assert.Equal(t, int64(5), result.Account.Balance)
	assert.Equal(t, int64(25), result.Account.TotalEarnings)
	assert.Equal(t, 1, result.Account.WithdrawalCount)
	assert.True(t, result.Account.HasWithdrawnBefore)

	withdrawals := f.store.Withdrawals("u1")
	require.Len(t, withdrawals, 1)
	assert.Equal(t, int64(20), withdrawals[0].Amount)
	assert.Equal(t, models.WithdrawalRequested, withdrawals[0].Status)

	assert.Contains(t, f.publisher.kinds(), notify.KindWithdrawalProcessed)
	assert.Contains(t, result.Account.Achievements, "first-payout")
}

func TestSubsequentWithdrawalUsesHigherMinimum(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "u1", 110)

	_, err := f.authorizer.SetPayoutDestination(ctx, "u1", "UQ-wallet")
	require.NoError(t, err)

	_, err = f.authorizer.Withdraw(ctx, "u1")
	require.NoError(t, err)

	// 90 left, next minimum is 100
	_, err = f.authorizer.Withdraw(ctx, "u1")
	assert.ErrorIs(t, err, apperrors.ErrInsufficientBalance)

	_, err = f.engine.Credit(ctx, "u1", 10, "seed")
	require.NoError(t, err)

	result, err := f.authorizer.Withdraw(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), result.Amount)
	assert.Equal(t, int64(0), result.Account.Balance)
	assert.Equal(t, 2, result.Account.WithdrawalCount)
}

func TestSetPayoutDestinationValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "u1", 0)

	_, err := f.authorizer.SetPayoutDestination(ctx, "u1", "   ")
	assert.ErrorIs(t, err, apperrors.ErrMalformedParams)

	_, err = f.authorizer.SetPayoutDestination(ctx, "missing", "UQ-wallet")
	assert.ErrorIs(t, err, apperrors.ErrAccountNotFound)
}

func TestMinimumFor(t *testing.T) {
	f := newFixture(t)
	a := models.NewAccount("u1")
	assert.Equal(t, int64(20), f.authorizer.MinimumFor(a))
	a.HasWithdrawnBefore = true
	assert.Equal(t, int64(100), f.authorizer.MinimumFor(a))
}
