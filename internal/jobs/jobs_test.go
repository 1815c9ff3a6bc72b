package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/clawearning/backend/internal/logging"
	"github.com/clawearning/backend/internal/queue"
	"github.com/clawearning/backend/internal/services/ledger"
	"github.com/clawearning/backend/internal/services/notify"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
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

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, n notify.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func TestLocalLockerLeases(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClock()
	locker := NewLocalLocker(clock)

	ok, err := locker.TryLock(ctx, "k", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = locker.TryLock(ctx, "k", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = locker.TryLock(ctx, "other", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	clock.Advance(time.Hour)
	ok, err = locker.TryLock(ctx, "k", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDailyResetJob(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 22, 0, 0, 0, time.UTC))
	store := ledger.NewMemoryStore(clock)
	calendar := ledger.NewCalendar(clock, time.UTC)
	publisher := &recordingPublisher{}
	job := NewDailyResetJob(store, calendar, publisher, NewLocalLocker(clock), logging.Discard())

	for _, id := range []string{"a", "b"} {
		_, err := store.Create(ctx, id, nil, nil)
		require.NoError(t, err)
		_, err = store.Update(ctx, id, func(c *ledger.Change) error {
			c.Account.AdsWatchedToday = 42
			c.Account.LastAdDate = "2024-05-01"
			c.Account.DailySpinsUsed = 3
			c.Account.LastSpinDate = "2024-05-01"
			return nil
		})
		require.NoError(t, err)
	}

	clock.Advance(2 * time.Hour)

	report, err := job.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-02", report.Day)
	assert.Equal(t, 2, report.Accounts)
	assert.Equal(t, 2, report.Reset)
	assert.Zero(t, report.Failed)

	a, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Zero(t, a.AdsWatchedToday)
	assert.Zero(t, a.DailySpinsUsed)
	assert.Equal(t, "2024-05-02", a.LastAdDate)

	require.Len(t, publisher.notes, 2)
	for _, n := range publisher.notes {
		assert.Equal(t, notify.KindDailyReset, n.Kind)
	}

	// same day: the lease is held
	again, err := job.Run(ctx)
	require.NoError(t, err)
	assert.True(t, again.Skipped)
	assert.Len(t, publisher.notes, 2)
}

func TestDailyResetJobSkipsCurrentAccounts(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC))
	store := ledger.NewMemoryStore(clock)
	publisher := &recordingPublisher{}
	job := NewDailyResetJob(store, ledger.NewCalendar(clock, time.UTC), publisher, NewLocalLocker(clock), logging.Discard())

	_, err := store.Create(ctx, "a", nil, nil)
	require.NoError(t, err)
	_, err = store.Update(ctx, "a", func(c *ledger.Change) error {
		c.Account.AdsWatchedToday = 5
		c.Account.LastAdDate = "2024-05-02"
		c.Account.LastSpinDate = "2024-05-02"
		return nil
	})
	require.NoError(t, err)

	report, err := job.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Reset)
	assert.Empty(t, publisher.notes)

	a, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 5, a.AdsWatchedToday)
}

func TestNotificationJobDelivers(t *testing.T) {
	ctx := context.Background()
	notifier := new(MockNotifier)
	handler := NewNotificationJob(notifier, logging.Discard())

	q := queue.NewMemoryQueue(clockwork.NewRealClock())
	note := notify.DailyReset("a", "2024-05-02")
	_, err := q.Enqueue(ctx, queue.JobTypeNotification, note)
	require.NoError(t, err)

	job, err := q.Dequeue(ctx, queue.JobTypeNotification, time.Second)
	require.NoError(t, err)
	require.NotNil(t, job)

	notifier.On("Notify", mock.Anything, mock.MatchedBy(func(n notify.Notification) bool {
		return n.AccountID == "a" && n.Kind == notify.KindDailyReset
	})).Return(nil).Once()

	_, err = handler.Handle(ctx, *job)
	require.NoError(t, err)
	notifier.AssertExpectations(t)
}

func TestNotificationJobReturnsDeliveryError(t *testing.T) {
	notifier := new(MockNotifier)
	notifier.On("Notify", mock.Anything, mock.Anything).Return(errors.New("webhook down"))
	handler := NewNotificationJob(notifier, logging.Discard())

	_, err := handler.Handle(context.Background(), queue.Job{
		Type:    queue.JobTypeNotification,
		Payload: []byte(`{"kind":"tier_up","accountId":"a"}`),
	})
	assert.EqualError(t, err, "webhook down")

	_, err = handler.Handle(context.Background(), queue.Job{Payload: []byte(`not json`)})
	assert.Error(t, err)
}

func TestScheduleRecurringJobsRejectsBadTime(t *testing.T) {
	clock := clockwork.NewRealClock()
	store := ledger.NewMemoryStore(clock)
	job := NewDailyResetJob(store, ledger.NewCalendar(clock, time.UTC), &recordingPublisher{}, NewLocalLocker(clock), logging.Discard())

	_, err := ScheduleRecurringJobs(context.Background(), time.UTC, "25:99", job, logging.Discard())
	assert.Error(t, err)

	s, err := ScheduleRecurringJobs(context.Background(), time.UTC, "00:00", job, logging.Discard())
	require.NoError(t, err)
	s.Stop()
}
