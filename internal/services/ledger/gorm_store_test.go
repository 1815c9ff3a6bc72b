package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/clawearning/backend/internal/apperrors"
	"github.com/clawearning/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockGormStore(t *testing.T) (*GormStore, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Discard,
	})
	require.NoError(t, err)

	return NewGormStore(db), mock
}

func accountRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "balance", "total_earnings", "ads_watched_today", "last_ad_date", "tier", "achievements"}).
		AddRow("u1", 35, 120, 4, "2024-05-01", "Bronze", `["first-ad"]`)
}

func TestGormGet(t *testing.T) {
	store, mock := newMockGormStore(t)

	mock.ExpectQuery(`SELECT \* FROM "accounts" WHERE id = \$1`).WillReturnRows(accountRows())

	account, err := store.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(35), account.Balance)
	assert.Equal(t, 4, account.AdsWatchedToday)
	assert.Equal(t, models.TierBronze, account.Tier)
	assert.Equal(t, models.StringSet{"first-ad"}, account.Achievements)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormGetNotFoundAndFailure(t *testing.T) {
	store, mock := newMockGormStore(t)

	mock.ExpectQuery(`SELECT \* FROM "accounts"`).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	_, err := store.Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, apperrors.ErrAccountNotFound)

	mock.ExpectQuery(`SELECT \* FROM "accounts"`).WillReturnError(errors.New("connection refused"))
	_, err = store.Get(context.Background(), "u1")
	assert.True(t, apperrors.IsStorage(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormUpdateLocksRowAndWritesEntries(t *testing.T) {
	store, mock := newMockGormStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "accounts" WHERE id = \$1 .*FOR UPDATE`).WillReturnRows(accountRows())
	mock.ExpectExec(`UPDATE "accounts" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "ledger_entries"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	account, err := store.Update(context.Background(), "u1", func(c *Change) error {
		c.Account.AdsWatchedToday++
		c.Credit(models.EntryAdReward, 20, "")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(55), account.Balance)
	assert.Equal(t, int64(140), account.TotalEarnings)
	assert.Equal(t, 5, account.AdsWatchedToday)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormUpdateRollsBackOnDomainError(t *testing.T) {
	store, mock := newMockGormStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WillReturnRows(accountRows())
	mock.ExpectRollback()

	_, err := store.Update(context.Background(), "u1", func(c *Change) error {
		return apperrors.ErrLimitReached
	})
	assert.ErrorIs(t, err, apperrors.ErrLimitReached)
	assert.False(t, apperrors.IsStorage(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormUpdateWrapsDriverErrors(t *testing.T) {
	store, mock := newMockGormStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WillReturnError(errors.New("deadlock detected"))
	mock.ExpectRollback()

	_, err := store.Update(context.Background(), "u1", func(c *Change) error { return nil })
	assert.True(t, apperrors.IsStorage(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormUpdateUnknownAccount(t *testing.T) {
	store, mock := newMockGormStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := store.Update(context.Background(), "ghost", func(c *Change) error { return nil })
	assert.ErrorIs(t, err, apperrors.ErrAccountNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormCreateReturnsExistingAccount(t *testing.T) {
	store, mock := newMockGormStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "accounts" WHERE id = \$1`).WillReturnRows(accountRows())
	mock.ExpectCommit()

	result, err := store.Create(context.Background(), "u1", func(c *Change) error {
		return errors.New("init must not run for existing accounts")
	}, nil)
	require.NoError(t, err)
	assert.False(t, result.Created)
	assert.Equal(t, int64(35), result.Account.Balance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormLeaderboardOrdering(t *testing.T) {
	store, mock := newMockGormStore(t)

	rows := sqlmock.NewRows([]string{"id", "total_earnings", "tier"}).
		AddRow("b", 900, "Silver").
		AddRow("a", 100, "Bronze")
	mock.ExpectQuery(`ORDER BY total_earnings DESC,id ASC`).WillReturnRows(rows)

	top, err := store.Leaderboard(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "b", top[0].ID)
	assert.Equal(t, models.TierSilver, top[0].Tier)
	assert.NoError(t, mock.ExpectationsWereMet())
}
