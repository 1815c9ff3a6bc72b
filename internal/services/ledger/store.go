// Package ledger persists accounts and their balance movements. Every
// mutation runs as one atomic per-account transaction.
package ledger

import (
	"context"

	"github.com/clawearning/backend/internal/apperrors"
	"github.com/clawearning/backend/internal/metrics"
	"github.com/clawearning/backend/internal/models"
)

// Store is the persistence boundary for accounts
type Store interface {
	// Get returns a snapshot of the account or apperrors.ErrAccountNotFound
	Get(ctx context.Context, id string) (*models.Account, error)
	// Update runs fn against the locked account and commits the result atomically
	Update(ctx context.Context, id string, fn UpdateFunc) (*models.Account, error)
	// Create inserts a new account unless one already exists
	Create(ctx context.Context, id string, init UpdateFunc, link *ReferralLink) (*CreateResult, error)
	// Leaderboard orders accounts by lifetime earnings desc, then id asc
	Leaderboard(ctx context.Context, limit int) ([]models.Account, error)
	// AccountIDs lists every account id in ascending order
	AccountIDs(ctx context.Context) ([]string, error)
	// History returns the newest ledger entries for an account first
	History(ctx context.Context, id string, limit int) ([]models.LedgerEntry, error)
	// Ping reports whether the backing storage is reachable
	Ping(ctx context.Context) error
}

// ReferralLink asks Create to credit an existing referrer in the same
// transaction that inserts the referred account.
type ReferralLink struct {
	ReferrerID string
	Apply      UpdateFunc
}

// CreateResult describes the outcome of Create
type CreateResult struct {
	Account *models.Account
	Created bool
	// Referrer is the referrer snapshot after the link was applied, nil when
	// no link was applied.
	Referrer *models.Account
}

// UpdateWithRetry retries the transaction once when it fails with a storage error
func UpdateWithRetry(ctx context.Context, store Store, id string, fn UpdateFunc) (*models.Account, error) {
	account, err := store.Update(ctx, id, fn)
	if apperrors.IsStorage(err) && ctx.Err() == nil {
		metrics.RecordStorageRetry()
		account, err = store.Update(ctx, id, fn)
	}
	return account, err
}

// CreateWithRetry retries account creation once when it fails with a storage error
func CreateWithRetry(ctx context.Context, store Store, id string, init UpdateFunc, link *ReferralLink) (*CreateResult, error) {
	result, err := store.Create(ctx, id, init, link)
	if apperrors.IsStorage(err) && ctx.Err() == nil {
		metrics.RecordStorageRetry()
		result, err = store.Create(ctx, id, init, link)
	}
	return result, err
}

func recordEntries(changes ...*Change) {
	for _, c := range changes {
		if c == nil {
			continue
		}
		for _, e := range c.entries {
			metrics.RecordEntry(string(e.Kind), e.Amount)
		}
	}
}

func linkApplies(id string, link *ReferralLink) bool {
	return link != nil && link.ReferrerID != "" && link.ReferrerID != id
}
