package ledger

import (
	"context"
	"sort"
	"sync"

	"github.com/clawearning/backend/internal/apperrors"
	"github.com/clawearning/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// MemoryStore keeps accounts in process memory. Each account has its own
// mutex held for the whole of an Update, so updates to one account are
// serialized while different accounts proceed in parallel.
type MemoryStore struct {
	clock clockwork.Clock

	mu          sync.Mutex
	accounts    map[string]*models.Account
	locks       map[string]*sync.Mutex
	entries     map[string][]models.LedgerEntry
	referrals   map[string]models.Referral
	withdrawals map[string][]models.Withdrawal
}

// NewMemoryStore creates an empty store
func NewMemoryStore(clock clockwork.Clock) *MemoryStore {
	return &MemoryStore{
		clock:       clock,
		accounts:    make(map[string]*models.Account),
		locks:       make(map[string]*sync.Mutex),
		entries:     make(map[string][]models.LedgerEntry),
		referrals:   make(map[string]models.Referral),
		withdrawals: make(map[string][]models.Withdrawal),
	}
}

func (s *MemoryStore) lockFor(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

func (s *MemoryStore) lookup(id string) (*models.Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	return a, ok
}

// Get returns a copy of the account
func (s *MemoryStore) Get(ctx context.Context, id string) (*models.Account, error) {
	a, ok := s.lookup(id)
	if !ok {
		return nil, apperrors.ErrAccountNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return a.Clone(), nil
}

// Update applies fn to a copy of the account and swaps it in on success
func (s *MemoryStore) Update(ctx context.Context, id string, fn UpdateFunc) (*models.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Storage(err)
	}

	l := s.lockFor(id)
	l.Lock()
	defer l.Unlock()

	current, ok := s.lookup(id)
	if !ok {
		return nil, apperrors.ErrAccountNotFound
	}

	s.mu.Lock()
	working := current.Clone()
	s.mu.Unlock()

	change := NewChange(working)
	if err := fn(change); err != nil {
		return nil, err
	}

	s.commit(change)
	recordEntries(change)
	return working.Clone(), nil
}

// Create inserts a new account. Locks are taken in id order so two
// concurrent creations naming each other cannot deadlock.
func (s *MemoryStore) Create(ctx context.Context, id string, init UpdateFunc, link *ReferralLink) (*CreateResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Storage(err)
	}

	ids := []string{id}
	if linkApplies(id, link) {
		ids = append(ids, link.ReferrerID)
		sort.Strings(ids)
	}
	for _, lockID := range ids {
		l := s.lockFor(lockID)
		l.Lock()
		defer l.Unlock()
	}

	if existing, ok := s.lookup(id); ok {
		s.mu.Lock()
		defer s.mu.Unlock()
		return &CreateResult{Account: existing.Clone()}, nil
	}

	account := models.NewAccount(id)
	account.CreatedAt = s.clock.Now()
	change := NewChange(account)
	if init != nil {
		if err := init(change); err != nil {
			return nil, err
		}
	}

	var referrerChange *Change
	if linkApplies(id, link) {
		if referrer, ok := s.lookup(link.ReferrerID); ok {
			s.mu.Lock()
			working := referrer.Clone()
			s.mu.Unlock()

			referrerChange = NewChange(working)
			if err := link.Apply(referrerChange); err != nil {
				return nil, err
			}
			referrerID := link.ReferrerID
			account.ReferrerID = &referrerID
		}
	}

	s.commit(change)
	result := &CreateResult{Account: account.Clone(), Created: true}
	if referrerChange != nil {
		s.commit(referrerChange)
		s.mu.Lock()
		s.referrals[id] = models.Referral{
			Base:         models.Base{ID: uuid.New(), CreatedAt: s.clock.Now()},
			ReferrerID:   link.ReferrerID,
			ReferredID:   id,
			RewardAmount: referrerChange.Credited(),
		}
		s.mu.Unlock()
		result.Referrer = referrerChange.Account.Clone()
	}
	recordEntries(change, referrerChange)
	return result, nil
}

func (s *MemoryStore) commit(c *Change) {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	c.Account.UpdatedAt = now
	s.accounts[c.Account.ID] = c.Account.Clone()
	for _, e := range c.entries {
		e.ID = uuid.New()
		e.CreatedAt = now
		s.entries[c.Account.ID] = append(s.entries[c.Account.ID], e)
	}
	for _, w := range c.withdrawals {
		w.ID = uuid.New()
		w.CreatedAt = now
		s.withdrawals[c.Account.ID] = append(s.withdrawals[c.Account.ID], w)
	}
}

// Leaderboard returns the top accounts by lifetime earnings
func (s *MemoryStore) Leaderboard(ctx context.Context, limit int) ([]models.Account, error) {
	s.mu.Lock()
	all := make([]models.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		all = append(all, *a.Clone())
	}
	s.mu.Unlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].TotalEarnings != all[j].TotalEarnings {
			return all[i].TotalEarnings > all[j].TotalEarnings
		}
		return all[i].ID < all[j].ID
	})
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// AccountIDs lists every account id
func (s *MemoryStore) AccountIDs(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	ids := make([]string, 0, len(s.accounts))
	for id := range s.accounts {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	sort.Strings(ids)
	return ids, nil
}

// History returns up to limit entries, newest first
func (s *MemoryStore) History(ctx context.Context, id string, limit int) ([]models.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[id]; !ok {
		return nil, apperrors.ErrAccountNotFound
	}

	entries := s.entries[id]
	out := make([]models.LedgerEntry, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		out = append(out, entries[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Withdrawals returns the withdrawal records of an account in creation order
func (s *MemoryStore) Withdrawals(id string) []models.Withdrawal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Withdrawal(nil), s.withdrawals[id]...)
}

// Referral returns the referral row for a referred account
func (s *MemoryStore) Referral(referredID string) (models.Referral, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.referrals[referredID]
	return r, ok
}

// Ping always succeeds
func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}
