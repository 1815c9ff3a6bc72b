package ledger

import (
	"github.com/clawearning/backend/internal/apperrors"
	"github.com/clawearning/backend/internal/models"
)

// Change is the mutable view of one account inside a store transaction.
// Balance movements must go through Credit and Debit so every movement
// leaves a ledger entry.
type Change struct {
	Account *models.Account

	entries     []models.LedgerEntry
	withdrawals []models.Withdrawal
}

// UpdateFunc mutates an account inside a transaction. Returning an error
// discards every change. It may run more than once when a transaction is
// retried, so it must not accumulate state across calls.
type UpdateFunc func(c *Change) error

// NewChange wraps account for mutation
func NewChange(account *models.Account) *Change {
	return &Change{Account: account}
}

// Credit adds amount to balance and lifetime earnings. Non-positive amounts are ignored.
func (c *Change) Credit(kind models.EntryKind, amount int64, source string) {
	if amount <= 0 {
		return
	}
	before := c.Account.Balance
	c.Account.Balance += amount
	c.Account.TotalEarnings += amount
	c.record(kind, amount, before, source)
}

// Debit removes amount from balance. Lifetime earnings are untouched.
func (c *Change) Debit(kind models.EntryKind, amount int64, source string) error {
	if amount <= 0 {
		return apperrors.Validation("debit amount must be positive, got %d", amount)
	}
	if c.Account.Balance < amount {
		return apperrors.ErrInsufficientBalance
	}
	before := c.Account.Balance
	c.Account.Balance -= amount
	c.record(kind, -amount, before, source)
	return nil
}

// RecordWithdrawal queues a withdrawal record to be written with the account
func (c *Change) RecordWithdrawal(amount int64, destination string) {
	c.withdrawals = append(c.withdrawals, models.Withdrawal{
		AccountID:   c.Account.ID,
		Amount:      amount,
		Destination: destination,
		Status:      models.WithdrawalRequested,
	})
}

// Entries returns the ledger entries recorded so far
func (c *Change) Entries() []models.LedgerEntry {
	return c.entries
}

// Withdrawals returns the withdrawal records recorded so far
func (c *Change) Withdrawals() []models.Withdrawal {
	return c.withdrawals
}

// Credited sums the positive movements recorded so far
func (c *Change) Credited() int64 {
	var total int64
	for _, e := range c.entries {
		if e.Amount > 0 {
			total += e.Amount
		}
	}
	return total
}

func (c *Change) record(kind models.EntryKind, amount, before int64, source string) {
	c.entries = append(c.entries, models.LedgerEntry{
		AccountID:     c.Account.ID,
		Kind:          kind,
		Amount:        amount,
		BalanceBefore: before,
		BalanceAfter:  c.Account.Balance,
		Source:        source,
	})
}
