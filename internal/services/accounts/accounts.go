// Package accounts creates accounts and maintains the referral graph.
package accounts

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/clawearning/backend/internal/apperrors"
	"github.com/clawearning/backend/internal/models"
	"github.com/clawearning/backend/internal/services/ledger"
	"github.com/clawearning/backend/internal/services/notify"
	"github.com/clawearning/backend/internal/services/rewards"
	"github.com/sirupsen/logrus"
)

const maxAccountIDLength = 64

// CreateResult reports what account creation did
type CreateResult struct {
	Account *models.Account
	Created bool
	// ReferralApplied is true when this call credited a referrer
	ReferralApplied bool
}

// Manager owns the account lifecycle
type Manager struct {
	store       ledger.Store
	engine      *rewards.Engine
	publisher   notify.Publisher
	botUsername string
	log         logrus.FieldLogger
}

// NewManager creates a lifecycle manager
func NewManager(store ledger.Store, engine *rewards.Engine, publisher notify.Publisher, botUsername string, log logrus.FieldLogger) *Manager {
	return &Manager{
		store:       store,
		engine:      engine,
		publisher:   publisher,
		botUsername: botUsername,
		log:         log,
	}
}

// ValidateID rejects ids the store cannot key on
func ValidateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return apperrors.Validation("accountId is required")
	}
	if len(id) > maxAccountIDLength {
		return apperrors.Validation("accountId must be at most %d characters", maxAccountIDLength)
	}
	return nil
}

// Create returns the account for id, creating it with the signup bonus on
// first contact. A referrerID naming another existing account is credited
// once; missing, unknown or self referrers are ignored. Repeat calls return
// the existing record and never credit anyone again.
func (m *Manager) Create(ctx context.Context, id, referrerID string) (*CreateResult, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	referrerID = strings.TrimSpace(referrerID)

	var signup, referral rewards.Outcome
	var link *ledger.ReferralLink
	if referrerID != "" && referrerID != id {
		link = &ledger.ReferralLink{
			ReferrerID: referrerID,
			Apply:      m.engine.Bind(m.engine.ReferralCredit(id), &referral),
		}
	}

	result, err := ledger.CreateWithRetry(ctx, m.store, id, m.engine.Bind(m.engine.Signup(), &signup), link)
	if err != nil {
		return nil, err
	}

	out := &CreateResult{Account: result.Account, Created: result.Created}
	if !result.Created {
		return out, nil
	}

	log := m.log.WithField("account_id", id)
	log.Info("Account created")

	notes := notify.Progress(id, signup.Unlocked, signup.PreviousTier, signup.Tier)
	if result.Referrer != nil {
		out.ReferralApplied = true
		log.WithField("referrer_id", referrerID).Info("Referral credited")

		notes = append(notes, notify.ReferralJoined(referrerID, id, referral.Credited))
		notes = append(notes, notify.Progress(referrerID, referral.Unlocked, referral.PreviousTier, referral.Tier)...)
	}
	notify.PublishQuietly(ctx, m.publisher, m.log, notes...)

	return out, nil
}

// Get returns the account snapshot
func (m *Manager) Get(ctx context.Context, id string) (*models.Account, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	return m.store.Get(ctx, id)
}

// ReferralLink returns the bot deep link that credits id as referrer
func (m *Manager) ReferralLink(id string) string {
	return fmt.Sprintf("https://t.me/%s?start=ref=%s", m.botUsername, url.QueryEscape(id))
}
