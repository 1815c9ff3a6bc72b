package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/clawearning/backend/internal/apperrors"
	"github.com/clawearning/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore persists accounts in Postgres. Updates lock the account row
// with SELECT ... FOR UPDATE for the lifetime of the transaction.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a store over db
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Get returns the account row
func (s *GormStore) Get(ctx context.Context, id string) (*models.Account, error) {
	var account models.Account
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, apperrors.Storage(fmt.Errorf("error loading account: %w", err))
	}
	return &account, nil
}

// Update locks the row, applies fn and saves the full snapshot with its entries
func (s *GormStore) Update(ctx context.Context, id string, fn UpdateFunc) (*models.Account, error) {
	var change *Change

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var account models.Account
		if err := lockAccount(tx, id, &account); err != nil {
			return err
		}

		change = NewChange(&account)
		if err := fn(change); err != nil {
			return err
		}

		return saveChange(tx, change)
	})
	if err != nil {
		return nil, apperrors.Storage(err)
	}

	recordEntries(change)
	return change.Account, nil
}

// Create inserts the account and, when a referrer exists, updates it and
// writes the referral row in the same transaction.
func (s *GormStore) Create(ctx context.Context, id string, init UpdateFunc, link *ReferralLink) (*CreateResult, error) {
	var (
		result         *CreateResult
		change         *Change
		referrerChange *Change
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result, change, referrerChange = nil, nil, nil

		var existing models.Account
		err := tx.Where("id = ?", id).Take(&existing).Error
		if err == nil {
			result = &CreateResult{Account: &existing}
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("error checking account: %w", err)
		}

		account := models.NewAccount(id)
		change = NewChange(account)
		if init != nil {
			if err := init(change); err != nil {
				return err
			}
		}

		if linkApplies(id, link) {
			var referrer models.Account
			err := lockAccount(tx, link.ReferrerID, &referrer)
			switch {
			case err == nil:
				referrerChange = NewChange(&referrer)
				if err := link.Apply(referrerChange); err != nil {
					return err
				}
				referrerID := link.ReferrerID
				account.ReferrerID = &referrerID
			case errors.Is(err, apperrors.ErrAccountNotFound):
				// unknown referrers are ignored
			default:
				return err
			}
		}

		inserted := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(account)
		if inserted.Error != nil {
			return fmt.Errorf("error creating account: %w", inserted.Error)
		}
		if inserted.RowsAffected == 0 {
			// lost a race with a concurrent creation of the same id
			var winner models.Account
			if err := tx.Where("id = ?", id).Take(&winner).Error; err != nil {
				return fmt.Errorf("error loading account: %w", err)
			}
			result = &CreateResult{Account: &winner}
			change, referrerChange = nil, nil
			return nil
		}

		if err := createRecords(tx, change); err != nil {
			return err
		}
		result = &CreateResult{Account: account, Created: true}

		if referrerChange != nil {
			if err := saveChange(tx, referrerChange); err != nil {
				return err
			}
			referral := models.Referral{
				ReferrerID:   link.ReferrerID,
				ReferredID:   id,
				RewardAmount: referrerChange.Credited(),
			}
			if err := tx.Create(&referral).Error; err != nil {
				return fmt.Errorf("error recording referral: %w", err)
			}
			result.Referrer = referrerChange.Account
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Storage(err)
	}

	recordEntries(change, referrerChange)
	return result, nil
}

// Leaderboard returns the top accounts by lifetime earnings
func (s *GormStore) Leaderboard(ctx context.Context, limit int) ([]models.Account, error) {
	var accounts []models.Account
	err := s.db.WithContext(ctx).
		Order("total_earnings DESC").
		Order("id ASC").
		Limit(limit).
		Find(&accounts).Error
	if err != nil {
		return nil, apperrors.Storage(fmt.Errorf("error loading leaderboard: %w", err))
	}
	return accounts, nil
}

// AccountIDs lists every account id
func (s *GormStore) AccountIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&models.Account{}).Order("id ASC").Pluck("id", &ids).Error
	if err != nil {
		return nil, apperrors.Storage(fmt.Errorf("error listing accounts: %w", err))
	}
	return ids, nil
}

// History returns up to limit entries, newest first
func (s *GormStore) History(ctx context.Context, id string, limit int) ([]models.LedgerEntry, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	var entries []models.LedgerEntry
	err := s.db.WithContext(ctx).
		Where("account_id = ?", id).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, apperrors.Storage(fmt.Errorf("error loading history: %w", err))
	}
	return entries, nil
}

// Ping checks the database connection
func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return apperrors.Storage(err)
	}
	return apperrors.Storage(sqlDB.PingContext(ctx))
}

func lockAccount(tx *gorm.DB, id string, account *models.Account) error {
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).Take(account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrAccountNotFound
	}
	if err != nil {
		return fmt.Errorf("error locking account: %w", err)
	}
	return nil
}

func saveChange(tx *gorm.DB, c *Change) error {
	if err := tx.Save(c.Account).Error; err != nil {
		return fmt.Errorf("error saving account: %w", err)
	}
	return createRecords(tx, c)
}

func createRecords(tx *gorm.DB, c *Change) error {
	if len(c.entries) > 0 {
		if err := tx.Create(&c.entries).Error; err != nil {
			return fmt.Errorf("error writing ledger entries: %w", err)
		}
	}
	if len(c.withdrawals) > 0 {
		if err := tx.Create(&c.withdrawals).Error; err != nil {
			return fmt.Errorf("error writing withdrawals: %w", err)
		}
	}
	return nil
}
