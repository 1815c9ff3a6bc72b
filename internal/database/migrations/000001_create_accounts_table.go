package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func createAccountsTableMigration() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000001_create_accounts_table",
		Migrate: func(tx *gorm.DB) error {
			return tx.Exec(`
				CREATE TABLE IF NOT EXISTS accounts (
					id VARCHAR(64) PRIMARY KEY,
					balance BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
					total_earnings BIGINT NOT NULL DEFAULT 0,
					ads_watched_today INTEGER NOT NULL DEFAULT 0,
					last_ad_date VARCHAR(10),
					daily_spins_used INTEGER NOT NULL DEFAULT 0,
					extra_spins_purchased INTEGER NOT NULL DEFAULT 0,
					last_spin_date VARCHAR(10),
					last_bonus_date VARCHAR(10),
					streak_days INTEGER NOT NULL DEFAULT 0,
					referral_count INTEGER NOT NULL DEFAULT 0,
					referrer_id VARCHAR(64) REFERENCES accounts(id),
					withdrawal_count INTEGER NOT NULL DEFAULT 0,
					has_withdrawn_before BOOLEAN NOT NULL DEFAULT FALSE,
					payout_destination VARCHAR(255),
					tier VARCHAR(16) NOT NULL DEFAULT 'Bronze',
					achievements JSONB NOT NULL DEFAULT '[]',
					total_ads_watched INTEGER NOT NULL DEFAULT 0,
					total_spins INTEGER NOT NULL DEFAULT 0,
					quizzes_completed INTEGER NOT NULL DEFAULT 0,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
				);

				CREATE INDEX IF NOT EXISTS idx_accounts_total_earnings ON accounts(total_earnings DESC, id);
				CREATE INDEX IF NOT EXISTS idx_accounts_referrer_id ON accounts(referrer_id);
			`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec("DROP TABLE IF EXISTS accounts").Error
		},
	}
}

func init() {
	migrationsList = append(migrationsList, createAccountsTableMigration())
}
