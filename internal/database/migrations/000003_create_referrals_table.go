package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func createReferralsTableMigration() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000003_create_referrals_table",
		Migrate: func(tx *gorm.DB) error {
			// one row per referred account keeps referral credit idempotent
			return tx.Exec(`
				CREATE TABLE IF NOT EXISTS referrals (
					id UUID PRIMARY KEY,
					referrer_id VARCHAR(64) NOT NULL REFERENCES accounts(id),
					referred_id VARCHAR(64) NOT NULL UNIQUE REFERENCES accounts(id),
					reward_amount BIGINT NOT NULL DEFAULT 0,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					CHECK (referrer_id <> referred_id)
				);

				CREATE INDEX IF NOT EXISTS idx_referrals_referrer_id ON referrals(referrer_id);
			`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec("DROP TABLE IF EXISTS referrals").Error
		},
	}
}

func init() {
	migrationsList = append(migrationsList, createReferralsTableMigration())
}
