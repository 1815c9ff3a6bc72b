package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func createWithdrawalsTableMigration() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000004_create_withdrawals_table",
		Migrate: func(tx *gorm.DB) error {
			return tx.Exec(`
				CREATE TABLE IF NOT EXISTS withdrawals (
					id UUID PRIMARY KEY,
					account_id VARCHAR(64) NOT NULL REFERENCES accounts(id),
					amount BIGINT NOT NULL CHECK (amount > 0),
					destination VARCHAR(255) NOT NULL,
					status VARCHAR(20) NOT NULL DEFAULT 'requested',
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
				);

				CREATE INDEX IF NOT EXISTS idx_withdrawals_account_id ON withdrawals(account_id);
				CREATE INDEX IF NOT EXISTS idx_withdrawals_status ON withdrawals(status);
			`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec("DROP TABLE IF EXISTS withdrawals").Error
		},
	}
}

func init() {
	migrationsList = append(migrationsList, createWithdrawalsTableMigration())
}
