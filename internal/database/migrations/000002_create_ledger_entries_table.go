package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func createLedgerEntriesTableMigration() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000002_create_ledger_entries_table",
		Migrate: func(tx *gorm.DB) error {
			return tx.Exec(`
				CREATE TABLE IF NOT EXISTS ledger_entries (
					id UUID PRIMARY KEY,
					account_id VARCHAR(64) NOT NULL REFERENCES accounts(id),
					kind VARCHAR(32) NOT NULL,
					amount BIGINT NOT NULL,
					balance_before BIGINT NOT NULL,
					balance_after BIGINT NOT NULL,
					source VARCHAR(100),
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
				);

				CREATE INDEX IF NOT EXISTS idx_ledger_entries_account_created ON ledger_entries(account_id, created_at DESC);
			`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec("DROP TABLE IF EXISTS ledger_entries").Error
		},
	}
}

func init() {
	migrationsList = append(migrationsList, createLedgerEntriesTableMigration())
}
