package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// migrationsList holds all migrations in the order they are registered
var migrationsList []*gormigrate.Migration

// All returns the registered migrations
func All() []*gormigrate.Migration {
	return migrationsList
}

// RunMigrations applies every pending migration
func RunMigrations(db *gorm.DB, log logrus.FieldLogger) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, migrationsList)

	if err := m.Migrate(); err != nil {
		log.WithError(err).Error("Could not migrate")
		return err
	}
	log.WithField("count", len(migrationsList)).Info("Migrations ran successfully")
	return nil
}

// RollbackLast reverts the most recent migration
func RollbackLast(db *gorm.DB, log logrus.FieldLogger) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, migrationsList)

	if err := m.RollbackLast(); err != nil {
		log.WithError(err).Error("Could not roll back")
		return err
	}
	log.Info("Rolled back last migration")
	return nil
}
