package main

import (
	"flag"

	"github.com/clawearning/backend/internal/config"
	"github.com/clawearning/backend/internal/database"
	"github.com/clawearning/backend/internal/database/migrations"
	"github.com/clawearning/backend/internal/logging"
)

func main() {
	rollback := flag.Bool("rollback", false, "roll back the most recent migration")
	flag.Parse()

	cfg := config.LoadConfig()
	log := logging.New(cfg.Environment, cfg.LogLevel)

	// InitDB applies pending migrations on connect
	db, err := database.InitDB(cfg.Database, cfg.IsProduction(), log)
	if err != nil {
		log.WithError(err).Fatal("Failed to migrate database")
	}
	defer database.Close(db)

	if *rollback {
		if err := migrations.RollbackLast(db, log); err != nil {
			log.WithError(err).Fatal("Failed to roll back migration")
		}
	}
}
