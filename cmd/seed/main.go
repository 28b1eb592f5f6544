package main

import (
	"context"
	"time"
	_ "time/tzdata"

	"ecovision-etl/internal/infrastructure/config"
	"ecovision-etl/internal/infrastructure/persistence"
	repo "ecovision-etl/internal/interface/repository"
	"ecovision-etl/internal/usecase"
	"ecovision-etl/pkg/logger"
)

// Inserts the reference sample sightings into the raw table
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.NewLogger().Fatal("Failed to load config", "error", err)
	}

	log := logger.NewLoggerWithLevel(cfg.LogLevel)
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	gormDB, err := persistence.NewGormDB(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		log.Fatal("Failed to connect to record store", "error", err)
	}
	store := repo.NewGormRecordStore(gormDB)
	if err := store.Migrate(ctx); err != nil {
		log.Fatal("Failed to migrate record store", "error", err)
	}

	n, err := store.InsertRaw(ctx, usecase.SampleRawRecords(time.Now().In(cfg.Location())))
	if err != nil {
		log.Fatal("Failed to insert sample records", "error", err)
	}
	log.Info("Inserted sample raw records", "count", n, "driver", cfg.DBDriver)
}
