// Seed loads the fixed development dataset. It wipes every table first,
// so never point it at a production database.
package main

import (
	"hoarding-service/internal/seed"
	"hoarding-service/pkg/config"
	"hoarding-service/pkg/database"
	"hoarding-service/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logger.InitLogger(cfg)
	log := logger.GetLogger()
	log.Info("Seeding development data...", zap.String("db_name", cfg.DB.DBName))

	if err := database.InitDB(cfg); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}

	if err := seed.Run(database.GetDB(), cfg.Upload.Path, log); err != nil {
		log.Fatal("Seeding failed", zap.Error(err))
	}
}
