package repository

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"magit/config"
	"magit/domain"
	"magit/logger"
)

// Open connects to Postgres when a DSN is configured and to a local SQLite
// file otherwise, then runs migrations if enabled.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	target := cfg.SQLitePath
	if cfg.DSN != "" {
		dialector = postgres.Open(cfg.DSN)
		target = "postgres"
	} else {
		dialector = sqlite.Open(cfg.SQLitePath)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		logger.Error().Err(err).Str("target", target).Msg("failed to connect database")
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	logger.Info().Str("target", target).Msg("database connected")

	if cfg.AutoMigrate {
		if err := Migrate(db); err != nil {
			return nil, err
		}
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	entities := []any{
		&domain.Property{},
		&domain.FinancingRequest{},
		&domain.VisitRequest{},
	}
	for _, entity := range entities {
		if err := db.AutoMigrate(entity); err != nil {
			logger.Error().Err(err).Str("entity", fmt.Sprintf("%T", entity)).Msg("migration failed")
			return err
		}
	}
	logger.Info().Int("entities", len(entities)).Msg("migrations applied")
	return nil
}
