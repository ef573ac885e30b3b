package db

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ppmimesir/wisuda/internal/models"
)

// Open connects to the configured driver and migrates the schema.
func Open(driver, dsn string, log *zap.SugaredLogger) (*gorm.DB, error) {
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}

	var (
		conn *gorm.DB
		err  error
	)
	switch driver {
	case "sqlite":
		conn, err = gorm.Open(sqlite.Open(dsn), cfg)
	case "postgres":
		conn, err = gorm.Open(postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		}), cfg)
	default:
		return nil, fmt.Errorf("unknown db driver %q", driver)
	}
	if err != nil {
		return nil, err
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	if driver == "sqlite" {
		// SQLite works best with a single writer; cap the pool accordingly.
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
	} else {
		sqlDB.SetMaxOpenConns(20)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	if err := Migrate(conn); err != nil {
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}
	log.Infow("database ready", "driver", driver)
	return conn, nil
}

// Migrate creates or updates all tables plus the composite indexes gorm
// doesn't derive from struct tags.
func Migrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(
		&models.Registrant{},
		&models.RegistrationSettings{},
		&models.Media{},
		&models.Counter{},
		&models.GoogleToken{},
		&models.GoogleSheet{},
	); err != nil {
		return err
	}

	for _, stmt := range []string{
		"CREATE INDEX IF NOT EXISTS idx_registrants_type_created ON registrants(registrant_type, created_at)",
		"CREATE INDEX IF NOT EXISTS idx_registrants_name ON registrants(name)",
		// partial so legacy rows without a reg_id do not collide
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_registrants_reg_id ON registrants(reg_id) WHERE reg_id <> ''",
	} {
		if err := conn.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
