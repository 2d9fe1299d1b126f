// Package database opens the relational store and runs units of work against it.
package database

import (
	"errors"
	"fmt"
	"time"

	"estatehub/cmd/internal/domain/entity"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	Debug           bool
}

// partialIndexes back invariants gorm tags cannot express. Both dialects accept them.
var partialIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_auctions_active_property ON auctions (property_id) WHERE status = 'active'`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_payment_instruments_verified_user ON payment_instruments (user_id) WHERE verified`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_agent_availability_booking ON agent_availability (agent_id, date, start_time) WHERE appointment_id IS NOT NULL`,
}

func Open(cfg Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case DriverSQLite, "":
		dialector = sqlite.Open(cfg.DSN)
	case DriverPostgres:
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("database: unsupported driver %q", cfg.Driver)
	}

	// TranslateError maps unique violations of both dialects to gorm.ErrDuplicatedKey.
	gormCfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent), TranslateError: true}
	if cfg.Debug {
		gormCfg.Logger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("database: open: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database: pool: %w", err)
	}

	// SQLite serialises writers anyway; a single connection also keeps
	// in-memory databases alive for the life of the process.
	if cfg.Driver == DriverPostgres {
		sqlDB.SetMaxOpenConns(max(cfg.MaxOpenConns, 1))
		sqlDB.SetMaxIdleConns(max(cfg.MaxIdleConns, 1))
	} else {
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(entity.All()...); err != nil {
		return fmt.Errorf("database: migrate: %w", err)
	}
	for _, stmt := range partialIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("database: create index: %w", err)
		}
	}
	return nil
}

// Ping checks the underlying connection pool.
func Ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	if sqlDB == nil {
		return errors.New("database: no connection pool")
	}
	return sqlDB.Ping()
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
