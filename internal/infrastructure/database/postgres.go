package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/sangkips/sales-api/internal/config"
	"github.com/sangkips/sales-api/internal/domain/entity"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Options tunes the connection opened by Open
type Options struct {
	LogLevel string
	MaxIdle  int
	MaxOpen  int
}

// NewPostgresDB creates a new PostgreSQL database connection
func NewPostgresDB(cfg *config.DatabaseConfig, logLevel string, log *zap.Logger) (*gorm.DB, error) {
	db, err := Open(cfg.DSN(), Options{
		LogLevel: logLevel,
		MaxIdle:  cfg.MaxIdle,
		MaxOpen:  cfg.MaxOpen,
	})
	if err != nil {
		return nil, err
	}

	log.Info("connected to PostgreSQL database",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Name),
	)
	return db, nil
}

// Open connects to dsn. Unique violations surface as gorm.ErrDuplicatedKey.
func Open(dsn string, opts Options) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true, // disables implicit prepared statement usage
	}), &gorm.Config{
		Logger:         logger.Default.LogMode(gormLogLevel(opts.LogLevel)),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if opts.MaxIdle > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdle)
	}
	if opts.MaxOpen > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpen)
	}

	return db, nil
}

func gormLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return logger.Info
	case "info", "warn":
		return logger.Warn
	case "error":
		return logger.Error
	default:
		return logger.Silent
	}
}

// AutoMigrate runs GORM auto-migration for all entities
func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&entity.Sale{},
		&entity.SaleItem{},
		&entity.IdempotencyKey{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Ping checks the database connection
func Ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
