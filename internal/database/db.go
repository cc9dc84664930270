package database

import (
	"fmt"
	"log/slog"
	"time"

	"lpotracker/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const slowQueryThreshold = 200 * time.Millisecond

// Models lists every table owned by the service, in dependency order
var Models = []any{
	&model.User{},
	&model.Product{},
	&model.Supplier{},
	&model.Requisition{},
	&model.RequisitionItem{},
	&model.LPO{},
	&model.LPOLine{},
}

// NewGormLogger routes gorm's slow-query and error output through slog.
func NewGormLogger(handler slog.Handler) logger.Interface {
	return logger.New(
		slog.NewLogLogger(handler, slog.LevelWarn),
		logger.Config{
			SlowThreshold:             slowQueryThreshold,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string, log *slog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: NewGormLogger(log.Handler()),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}

// Migrate creates or updates the schema, including the unique index that
// allows one LPO per requisition.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}
