package database

import (
	"fmt"
	"strings"

	"tourbook/config"
	"tourbook/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens the configured database. Query errors and slow queries are
// logged through log; a nil log uses the logrus standard logger.
func NewDB(cfg *config.DatabaseConfig, log logrus.FieldLogger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "", "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         newGormLogger(log).LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.Driver == "sqlite" {
		// one writer; an in-memory database lives as long as its connection
		sqlDB.SetMaxOpenConns(1)
		return db, nil
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

// AutoMigrate runs Gorm auto-migration for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Tour{},
		&models.Hotel{},
		&models.Room{},
		&models.Flight{},
		&models.Booking{},
		&models.Payment{},
		&models.Notification{},
		&models.AuditLog{},
	)
}

// OpenMemory opens a migrated in-memory SQLite database private to name.
func OpenMemory(name string) (*gorm.DB, error) {
	dsn := "file:" + strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(name) + "?mode=memory&cache=shared"
	db, err := NewDB(&config.DatabaseConfig{Driver: "sqlite", DSN: dsn}, nil)
	if err != nil {
		return nil, err
	}
	if err := AutoMigrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
