package database

import (
	"fmt"
	"time"

	"github.com/pushp314/rental-messaging-backend/internal/config"
	"github.com/pushp314/rental-messaging-backend/internal/models"
	"github.com/pushp314/rental-messaging-backend/pkg/logger"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

// Connect opens the relational store selected by cfg and stores it in DB.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	db, err := Open(cfg.StoreDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	DB = db
	logger.Info().Str("driver", cfg.StoreDriver).Msg("Connected to relational store")
	return db, nil
}

// Open returns a gorm handle for a postgres DSN or a sqlite file/URI.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case config.DriverPostgres:
		dialector = postgres.Open(dsn)
	case config.DriverSQLite:
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("driver %q is not a relational store", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get underlying sql.DB: %w", err)
	}

	if driver == config.DriverSQLite {
		// sqlite serialises writers; one connection also keeps in-memory
		// databases alive for the lifetime of the handle.
		sqlDB.SetMaxOpenConns(1)
		return db, nil
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	return db, nil
}

// AutoMigrate creates or updates the messaging tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Property{},
		&models.Message{},
	)
}
