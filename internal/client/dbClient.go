package client

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"cloudcart-storefront/internal/config"
	"cloudcart-storefront/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDatabase(cfg config.Database) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "mysql":
		dialector = mysql.Open(cfg.URL)
	case "sqlite", "":
		dialector = sqlite.Open(cfg.URL)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         newGormLogger(os.Stdout),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	if cfg.Driver == "mysql" {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(50)
		sqlDB.SetConnMaxLifetime(time.Hour)
	} else {
		// sqlite serialises writers anyway
		sqlDB.SetMaxOpenConns(1)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// newGormLogger reports slow queries and real failures. Lookups that find nothing are
// ordinary control flow here and stay out of the log.
func newGormLogger(w io.Writer) logger.Interface {
	return logger.New(log.New(w, "\r\n", log.LstdFlags), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Order{},
		&model.OrderItem{},
		&model.IdempotencyRecord{},
		&model.Capture{},
		&model.Category{},
		&model.Product{},
		&model.Variant{},
		&model.ImageOverride{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
