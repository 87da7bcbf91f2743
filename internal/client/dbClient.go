package client

import (
	"fmt"
	"order-intake/internal/config"
	"order-intake/internal/model"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// InitDatabase opens the delivery audit store and migrates its schema.
func InitDatabase(dbCfg *config.Database) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch dbCfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(dbCfg.URL)
	case "mysql":
		dialector = mysql.Open(dbCfg.URL)
	default:
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q", dbCfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&model.NotificationDelivery{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}
