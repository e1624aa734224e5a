package config

import (
	"os"
	"time"

	"github.com/yoockh/yootranslate/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// PostgresDB holds the call_records table.
var PostgresDB *gorm.DB

// InitPostgres opens POSTGRES_URI and migrates the call record schema.
func InitPostgres() error {
	dsn := os.Getenv("POSTGRES_URI")
	if dsn == "" {
		return ErrNotConfigured
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Warn),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := db.AutoMigrate(&models.CallRecord{}); err != nil {
		_ = sqlDB.Close()
		return err
	}

	PostgresDB = db
	return nil
}
