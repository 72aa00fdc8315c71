package config

import (
	"errors"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/yoockh/callassist/internal/models"
)

// PostgresDB only backs lexicon snapshots, so the pool stays small.
var PostgresDB *gorm.DB

func InitPostgres(uri string) error {
	if uri == "" {
		return errors.New("POSTGRES_URI is not set")
	}
	db, err := gorm.Open(postgres.Open(uri), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetMaxOpenConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.AutoMigrate(&models.LexiconSnapshot{}); err != nil {
		return err
	}

	PostgresDB = db
	return nil
}
