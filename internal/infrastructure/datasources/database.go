package datasources

import (
	"fmt"

	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"p2p-ramp.backend/internal/config"
	"p2p-ramp.backend/internal/infrastructure/datasources/postgres"
)

var openPostgres = postgres.NewConnection

// Open returns the gorm handle for the configured driver. SQLite runs on a
// single connection so its writers serialize like Postgres row locks.
func Open(cfg config.DatabaseConfig, env string) (*gorm.DB, error) {
	gormCfg := &gorm.Config{TranslateError: true}
	if env != "development" {
		gormCfg.Logger = gormlogger.Default.LogMode(gormlogger.Silent)
	}

	if cfg.IsSQLite() {
		db, err := gorm.Open(sqlite.Open(cfg.SQLitePath+"?_foreign_keys=on&_busy_timeout=5000"), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
		return db, nil
	}

	sqlDB, err := openPostgres(cfg)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: sqlDB}), gormCfg)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}
	return db, nil
}
