package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// New opens the relational mirror database. The sqlite driver is the default
// and stores the mirror in a single local file; "mysql" selects a shared
// server instead.
func New(ctx context.Context, driver, path, mysqlDSN string) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)

	switch driver {
	case "", "sqlite":
		if dir := filepath.Dir(path); dir != "." {
			if mkErr := os.MkdirAll(dir, 0o755); mkErr != nil {
				return nil, fmt.Errorf("create database directory failed: %w", mkErr)
			}
		}
		db, err = gorm.Open(sqlite.Open(path), &gorm.Config{})
	case "mysql":
		db, err = gorm.Open(mysql.Open(mysqlDSN), &gorm.Config{})
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s failed: %w", driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db failed: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(1 * time.Hour)
	sqlDB.SetConnMaxIdleTime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("ping database failed: %w", err)
	}

	return db, nil
}
