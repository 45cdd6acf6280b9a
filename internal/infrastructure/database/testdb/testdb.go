// Package testdb opens throwaway migrated databases for repository tests.
package testdb

import (
	"testing"

	"github.com/Conte777/telegram-files/config"
	"github.com/Conte777/telegram-files/internal/infrastructure/database"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NewSQLite returns an in-memory SQLite database with all migrations applied.
// It is closed when the test ends.
func NewSQLite(t testing.TB) *gorm.DB {
	t.Helper()

	cfg := &config.DatabaseConfig{
		Driver:     config.DriverSQLite,
		DBName:     "test",
		SQLitePath: "file:" + uuid.NewString() + "?mode=memory&cache=shared",
	}

	db, err := database.OpenMigrated(cfg)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}
