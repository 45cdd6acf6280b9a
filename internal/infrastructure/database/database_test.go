package database_test

import (
	"testing"

	"github.com/Conte777/telegram-files/config"
	"github.com/Conte777/telegram-files/internal/infrastructure/database"
	"github.com/Conte777/telegram-files/internal/infrastructure/database/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations_CreateTables(t *testing.T) {
	db := testdb.NewSQLite(t)

	for _, table := range []string{"accounts", "file_record", "setting_record"} {
		assert.True(t, db.Migrator().HasTable(table), "table %s", table)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	db := testdb.NewSQLite(t)

	require.NoError(t, db.Exec("INSERT INTO setting_record (key, value) VALUES ('uniqueOnly', 'true')").Error)
	err := db.Exec("INSERT INTO setting_record (key, value) VALUES ('uniqueOnly', 'false')").Error

	require.Error(t, err)
	assert.True(t, database.IsUniqueViolation(err))
	assert.False(t, database.IsUniqueViolation(assert.AnError))
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := database.Open(&config.DatabaseConfig{Driver: "mysql"})
	assert.Error(t, err)
}
