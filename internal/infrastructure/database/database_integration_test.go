package database_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/Conte777/telegram-files/config"
	"github.com/Conte777/telegram-files/internal/infrastructure/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestMigrations_Postgres_Integration(t *testing.T) {
	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("set TEST_INTEGRATION=1 to run postgres integration tests")
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("telegram_files"),
		tcpostgres.WithUsername("files_user"),
		tcpostgres.WithPassword("files_pass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	cfg := &config.DatabaseConfig{
		Driver:   config.DriverPostgres,
		Host:     host,
		Port:     port.Port(),
		User:     "files_user",
		Password: "files_pass",
		DBName:   "telegram_files",
		SSLMode:  "disable",
	}

	db, err := database.OpenMigrated(cfg)
	require.NoError(t, err)

	for _, table := range []string{"accounts", "file_record", "setting_record"} {
		assert.True(t, db.Migrator().HasTable(table), "table %s", table)
	}

	require.NoError(t, db.Exec("INSERT INTO accounts (id, root_path) VALUES (1, '/a')").Error)
	err = db.Exec("INSERT INTO accounts (id, root_path) VALUES (1, '/b')").Error
	assert.True(t, database.IsUniqueViolation(err))

	// second run is a no-op
	_, err = database.OpenMigrated(cfg)
	assert.NoError(t, err)
}
