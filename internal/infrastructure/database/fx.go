package database

import (
	"context"

	"github.com/Conte777/telegram-files/config"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// Module provides database components for fx dependency injection
var Module = fx.Module("database",
	fx.Provide(NewDBFx),
)

// NewDBFx creates the database connection with fx lifecycle management
func NewDBFx(
	lc fx.Lifecycle,
	cfg *config.DatabaseConfig,
	logger zerolog.Logger,
) (*gorm.DB, error) {
	db, err := OpenMigrated(cfg)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("driver", cfg.Driver).Msg("Database migrations completed successfully")

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Info().Msg("Closing database connection")
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})

	event := logger.Info().Str("driver", cfg.Driver)
	if cfg.Driver == config.DriverPostgres {
		event = event.Str("host", cfg.Host).Str("port", cfg.Port).Str("database", cfg.DBName)
	} else {
		event = event.Str("path", cfg.SQLitePath)
	}
	event.Msg("Database connected successfully")

	return db, nil
}
