package main

import (
	"context"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/Conte777/telegram-files/config"
	"github.com/Conte777/telegram-files/internal/app"
	accountdeps "github.com/Conte777/telegram-files/internal/domain/account/deps"
)

func main() {
	fx.New(
		app.CreateApp(),
		fx.Invoke(run),
	).Run()
}

func run(
	lc fx.Lifecycle,
	cfg *config.Config,
	manager accountdeps.AccountManager,
	logger zerolog.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			active, total := manager.Counts()
			logger.Info().
				Str("service", cfg.Service.Name).
				Str("port", cfg.Service.Port).
				Str("data_dir", cfg.Telegram.DataDir).
				Int("active_accounts", active).
				Int("total_accounts", total).
				Msg("Telegram files service started")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info().Msg("Telegram files service stopped")
			return nil
		},
	})
}
