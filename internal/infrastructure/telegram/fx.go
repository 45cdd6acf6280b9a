package telegram

import (
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/Conte777/telegram-files/config"
	"github.com/Conte777/telegram-files/internal/domain/account/deps"
)

// Module provides the backend client factory for fx DI
var Module = fx.Module("telegram",
	fx.Provide(NewFactoryFx),
)

// NewFactoryFx creates the client factory used by the account manager
func NewFactoryFx(cfg *config.TelegramConfig, logger zerolog.Logger) deps.ClientFactory {
	SetupLogging(logger)

	logger.Info().
		Int("requests_per_second", cfg.RequestsPerSecond).
		Dur("progress_interval", cfg.ProgressInterval).
		Msg("Telegram client factory created")
	return NewFactory(cfg, logger)
}
