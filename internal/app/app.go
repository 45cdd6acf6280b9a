package app

import (
	"go.uber.org/fx"

	"github.com/Conte777/telegram-files/config"
	"github.com/Conte777/telegram-files/internal/domain/account"
	"github.com/Conte777/telegram-files/internal/domain/autodownload"
	"github.com/Conte777/telegram-files/internal/domain/events"
	"github.com/Conte777/telegram-files/internal/domain/files"
	"github.com/Conte777/telegram-files/internal/domain/settings"
	"github.com/Conte777/telegram-files/internal/infrastructure"
)

// CreateApp creates the fx application options
func CreateApp() fx.Option {
	return fx.Options(
		fx.Provide(config.Out),
		infrastructure.Module,
		// Domain modules
		events.Module,
		files.Module,
		settings.Module,
		account.Module, // needs files, settings and events
		autodownload.Module,
	)
}
