package settings

import (
	"go.uber.org/fx"

	settingshttp "github.com/Conte777/telegram-files/internal/domain/settings/delivery/http"
	"github.com/Conte777/telegram-files/internal/domain/settings/deps"
	"github.com/Conte777/telegram-files/internal/domain/settings/repository/postgres"
	"github.com/Conte777/telegram-files/internal/domain/settings/usecase/business"
	"github.com/Conte777/telegram-files/internal/infrastructure/http/server"
)

// Module provides settings components for fx DI
var Module = fx.Module("settings",
	fx.Provide(
		postgres.NewRepository,
		fx.Annotate(business.NewUseCase, fx.As(new(deps.SettingsService))),
		settingshttp.NewHandler,
		settingshttp.NewRouter,
	),
	fx.Invoke(registerRoutes),
)

func registerRoutes(srv *server.Server, router *settingshttp.Router) {
	router.RegisterRoutes(srv.API)
}
