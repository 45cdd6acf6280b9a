package http

import (
	"context"

	"github.com/Conte777/telegram-files/config"
	"github.com/Conte777/telegram-files/internal/infrastructure/http/server"
	pkgerrors "github.com/Conte777/telegram-files/pkg/errors"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// Module provides HTTP server and the shared error mapper for fx DI
var Module = fx.Module("http",
	fx.Provide(
		NewServerFx,
		pkgerrors.NewMapper,
	),
)

// NewServerFx creates HTTP server with lifecycle hooks for fx DI
func NewServerFx(
	lc fx.Lifecycle,
	serviceCfg *config.ServiceConfig,
	logger zerolog.Logger,
) *server.Server {
	srv := server.NewServer(serviceCfg.Name, serviceCfg.Port, logger.With().Str("component", "http").Logger())

	srv.RegisterMetrics()

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return srv.Start()
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})

	return srv
}
