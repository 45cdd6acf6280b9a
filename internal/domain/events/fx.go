package events

import (
	"context"

	"go.uber.org/fx"

	"github.com/Conte777/telegram-files/internal/domain/events/bus"
	eventshttp "github.com/Conte777/telegram-files/internal/domain/events/delivery/http"
	"github.com/Conte777/telegram-files/internal/domain/events/deps"
	"github.com/Conte777/telegram-files/internal/domain/events/publisher"
	"github.com/Conte777/telegram-files/internal/infrastructure/http/server"
)

// Module provides session event delivery for fx DI
var Module = fx.Module("events",
	fx.Provide(
		eventshttp.NewHub,
		func(h *eventshttp.Hub) deps.SessionResolver { return h },
		fx.Annotate(publisher.New, fx.As(new(deps.Publisher))),
		bus.New,
		eventshttp.NewHandler,
		eventshttp.NewRouter,
	),
	fx.Invoke(registerRoutes),
)

// registerRoutes mounts the stream endpoint. The hub hook is appended after
// the server's, so open streams are closed before the server shuts down.
func registerRoutes(lc fx.Lifecycle, srv *server.Server, router *eventshttp.Router, hub *eventshttp.Hub) {
	router.RegisterRoutes(srv.API)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			hub.Close()
			return nil
		},
	})
}
