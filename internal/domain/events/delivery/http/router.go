package http

import (
	"github.com/rs/zerolog"

	"github.com/Conte777/telegram-files/pkg/httputil"
)

// Router registers event stream routes
type Router struct {
	handler *Handler
	logger  zerolog.Logger
}

// NewRouter creates a new event stream router
func NewRouter(handler *Handler, logger zerolog.Logger) *Router {
	return &Router{
		handler: handler,
		logger:  logger,
	}
}

// RegisterRoutes registers event routes on the API group
func (r *Router) RegisterRoutes(api *httputil.MiddlewareGroup) {
	api.GET("/events", r.handler.Stream)

	r.logger.Info().Msg("Event stream routes registered")
}
