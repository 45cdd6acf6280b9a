package http

import (
	"github.com/rs/zerolog"

	"github.com/Conte777/telegram-files/pkg/httputil"
)

// Router registers settings HTTP routes
type Router struct {
	handler *Handler
	logger  zerolog.Logger
}

// NewRouter creates a new settings router
func NewRouter(handler *Handler, logger zerolog.Logger) *Router {
	return &Router{
		handler: handler,
		logger:  logger,
	}
}

// RegisterRoutes registers settings routes on the API group
func (r *Router) RegisterRoutes(api *httputil.MiddlewareGroup) {
	api.GET("/settings", r.handler.GetSettings)
	api.PUT("/settings", r.handler.UpdateSettings)

	r.logger.Info().Msg("Settings routes registered")
}
