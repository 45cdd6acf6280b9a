package http

import (
	"github.com/fasthttp/router"
	"github.com/rs/zerolog"

	"github.com/Conte777/telegram-files/pkg/httputil"
)

// Router registers account-related HTTP routes
type Router struct {
	handler *Handler
	health  *HealthHandler
	logger  zerolog.Logger
}

// NewRouter creates a new account router
func NewRouter(handler *Handler, health *HealthHandler, logger zerolog.Logger) *Router {
	return &Router{
		handler: handler,
		health:  health,
		logger:  logger,
	}
}

// RegisterRoutes registers the health check on the root router and the
// account routes on the API group
func (r *Router) RegisterRoutes(rt *router.Router, api *httputil.MiddlewareGroup) {
	rt.GET("/health", r.health.Handle)

	api.GET("/accounts", r.handler.ListAccounts)
	api.POST("/accounts", r.handler.CreateAccount)
	api.GET("/accounts/{id}", r.handler.GetAccount)
	api.DELETE("/accounts/{id}", r.handler.DeleteAccount)

	accounts := api.Group("/accounts/{id}")
	accounts.POST("/bind", r.handler.BindSession)
	accounts.GET("/chats", r.handler.GetChats)
	accounts.GET("/chats/{chatId}/files", r.handler.GetChatFiles)
	accounts.GET("/chats/{chatId}/files/count", r.handler.GetChatFilesCount)
	accounts.POST("/chats/{chatId}/auto-download", r.handler.ToggleAutoDownload)
	accounts.GET("/chats/{chatId}/messages/{messageId}/preview", r.handler.LoadPreview)
	accounts.POST("/files/start", r.handler.StartDownload)
	accounts.POST("/files/{fileId}/cancel", r.handler.CancelDownload)
	accounts.POST("/files/{fileId}/pause", r.handler.PauseDownload)
	accounts.POST("/files/{fileId}/resume", r.handler.ResumeDownload)
	accounts.GET("/statistics", r.handler.DownloadStatistics)
	accounts.POST("/methods/{method}", r.handler.RunMethod)

	r.logger.Info().Msg("Account routes registered")
}
