package server

import (
	"context"
	"fmt"
	"time"

	"github.com/Conte777/telegram-files/pkg/httputil"
	"github.com/fasthttp/router"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

// APIPrefix is the path prefix of all JSON endpoints
const APIPrefix = "/api/v1"

// Server represents fasthttp server
type Server struct {
	server *fasthttp.Server
	Router *router.Router
	// API is the /api/v1 group with access log and panic recovery
	API    *httputil.MiddlewareGroup
	addr   string
	logger zerolog.Logger
}

// NewServer creates a new fasthttp server
func NewServer(name, port string, logger zerolog.Logger) *Server {
	r := router.New()

	srv := &fasthttp.Server{
		Handler:     r.Handler,
		Name:        name,
		ReadTimeout: 5 * time.Second,
		// event streams stay open, so writes are not bounded here
		WriteTimeout:    0,
		IdleTimeout:     120 * time.Second,
		CloseOnShutdown: true,
	}

	api := httputil.NewMiddlewareGroup(r.Group(APIPrefix)).
		Use(httputil.Recover(logger), httputil.AccessLog(logger))

	return &Server{
		server: srv,
		Router: r,
		API:    api,
		addr:   fmt.Sprintf(":%s", port),
		logger: logger,
	}
}

// RegisterMetrics registers Prometheus metrics endpoint
func (s *Server) RegisterMetrics() {
	prometheusHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	s.Router.GET("/metrics", prometheusHandler)
}

// Handler returns the root request handler
func (s *Server) Handler() fasthttp.RequestHandler {
	return s.Router.Handler
}

// Start starts the HTTP server in a separate goroutine
func (s *Server) Start() error {
	s.logger.Info().
		Str("addr", s.addr).
		Msg("Starting HTTP server")

	go func() {
		if err := s.server.ListenAndServe(s.addr); err != nil {
			s.logger.Error().Err(err).Msg("HTTP server error")
		}
	}()

	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Shutting down HTTP server")

	if err := s.server.ShutdownWithContext(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	s.logger.Info().Msg("HTTP server stopped gracefully")
	return nil
}
