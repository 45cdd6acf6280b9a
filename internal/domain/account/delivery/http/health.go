package http

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/Conte777/telegram-files/internal/domain/account/deps"
	eventsdeps "github.com/Conte777/telegram-files/internal/domain/events/deps"
	"github.com/Conte777/telegram-files/pkg/httputil"
)

const pingTimeout = 2 * time.Second

// HealthStatus represents the overall health status
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// ComponentHealth represents health status of a single component
type ComponentHealth struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// HealthResponse represents the JSON response for health check
type HealthResponse struct {
	Status     HealthStatus      `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Components []ComponentHealth `json:"components"`
}

// HealthChecker is implemented by components that can report their health
type HealthChecker interface {
	IsHealthy() bool
}

// DatabasePinger checks the database connection
type DatabasePinger func(ctx context.Context) error

// HealthHandler handles HTTP health check requests
type HealthHandler struct {
	manager deps.AccountManager
	ping    DatabasePinger
	broker  eventsdeps.Broker
	logger  zerolog.Logger
}

// HealthHandlerParams defines parameters for HealthHandler with optional dependencies
type HealthHandlerParams struct {
	fx.In

	Manager deps.AccountManager
	DB      *gorm.DB          `optional:"true"`
	Broker  eventsdeps.Broker `optional:"true"`
	Logger  zerolog.Logger
}

// NewHealthHandler creates a new health check handler
func NewHealthHandler(params HealthHandlerParams) *HealthHandler {
	h := &HealthHandler{
		manager: params.Manager,
		broker:  params.Broker,
		logger:  params.Logger.With().Str("handler", "health").Logger(),
	}
	if params.DB != nil {
		h.ping = GormPinger(params.DB)
	}
	return h
}

// GormPinger pings the connection pool behind db
func GormPinger(db *gorm.DB) DatabasePinger {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}

// Handle handles the health check request for fasthttp
func (h *HealthHandler) Handle(ctx *fasthttp.RequestCtx) {
	components := h.checkComponents(ctx)
	status := determineOverallStatus(components)

	response := HealthResponse{
		Status:     status,
		Timestamp:  time.Now().UTC(),
		Components: components,
	}

	logEvent := h.logger.Debug()
	if status == HealthStatusUnhealthy {
		logEvent = h.logger.Warn()
	} else if status == HealthStatusDegraded {
		logEvent = h.logger.Info()
	}
	logEvent.
		Str("status", string(status)).
		Interface("components", components).
		Msg("Health check completed")

	httputil.WriteHealthResponse(ctx, response, status != HealthStatusUnhealthy)
}

func (h *HealthHandler) checkComponents(ctx context.Context) []ComponentHealth {
	components := make([]ComponentHealth, 0, 3)

	active, total := h.manager.Counts()
	components = append(components, ComponentHealth{
		Name:    "accounts",
		Healthy: true,
		Message: fmt.Sprintf("%d of %d accounts authorized", active, total),
	})

	if h.ping != nil {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		err := h.ping(pingCtx)
		cancel()

		db := ComponentHealth{Name: "database", Healthy: err == nil}
		if err != nil {
			db.Message = "Database is not reachable"
		}
		components = append(components, db)
	}

	if checker, ok := h.broker.(HealthChecker); ok {
		healthy := checker.IsHealthy()
		kafka := ComponentHealth{Name: "kafka", Healthy: healthy}
		if !healthy {
			kafka.Message = "Kafka producer is not healthy"
		}
		components = append(components, kafka)
	}

	return components
}

// determineOverallStatus determines overall health status based on component health
func determineOverallStatus(components []ComponentHealth) HealthStatus {
	allHealthy := true
	anyHealthy := false

	for _, component := range components {
		if !component.Healthy {
			allHealthy = false
		} else {
			anyHealthy = true
		}
	}

	if allHealthy {
		return HealthStatusHealthy
	} else if anyHealthy {
		return HealthStatusDegraded
	}

	return HealthStatusUnhealthy
}
