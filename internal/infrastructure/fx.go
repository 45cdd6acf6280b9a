package infrastructure

import (
	"go.uber.org/fx"

	"github.com/Conte777/telegram-files/internal/infrastructure/database"
	httpfx "github.com/Conte777/telegram-files/internal/infrastructure/http"
	"github.com/Conte777/telegram-files/internal/infrastructure/kafka"
	"github.com/Conte777/telegram-files/internal/infrastructure/logger"
	"github.com/Conte777/telegram-files/internal/infrastructure/metrics"
	"github.com/Conte777/telegram-files/internal/infrastructure/s3"
	"github.com/Conte777/telegram-files/internal/infrastructure/telegram"
)

// Module aggregates all infrastructure modules
var Module = fx.Module("infrastructure",
	logger.Module,
	database.Module,
	metrics.Module,
	httpfx.Module,
	kafka.Module, // depends on the events bus
	s3.Module,
	telegram.Module,
)
