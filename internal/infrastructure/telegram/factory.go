package telegram

import (
	"github.com/rs/zerolog"

	"github.com/Conte777/telegram-files/config"
	"github.com/Conte777/telegram-files/internal/domain/account/deps"
	"github.com/Conte777/telegram-files/internal/infrastructure/telegram/tdapi"
)

// Factory opens gotd-backed clients
type Factory struct {
	cfg    *config.TelegramConfig
	logger zerolog.Logger
}

var _ deps.ClientFactory = (*Factory)(nil)

func NewFactory(cfg *config.TelegramConfig, logger zerolog.Logger) *Factory {
	return &Factory{cfg: cfg, logger: logger}
}

// Open creates a client for the account stored under rootPath
func (f *Factory) Open(rootPath string) (tdapi.Client, error) {
	return NewClient(rootPath, f.cfg, f.logger)
}
