package s3

import (
	"context"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/Conte777/telegram-files/config"
	filesdeps "github.com/Conte777/telegram-files/internal/domain/files/deps"
	"github.com/Conte777/telegram-files/internal/infrastructure/metrics"
)

// Module provides the optional transfer of completed files for fx DI
var Module = fx.Module("s3",
	fx.Provide(NewTransferFx),
)

// NewTransferFx returns a nil FileTransfer when S3 is disabled
func NewTransferFx(
	lc fx.Lifecycle,
	cfg *config.S3Config,
	m *metrics.Metrics,
	logger zerolog.Logger,
) (filesdeps.FileTransfer, error) {
	if !cfg.Enabled {
		logger.Info().Msg("S3 disabled, completed files stay local")
		return nil, nil
	}

	store, err := NewMinioStore(cfg)
	if err != nil {
		return nil, err
	}
	client := NewClient(store, cfg.Bucket, m, logger)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info().Str("bucket", cfg.Bucket).Msg("initializing S3/MinIO client...")
			return client.EnsureBucket(ctx)
		},
	})

	return client, nil
}
