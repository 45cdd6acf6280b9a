package account

import (
	"context"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/Conte777/telegram-files/config"
	"github.com/Conte777/telegram-files/internal/domain/account/actor"
	accounthttp "github.com/Conte777/telegram-files/internal/domain/account/delivery/http"
	"github.com/Conte777/telegram-files/internal/domain/account/deps"
	"github.com/Conte777/telegram-files/internal/domain/account/manager"
	"github.com/Conte777/telegram-files/internal/domain/account/repository/postgres"
	eventsdeps "github.com/Conte777/telegram-files/internal/domain/events/deps"
	filesdeps "github.com/Conte777/telegram-files/internal/domain/files/deps"
	settingsdeps "github.com/Conte777/telegram-files/internal/domain/settings/deps"
	"github.com/Conte777/telegram-files/internal/infrastructure/http/server"
	"github.com/Conte777/telegram-files/internal/infrastructure/metrics"
)

// Module provides account components for fx DI
var Module = fx.Module("account",
	fx.Provide(
		postgres.NewRepository,
		NewActorDeps,
		NewManagerFx,
		func(m *manager.Manager) deps.AccountManager { return m },
		accounthttp.NewHandler,
		accounthttp.NewHealthHandler,
		accounthttp.NewRouter,
	),
	fx.Invoke(registerRoutes),
)

// ActorDepsParams collects the collaborators shared by all account actors
type ActorDepsParams struct {
	fx.In

	Files     filesdeps.FileRepository
	Settings  settingsdeps.SettingsService
	Accounts  deps.AccountRepository
	Publisher eventsdeps.Publisher
	Broker    eventsdeps.Broker
	Transfer  filesdeps.FileTransfer `optional:"true"`
	Telegram  *config.TelegramConfig
	Metrics   *metrics.Metrics
	Logger    zerolog.Logger
}

func NewActorDeps(p ActorDepsParams) actor.Deps {
	return actor.Deps{
		Files:     p.Files,
		Settings:  p.Settings,
		Accounts:  p.Accounts,
		Publisher: p.Publisher,
		Broker:    p.Broker,
		Transfer:  p.Transfer,
		Telegram:  p.Telegram,
		Metrics:   p.Metrics,
		Logger:    p.Logger,
	}
}

// NewManagerFx creates the account manager and ties its accounts to the app lifecycle
func NewManagerFx(
	lc fx.Lifecycle,
	cfg *config.TelegramConfig,
	factory deps.ClientFactory,
	repo deps.AccountRepository,
	actorDeps actor.Deps,
	logger zerolog.Logger,
) *manager.Manager {
	m := manager.New(cfg, factory, repo, actorDeps)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			report, err := m.Start(ctx)
			if err != nil {
				return err
			}
			for id, err := range report.Errors {
				logger.Warn().Err(err).Str("account", id).Msg("Account not restored")
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return m.Shutdown(ctx)
		},
	})

	return m
}

func registerRoutes(srv *server.Server, router *accounthttp.Router) {
	router.RegisterRoutes(srv.Router, srv.API)
}
