package files

import (
	"go.uber.org/fx"

	"github.com/Conte777/telegram-files/internal/domain/files/repository/postgres"
)

// Module provides the file record store for fx DI
var Module = fx.Module("files",
	fx.Provide(
		postgres.NewRepository,
	),
)
