package autodownload

import (
	"context"

	"go.uber.org/fx"
)

// Module provides the auto download worker for fx DI
var Module = fx.Module("autodownload",
	fx.Provide(NewWorker),
	fx.Invoke(registerLifecycle),
)

// registerLifecycle registers the worker with fx.Lifecycle
func registerLifecycle(lc fx.Lifecycle, w *Worker) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return w.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			w.Stop()
			return nil
		},
	})
}
