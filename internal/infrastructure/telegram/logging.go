package telegram

import (
	"context"
	"fmt"
	"sync"

	"github.com/gotd/td/bin"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/tg"
	"github.com/rs/zerolog"
)

var (
	backendLogger = zerolog.Nop()
	setupOnce     sync.Once
)

// SetupLogging routes the RPC trace of every backend connection to logger.
// Only the first call has an effect.
func SetupLogging(logger zerolog.Logger) {
	setupOnce.Do(func() {
		backendLogger = logger.With().Str("component", "mtproto").Logger()
	})
}

// logInvocations traces every RPC of a backend connection at debug level
func logInvocations(root string) telegram.Middleware {
	return telegram.MiddlewareFunc(func(next tg.Invoker) telegram.InvokeFunc {
		return func(ctx context.Context, input bin.Encoder, output bin.Decoder) error {
			err := next.Invoke(ctx, input, output)
			backendLogger.Debug().
				Err(err).
				Str("root", root).
				Str("method", fmt.Sprintf("%T", input)).
				Msg("RPC call")
			return err
		}
	})
}
