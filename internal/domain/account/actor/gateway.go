package actor

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	accounterrors "github.com/Conte777/telegram-files/internal/domain/account/errors"
	"github.com/Conte777/telegram-files/internal/infrastructure/metrics"
	"github.com/Conte777/telegram-files/internal/infrastructure/telegram/tdapi"
	pkgerrors "github.com/Conte777/telegram-files/pkg/errors"
)

// codeLength is the length of a dynamic command correlation code
const codeLength = 10

// Future is the pending result of one backend command. It resolves once.
type Future[T any] struct {
	done  chan struct{}
	once  sync.Once
	value T
	err   error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

func failedFuture[T any](err error) *Future[T] {
	f := newFuture[T]()
	f.resolve(*new(T), err)
	return f
}

func (f *Future[T]) resolve(value T, err error) {
	f.once.Do(func() {
		f.value = value
		f.err = err
		close(f.done)
	})
}

// Done is closed once the result is available
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the result arrives or ctx ends. Giving up does not
// cancel the backend command.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		return *new(T), ctx.Err()
	}
}

// Gateway correlates backend commands with their results
type Gateway struct {
	client     tdapi.Client
	authorized func() bool
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

func newGateway(client tdapi.Client, authorized func() bool, m *metrics.Metrics, logger zerolog.Logger) *Gateway {
	return &Gateway{
		client:     client,
		authorized: authorized,
		metrics:    m,
		logger:     logger,
	}
}

// Send issues req on behalf of an authorized account and resolves with the
// typed result. Backend error payloads resolve as BackendExecutionError.
func Send[T tdapi.Object](g *Gateway, req tdapi.Function) *Future[T] {
	if !g.authorized() {
		return failedFuture[T](accounterrors.ErrNotAuthorized)
	}
	return send[T](g, req)
}

// send skips the authorization check; it serves the login flow
func send[T tdapi.Object](g *Gateway, req tdapi.Function) *Future[T] {
	f := newFuture[T]()
	start := time.Now()

	g.client.Send(req, func(obj tdapi.Object) {
		var zero T

		if backendErr, ok := obj.(*tdapi.Error); ok {
			g.metrics.RecordBackendCommand(req.Type(), time.Since(start).Seconds(), true)
			g.logger.Debug().
				Str("method", req.Type()).
				Int("code", backendErr.Code).
				Str("message", backendErr.Message).
				Msg("Backend command failed")
			f.resolve(zero, pkgerrors.NewBackendExecutionError(backendErr.Code, backendErr.Message))
			return
		}

		g.metrics.RecordBackendCommand(req.Type(), time.Since(start).Seconds(), false)

		if obj == nil {
			f.resolve(zero, pkgerrors.NewInternalErrorf("empty result for %s", req.Type()))
			return
		}

		value, ok := obj.(T)
		if !ok {
			f.resolve(zero, pkgerrors.NewInternalErrorf("unexpected result %s for %s", obj.Type(), req.Type()))
			return
		}
		f.resolve(value, nil)
	})

	return f
}

// NewCode mints a dynamic command correlation code
func NewCode() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:codeLength]
}
