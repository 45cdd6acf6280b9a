package telegram

import (
	"context"
	"errors"

	"github.com/gotd/td/tgerr"

	"github.com/Conte777/telegram-files/internal/infrastructure/telegram/tdapi"
)

func errAborted() *tdapi.Error {
	return tdapi.NewError(500, "Request aborted")
}

func errUnauthorized() *tdapi.Error {
	return tdapi.NewError(401, "Unauthorized")
}

// toError converts a failure into the error payload handed to the caller
func toError(err error) *tdapi.Error {
	var tdErr *tdapi.Error
	if errors.As(err, &tdErr) {
		return tdErr
	}

	if wait, ok := tgerr.AsFloodWait(err); ok {
		return tdapi.NewError(429, "Too Many Requests: retry after %d", int(wait.Seconds()))
	}
	if rpcErr, ok := tgerr.As(err); ok {
		return tdapi.NewError(rpcErr.Code, "%s", rpcErr.Type)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return errAborted()
	}
	return tdapi.NewError(500, "%s", err)
}
