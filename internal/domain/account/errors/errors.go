package errors

import (
	pkgerrors "github.com/Conte777/telegram-files/pkg/errors"
)

var (
	ErrAccountNotFound      = pkgerrors.NewNotFoundError("account not found")
	ErrAccountAlreadyExists = pkgerrors.NewPreconditionError("account already exists")
	ErrNotAuthorized        = pkgerrors.NewAuthorizationError("account is not authorized")
	ErrProfileNotLoaded     = pkgerrors.NewAuthorizationError("account profile is not loaded yet")
	ErrAlreadyStarted       = pkgerrors.NewPreconditionError("account is already started")
	ErrStopped              = pkgerrors.NewServiceUnavailableError("account is stopped")
	ErrRootPathMissing      = pkgerrors.NewPreconditionError("account root path does not exist")
)

// NewUnsupportedMethodError reports a dynamic command name without a request type
func NewUnsupportedMethodError(method string) error {
	return pkgerrors.NewValidationErrorf("unsupported method: %s", method)
}
