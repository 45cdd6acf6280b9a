package errors

import (
	pkgerrors "github.com/Conte777/telegram-files/pkg/errors"
)

var (
	ErrUnknownSetting   = pkgerrors.NewValidationError("unknown setting")
	ErrReadOnlySetting  = pkgerrors.NewValidationError("setting can not be changed directly")
	ErrConcurrentUpdate = pkgerrors.NewServiceUnavailableError("setting is being updated concurrently, try again")
)
