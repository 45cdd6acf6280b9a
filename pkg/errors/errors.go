package errors

import "fmt"

type baseError struct {
	message string
}

func (e *baseError) Error() string {
	return e.message
}

// ValidationError represents a malformed request (HTTP 400)
type ValidationError struct {
	baseError
}

func NewValidationError(message string) *ValidationError {
	return &ValidationError{baseError{message: message}}
}

func NewValidationErrorf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{baseError{message: fmt.Sprintf(format, args...)}}
}

// AuthorizationError is returned when a command targets an account that is
// not authorized yet (HTTP 401)
type AuthorizationError struct {
	baseError
}

func NewAuthorizationError(message string) *AuthorizationError {
	return &AuthorizationError{baseError{message: message}}
}

func NewAuthorizationErrorf(format string, args ...interface{}) *AuthorizationError {
	return &AuthorizationError{baseError{message: fmt.Sprintf(format, args...)}}
}

// FeatureDisabledError means a setting gates the operation off (HTTP 403)
type FeatureDisabledError struct {
	baseError
}

func NewFeatureDisabledError(message string) *FeatureDisabledError {
	return &FeatureDisabledError{baseError{message: message}}
}

// NotFoundError represents a not found error (HTTP 404)
type NotFoundError struct {
	baseError
}

func NewNotFoundError(message string) *NotFoundError {
	return &NotFoundError{baseError{message: message}}
}

func NewNotFoundErrorf(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{baseError{message: fmt.Sprintf(format, args...)}}
}

// PreconditionError means the operation is invalid for the current state of
// the target, e.g. starting a download twice (HTTP 409)
type PreconditionError struct {
	baseError
}

func NewPreconditionError(message string) *PreconditionError {
	return &PreconditionError{baseError{message: message}}
}

func NewPreconditionErrorf(format string, args ...interface{}) *PreconditionError {
	return &PreconditionError{baseError{message: fmt.Sprintf(format, args...)}}
}

// UnsupportedContentError is returned for message content without a handler (HTTP 422)
type UnsupportedContentError struct {
	baseError
	ContentType string
}

func NewUnsupportedContentError(contentType string) *UnsupportedContentError {
	return &UnsupportedContentError{
		baseError:   baseError{message: fmt.Sprintf("unsupported message content: %s", contentType)},
		ContentType: contentType,
	}
}

// BackendExecutionError carries the error payload returned by the messaging
// backend (HTTP 502)
type BackendExecutionError struct {
	Code    int
	Message string
}

func NewBackendExecutionError(code int, message string) *BackendExecutionError {
	return &BackendExecutionError{Code: code, Message: message}
}

func (e *BackendExecutionError) Error() string {
	return fmt.Sprintf("backend execution failed (%d): %s", e.Code, e.Message)
}

// PersistenceError wraps a failed store operation (HTTP 500)
type PersistenceError struct {
	op    string
	cause error
}

func NewPersistenceError(op string, cause error) *PersistenceError {
	return &PersistenceError{op: op, cause: cause}
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure on %s: %v", e.op, e.cause)
}

func (e *PersistenceError) Unwrap() error {
	return e.cause
}

// InternalError represents an internal server error (HTTP 500)
type InternalError struct {
	baseError
}

func NewInternalError(message string) *InternalError {
	return &InternalError{baseError{message: message}}
}

func NewInternalErrorf(format string, args ...interface{}) *InternalError {
	return &InternalError{baseError{message: fmt.Sprintf(format, args...)}}
}

// ServiceUnavailableError represents a service unavailable error (HTTP 503)
type ServiceUnavailableError struct {
	baseError
}

func NewServiceUnavailableError(message string) *ServiceUnavailableError {
	return &ServiceUnavailableError{baseError{message: message}}
}

func NewServiceUnavailableErrorf(format string, args ...interface{}) *ServiceUnavailableError {
	return &ServiceUnavailableError{baseError{message: fmt.Sprintf(format, args...)}}
}
