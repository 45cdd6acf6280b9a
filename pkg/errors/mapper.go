package errors

import (
	"errors"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
)

// Mapper maps domain errors to HTTP status codes
type Mapper struct {
	logger zerolog.Logger
}

// NewMapper creates a new error mapper
func NewMapper(logger zerolog.Logger) *Mapper {
	return &Mapper{logger: logger}
}

// MapErrorToHTTP maps an error to HTTP status code and message
func (m *Mapper) MapErrorToHTTP(err error) (int, string) {
	if err == nil {
		return fasthttp.StatusOK, ""
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return fasthttp.StatusBadRequest, validationErr.Error()
	}

	var authorizationErr *AuthorizationError
	if errors.As(err, &authorizationErr) {
		return fasthttp.StatusUnauthorized, authorizationErr.Error()
	}

	var disabledErr *FeatureDisabledError
	if errors.As(err, &disabledErr) {
		return fasthttp.StatusForbidden, disabledErr.Error()
	}

	var notFoundErr *NotFoundError
	if errors.As(err, &notFoundErr) {
		return fasthttp.StatusNotFound, notFoundErr.Error()
	}

	var preconditionErr *PreconditionError
	if errors.As(err, &preconditionErr) {
		return fasthttp.StatusConflict, preconditionErr.Error()
	}

	var unsupportedErr *UnsupportedContentError
	if errors.As(err, &unsupportedErr) {
		return fasthttp.StatusUnprocessableEntity, unsupportedErr.Error()
	}

	var backendErr *BackendExecutionError
	if errors.As(err, &backendErr) {
		m.logger.Warn().Int("code", backendErr.Code).Str("message", backendErr.Message).Msg("backend execution error")
		return fasthttp.StatusBadGateway, backendErr.Error()
	}

	var serviceUnavailableErr *ServiceUnavailableError
	if errors.As(err, &serviceUnavailableErr) {
		return fasthttp.StatusServiceUnavailable, serviceUnavailableErr.Error()
	}

	var persistenceErr *PersistenceError
	if errors.As(err, &persistenceErr) {
		m.logger.Error().Err(err).Msg("persistence error")
		return fasthttp.StatusInternalServerError, "storage failure"
	}

	var internalErr *InternalError
	if errors.As(err, &internalErr) {
		m.logger.Error().Err(err).Msg("internal server error")
		return fasthttp.StatusInternalServerError, internalErr.Error()
	}

	m.logger.Error().Err(err).Msg("unknown error")
	return fasthttp.StatusInternalServerError, "internal server error"
}
