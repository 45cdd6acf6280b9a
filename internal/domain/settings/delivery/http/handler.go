package http

import (
	"strings"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/Conte777/telegram-files/internal/domain/settings/deps"
	pkgerrors "github.com/Conte777/telegram-files/pkg/errors"
	"github.com/Conte777/telegram-files/pkg/httputil"
)

// Handler handles settings HTTP requests
type Handler struct {
	service deps.SettingsService
	mapper  *pkgerrors.Mapper
	logger  zerolog.Logger
}

// NewHandler creates a new settings handler
func NewHandler(service deps.SettingsService, mapper *pkgerrors.Mapper, logger zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		mapper:  mapper,
		logger:  logger.With().Str("handler", "settings").Logger(),
	}
}

// GetSettings handles GET /api/v1/settings?keys=a,b
func (h *Handler) GetSettings(ctx *fasthttp.RequestCtx) {
	var keys []string
	if raw := strings.TrimSpace(string(ctx.QueryArgs().Peek("keys"))); raw != "" {
		for _, k := range strings.Split(raw, ",") {
			if k = strings.TrimSpace(k); k != "" {
				keys = append(keys, k)
			}
		}
	}

	values, err := h.service.GetSettings(ctx, keys)
	if err != nil {
		httputil.WriteMappedError(ctx, h.mapper, err)
		return
	}

	httputil.WriteResponse(ctx, values)
}

// UpdateSettings handles PUT /api/v1/settings
func (h *Handler) UpdateSettings(ctx *fasthttp.RequestCtx) {
	var values map[string]string
	if err := httputil.DecodeBody(ctx, &values); err != nil {
		httputil.WriteMappedError(ctx, h.mapper, err)
		return
	}
	if len(values) == 0 {
		httputil.WriteMappedError(ctx, h.mapper, pkgerrors.NewValidationError("no settings given"))
		return
	}

	if err := h.service.UpdateSettings(ctx, values); err != nil {
		h.logger.Warn().Err(err).Msg("failed to update settings")
		httputil.WriteMappedError(ctx, h.mapper, err)
		return
	}

	httputil.WriteResponse(ctx, values)
}
