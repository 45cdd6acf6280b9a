package httputil

import (
	"encoding/json"
	"strconv"

	pkgerrors "github.com/Conte777/telegram-files/pkg/errors"
	"github.com/valyala/fasthttp"
)

// Response represents a standard API response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// WriteResponse writes a successful JSON response
func WriteResponse(ctx *fasthttp.RequestCtx, data interface{}) {
	WriteResponseWithStatus(ctx, data, fasthttp.StatusOK)
}

// WriteResponseWithStatus writes a successful JSON response with custom status
func WriteResponseWithStatus(ctx *fasthttp.RequestCtx, data interface{}, status int) {
	writeJSON(ctx, Response{Success: true, Data: data}, status)
}

// WriteErrorResponse writes an error JSON response
func WriteErrorResponse(ctx *fasthttp.RequestCtx, message string, status int) {
	writeJSON(ctx, Response{Success: false, Error: message}, status)
}

// WriteMappedError classifies err with the mapper and writes the matching status
func WriteMappedError(ctx *fasthttp.RequestCtx, mapper *pkgerrors.Mapper, err error) {
	status, message := mapper.MapErrorToHTTP(err)
	WriteErrorResponse(ctx, message, status)
}

func writeJSON(ctx *fasthttp.RequestCtx, data interface{}, status int) {
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)

	body, err := json.Marshal(data)
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		ctx.SetBody([]byte(`{"success":false,"error":"failed to marshal response"}`))
		return
	}

	ctx.SetBody(body)
}

// WriteHealthResponse writes a health check response
func WriteHealthResponse(ctx *fasthttp.RequestCtx, data interface{}, healthy bool) {
	status := fasthttp.StatusOK
	if !healthy {
		status = fasthttp.StatusServiceUnavailable
	}
	writeJSON(ctx, data, status)
}

// PathInt64 parses a route parameter as int64
func PathInt64(ctx *fasthttp.RequestCtx, name string) (int64, error) {
	raw, _ := ctx.UserValue(name).(string)
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, pkgerrors.NewValidationErrorf("invalid %s: %q", name, raw)
	}
	return v, nil
}

// QueryInt64 parses an optional query argument, returning def when absent
func QueryInt64(ctx *fasthttp.RequestCtx, name string, def int64) (int64, error) {
	raw := ctx.QueryArgs().Peek(name)
	if len(raw) == 0 {
		return def, nil
	}
	v, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, pkgerrors.NewValidationErrorf("invalid %s: %q", name, raw)
	}
	return v, nil
}

// DecodeBody unmarshals a JSON request body
func DecodeBody(ctx *fasthttp.RequestCtx, v interface{}) error {
	if err := json.Unmarshal(ctx.PostBody(), v); err != nil {
		return pkgerrors.NewValidationErrorf("invalid request body: %v", err)
	}
	return nil
}
