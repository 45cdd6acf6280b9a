package http

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/Conte777/telegram-files/internal/domain/settings/entities"
	pkgerrors "github.com/Conte777/telegram-files/pkg/errors"
	"github.com/Conte777/telegram-files/pkg/httputil"
)

type mockService struct {
	gotKeys   []string
	updated   map[string]string
	updateErr error
}

func (m *mockService) UniqueOnly(ctx context.Context) (bool, error)       { return false, nil }
func (m *mockService) NeedToLoadImages(ctx context.Context) (bool, error) { return false, nil }
func (m *mockService) ImageLoadSize(ctx context.Context) (string, error)  { return "c", nil }
func (m *mockService) AutoDownloadLimit(ctx context.Context) (int, error) { return 5, nil }
func (m *mockService) AutoDownload(ctx context.Context) (*entities.AutoDownloadSetting, error) {
	return &entities.AutoDownloadSetting{}, nil
}
func (m *mockService) ToggleAutoDownload(ctx context.Context, telegramID, chatID int64) (bool, string, error) {
	return true, "", nil
}

func (m *mockService) GetSettings(ctx context.Context, keys []string) (map[string]string, error) {
	m.gotKeys = keys
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		out[k] = "v"
	}
	return out, nil
}

func (m *mockService) UpdateSettings(ctx context.Context, values map[string]string) error {
	m.updated = values
	return m.updateErr
}

func newHandler(svc *mockService) *Handler {
	return NewHandler(svc, pkgerrors.NewMapper(zerolog.Nop()), zerolog.Nop())
}

func TestHandler_GetSettingsParsesKeys(t *testing.T) {
	svc := &mockService{}
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.SetRequestURI("/api/v1/settings?keys=uniqueOnly,%20imageLoadSize,,")

	newHandler(svc).GetSettings(ctx)

	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, []string{"uniqueOnly", "imageLoadSize"}, svc.gotKeys)

	var resp httputil.Response
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
	assert.True(t, resp.Success)
}

func TestHandler_GetSettingsWithoutKeys(t *testing.T) {
	svc := &mockService{}
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.SetRequestURI("/api/v1/settings")

	newHandler(svc).GetSettings(ctx)

	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Nil(t, svc.gotKeys)
}

func TestHandler_UpdateSettings(t *testing.T) {
	t.Run("stores values", func(t *testing.T) {
		svc := &mockService{}
		ctx := &fasthttp.RequestCtx{}
		ctx.Request.Header.SetMethod(fasthttp.MethodPut)
		ctx.Request.SetBodyString(`{"uniqueOnly":"true"}`)

		newHandler(svc).UpdateSettings(ctx)

		assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
		assert.Equal(t, map[string]string{"uniqueOnly": "true"}, svc.updated)
	})

	t.Run("rejects malformed body", func(t *testing.T) {
		svc := &mockService{}
		ctx := &fasthttp.RequestCtx{}
		ctx.Request.SetBodyString(`{"uniqueOnly":`)

		newHandler(svc).UpdateSettings(ctx)

		assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
		assert.Nil(t, svc.updated)
	})

	t.Run("maps service errors", func(t *testing.T) {
		svc := &mockService{updateErr: pkgerrors.NewValidationError("bad value")}
		ctx := &fasthttp.RequestCtx{}
		ctx.Request.SetBodyString(`{"imageLoadSize":"q"}`)

		newHandler(svc).UpdateSettings(ctx)

		assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
	})
}
