package http

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/Conte777/telegram-files/internal/domain/account/deps"
	"github.com/Conte777/telegram-files/internal/domain/account/entities"
	accounterrors "github.com/Conte777/telegram-files/internal/domain/account/errors"
	eventshttp "github.com/Conte777/telegram-files/internal/domain/events/delivery/http"
	eventsdeps "github.com/Conte777/telegram-files/internal/domain/events/deps"
	eventsentities "github.com/Conte777/telegram-files/internal/domain/events/entities"
	filesentities "github.com/Conte777/telegram-files/internal/domain/files/entities"
	fileserrors "github.com/Conte777/telegram-files/internal/domain/files/errors"
	pkgerrors "github.com/Conte777/telegram-files/pkg/errors"
	"github.com/Conte777/telegram-files/pkg/httputil"
)

type stubAccount struct {
	deps.Account

	rootID      string
	profile     *entities.Profile
	profileErr  error
	err         error
	sessionID   string
	chatsPinned int64
	chatsQuery  string
	fileQuery   entities.FileQuery
	started     []int64
	cancelled   int32
	paused      *bool
	method      string
	params      []byte
}

func (a *stubAccount) RootID() string { return a.rootID }

func (a *stubAccount) Profile(context.Context) (*entities.Profile, error) {
	return a.profile, a.profileErr
}

func (a *stubAccount) BindSession(_ context.Context, sessionID string) error {
	a.sessionID = sessionID
	return a.err
}

func (a *stubAccount) GetChats(_ context.Context, pinned int64, query string) ([]entities.Chat, error) {
	a.chatsPinned, a.chatsQuery = pinned, query
	return []entities.Chat{{ID: 1, Name: "Saved Messages", Type: "private"}}, a.err
}

func (a *stubAccount) GetChatFiles(_ context.Context, _ int64, query entities.FileQuery) (*entities.ChatFiles, error) {
	a.fileQuery = query
	return &entities.ChatFiles{Count: 3}, a.err
}

func (a *stubAccount) GetChatFilesCount(context.Context, int64) (map[string]int, error) {
	return map[string]int{"photo": 2}, a.err
}

func (a *stubAccount) LoadPreview(context.Context, int64, int64) (*entities.Preview, error) {
	return &entities.Preview{FileID: 9}, a.err
}

func (a *stubAccount) StartDownload(_ context.Context, chatID, messageID int64, fileID int32) error {
	a.started = []int64{chatID, messageID, int64(fileID)}
	return a.err
}

func (a *stubAccount) CancelDownload(_ context.Context, fileID int32) error {
	a.cancelled = fileID
	return a.err
}

func (a *stubAccount) TogglePauseDownload(_ context.Context, _ int32, pause bool) error {
	a.paused = &pause
	return a.err
}

func (a *stubAccount) ToggleAutoDownload(context.Context, int64) (bool, error) {
	return true, a.err
}

func (a *stubAccount) DownloadStatistics(context.Context) (*filesentities.Statistics, error) {
	return &filesentities.Statistics{Total: 4}, a.err
}

func (a *stubAccount) RunRawCommand(method string, params []byte) (string, error) {
	a.method, a.params = method, params
	return "abcdefghij", a.err
}

type stubManager struct {
	accounts  map[string]*stubAccount
	removed   string
	createErr error
}

func (m *stubManager) Create(context.Context) (deps.Account, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	a := &stubAccount{rootID: "new", profile: &entities.Profile{ID: "new", Status: entities.StatusInactive}}
	m.accounts["new"] = a
	return a, nil
}

func (m *stubManager) Get(id string) (deps.Account, error) {
	if a, ok := m.accounts[id]; ok {
		return a, nil
	}
	return nil, accounterrors.ErrAccountNotFound
}

func (m *stubManager) GetByTelegramID(int64) (deps.Account, error) {
	return nil, accounterrors.ErrAccountNotFound
}

func (m *stubManager) List() []deps.Account {
	out := make([]deps.Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		out = append(out, a)
	}
	return out
}

func (m *stubManager) Remove(_ context.Context, id string) error {
	if _, ok := m.accounts[id]; !ok {
		return accounterrors.ErrAccountNotFound
	}
	m.removed = id
	delete(m.accounts, id)
	return nil
}

func (m *stubManager) Counts() (int, int) { return 1, len(m.accounts) }

func newTestHandler() (*Handler, *stubManager, *stubAccount) {
	account := &stubAccount{rootID: "a1", profile: &entities.Profile{ID: "42", Name: "Ada", Status: entities.StatusActive}}
	manager := &stubManager{accounts: map[string]*stubAccount{"a1": account}}
	return NewHandler(manager, pkgerrors.NewMapper(zerolog.Nop()), zerolog.Nop()), manager, account
}

func newCtx(method, uri string, values map[string]string) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(uri)
	for k, v := range values {
		ctx.SetUserValue(k, v)
	}
	return ctx
}

func decode(t *testing.T, ctx *fasthttp.RequestCtx) httputil.Response {
	t.Helper()
	var resp httputil.Response
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
	return resp
}

func TestHandler_GetAccount(t *testing.T) {
	h, _, _ := newTestHandler()

	ctx := newCtx("GET", "/api/v1/accounts/a1", map[string]string{"id": "a1"})
	h.GetAccount(ctx)

	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	resp := decode(t, ctx)
	assert.True(t, resp.Success)
	assert.Equal(t, "Ada", resp.Data.(map[string]interface{})["name"])

	ctx = newCtx("GET", "/api/v1/accounts/zz", map[string]string{"id": "zz"})
	h.GetAccount(ctx)
	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())
}

func TestHandler_ListAccountsSkipsFailingProfiles(t *testing.T) {
	h, manager, _ := newTestHandler()
	manager.accounts["b2"] = &stubAccount{rootID: "b2", profileErr: errors.New("backend gone")}

	ctx := newCtx("GET", "/api/v1/accounts", nil)
	h.ListAccounts(ctx)

	resp := decode(t, ctx)
	assert.Len(t, resp.Data, 1)
}

func TestHandler_CreateAccount(t *testing.T) {
	h, manager, _ := newTestHandler()

	ctx := newCtx("POST", "/api/v1/accounts", nil)
	h.CreateAccount(ctx)
	assert.Equal(t, fasthttp.StatusCreated, ctx.Response.StatusCode())
	assert.Contains(t, manager.accounts, "new")

	manager.createErr = pkgerrors.NewInternalError("disk full")
	ctx = newCtx("POST", "/api/v1/accounts", nil)
	h.CreateAccount(ctx)
	assert.Equal(t, fasthttp.StatusInternalServerError, ctx.Response.StatusCode())
}

func TestHandler_DeleteAccount(t *testing.T) {
	h, manager, _ := newTestHandler()

	ctx := newCtx("DELETE", "/api/v1/accounts/a1", map[string]string{"id": "a1"})
	h.DeleteAccount(ctx)
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, "a1", manager.removed)

	ctx = newCtx("DELETE", "/api/v1/accounts/a1", map[string]string{"id": "a1"})
	h.DeleteAccount(ctx)
	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())
}

func TestHandler_BindSession(t *testing.T) {
	h, _, account := newTestHandler()

	ctx := newCtx("POST", "/api/v1/accounts/a1/bind", map[string]string{"id": "a1"})
	h.BindSession(ctx)
	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
	assert.Contains(t, decode(t, ctx).Error, eventshttp.SessionHeader)

	ctx = newCtx("POST", "/api/v1/accounts/a1/bind", map[string]string{"id": "a1"})
	ctx.Request.Header.Set(eventshttp.SessionHeader, "s-1")
	h.BindSession(ctx)
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, "s-1", account.sessionID)
}

func TestHandler_GetChats(t *testing.T) {
	h, _, account := newTestHandler()

	ctx := newCtx("GET", "/api/v1/accounts/a1/chats?pinned=-100&query=saved", map[string]string{"id": "a1"})
	h.GetChats(ctx)
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, int64(-100), account.chatsPinned)
	assert.Equal(t, "saved", account.chatsQuery)

	ctx = newCtx("GET", "/api/v1/accounts/a1/chats?pinned=x", map[string]string{"id": "a1"})
	h.GetChats(ctx)
	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
}

func TestHandler_GetChatFiles(t *testing.T) {
	h, _, account := newTestHandler()
	values := map[string]string{"id": "a1", "chatId": "7"}

	ctx := newCtx("GET", "/api/v1/accounts/a1/chats/7/files?type=photo&search=cat&fromMessageId=55&offset=-1&limit=30", values)
	h.GetChatFiles(ctx)
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, entities.FileQuery{Type: "photo", Search: "cat", FromMessageID: 55, Offset: -1, Limit: 30}, account.fileQuery)

	for _, uri := range []string{
		"/api/v1/accounts/a1/chats/7/files?limit=101",
		"/api/v1/accounts/a1/chats/7/files?limit=-1",
		"/api/v1/accounts/a1/chats/7/files?offset=x",
	} {
		ctx = newCtx("GET", uri, values)
		h.GetChatFiles(ctx)
		assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode(), uri)
	}
}

func TestHandler_StartDownload(t *testing.T) {
	h, _, account := newTestHandler()

	ctx := newCtx("POST", "/api/v1/accounts/a1/files/start", map[string]string{"id": "a1"})
	ctx.Request.SetBodyString(`{"chatId":7,"messageId":8,"fileId":9}`)
	h.StartDownload(ctx)
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, []int64{7, 8, 9}, account.started)

	tests := []struct {
		name   string
		body   string
		err    error
		status int
	}{
		{name: "malformed body", body: `{`, status: fasthttp.StatusBadRequest},
		{name: "missing file", body: `{"chatId":7,"messageId":8}`, status: fasthttp.StatusBadRequest},
		{name: "already downloaded", body: `{"chatId":7,"messageId":8,"fileId":9}`, err: fileserrors.ErrAlreadyDownloaded, status: fasthttp.StatusConflict},
		{name: "not authorized", body: `{"chatId":7,"messageId":8,"fileId":9}`, err: accounterrors.ErrNotAuthorized, status: fasthttp.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			account.err = tt.err
			ctx := newCtx("POST", "/api/v1/accounts/a1/files/start", map[string]string{"id": "a1"})
			ctx.Request.SetBodyString(tt.body)
			h.StartDownload(ctx)
			assert.Equal(t, tt.status, ctx.Response.StatusCode())
		})
	}
}

func TestHandler_CancelAndPause(t *testing.T) {
	h, _, account := newTestHandler()

	ctx := newCtx("POST", "/api/v1/accounts/a1/files/5/cancel", map[string]string{"id": "a1", "fileId": "5"})
	h.CancelDownload(ctx)
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, int32(5), account.cancelled)

	ctx = newCtx("POST", "/api/v1/accounts/a1/files/5/pause", map[string]string{"id": "a1", "fileId": "5"})
	h.PauseDownload(ctx)
	require.NotNil(t, account.paused)
	assert.True(t, *account.paused)

	ctx = newCtx("POST", "/api/v1/accounts/a1/files/5/resume", map[string]string{"id": "a1", "fileId": "5"})
	h.ResumeDownload(ctx)
	assert.False(t, *account.paused)

	for _, id := range []string{"0", "-3", "4294967296", "x"} {
		ctx = newCtx("POST", "/api/v1/accounts/a1/files/"+id+"/cancel", map[string]string{"id": "a1", "fileId": id})
		h.CancelDownload(ctx)
		assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode(), id)
	}
}

func TestHandler_RunMethod(t *testing.T) {
	h, _, account := newTestHandler()

	ctx := newCtx("POST", "/api/v1/accounts/a1/methods/getMe", map[string]string{"id": "a1", "method": "getMe"})
	ctx.Request.SetBodyString(`{}`)
	h.RunMethod(ctx)

	assert.Equal(t, fasthttp.StatusAccepted, ctx.Response.StatusCode())
	assert.Equal(t, "getMe", account.method)
	assert.Equal(t, `{}`, string(account.params))
	assert.Equal(t, map[string]interface{}{"code": "abcdefghij"}, decode(t, ctx).Data)

	account.err = accounterrors.NewUnsupportedMethodError("nope")
	ctx = newCtx("POST", "/api/v1/accounts/a1/methods/nope", map[string]string{"id": "a1", "method": "nope"})
	h.RunMethod(ctx)
	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
}

func TestHandler_SmallReads(t *testing.T) {
	h, _, _ := newTestHandler()
	values := map[string]string{"id": "a1", "chatId": "7", "messageId": "8"}

	tests := []struct {
		name    string
		handler fasthttp.RequestHandler
	}{
		{name: "count", handler: h.GetChatFilesCount},
		{name: "auto download", handler: h.ToggleAutoDownload},
		{name: "preview", handler: h.LoadPreview},
		{name: "statistics", handler: h.DownloadStatistics},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := newCtx("GET", "/", values)
			tt.handler(ctx)
			assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
			assert.True(t, decode(t, ctx).Success)
		})
	}
}

type healthyBroker struct{ healthy bool }

func (b healthyBroker) Notify(context.Context, eventsentities.Topic, []byte) error { return nil }

func (b healthyBroker) Subscribe(eventsentities.Topic, eventsdeps.NotificationHandler) {}

func (b healthyBroker) IsHealthy() bool { return b.healthy }

func TestDetermineOverallStatus(t *testing.T) {
	assert.Equal(t, HealthStatusHealthy, determineOverallStatus([]ComponentHealth{{Healthy: true}, {Healthy: true}}))
	assert.Equal(t, HealthStatusDegraded, determineOverallStatus([]ComponentHealth{{Healthy: true}, {Healthy: false}}))
	assert.Equal(t, HealthStatusUnhealthy, determineOverallStatus([]ComponentHealth{{Healthy: false}}))
}

func TestHealthHandler_Handle(t *testing.T) {
	_, manager, _ := newTestHandler()
	h := NewHealthHandler(HealthHandlerParams{Manager: manager, Logger: zerolog.Nop()})

	ctx := newCtx("GET", "/health", nil)
	h.Handle(ctx)
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
	assert.Equal(t, HealthStatusHealthy, resp.Status)
	require.Len(t, resp.Components, 1)
	assert.Equal(t, "1 of 1 accounts authorized", resp.Components[0].Message)

	h.ping = func(context.Context) error { return errors.New("refused") }
	ctx = newCtx("GET", "/health", nil)
	h.Handle(ctx)
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
	assert.Equal(t, HealthStatusDegraded, resp.Status)
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	h.ping = nil
	h.broker = healthyBroker{healthy: false}
	ctx = newCtx("GET", "/health", nil)
	h.Handle(ctx)
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
	require.Len(t, resp.Components, 2)
	assert.Equal(t, "kafka", resp.Components[1].Name)
	assert.False(t, resp.Components[1].Healthy)
}
