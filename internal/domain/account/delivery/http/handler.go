package http

import (
	"math"
	"strings"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/Conte777/telegram-files/internal/domain/account/deps"
	"github.com/Conte777/telegram-files/internal/domain/account/entities"
	eventshttp "github.com/Conte777/telegram-files/internal/domain/events/delivery/http"
	pkgerrors "github.com/Conte777/telegram-files/pkg/errors"
	"github.com/Conte777/telegram-files/pkg/httputil"
)

// StartDownloadRequest is the body of POST /accounts/{id}/files/start
type StartDownloadRequest struct {
	ChatID    int64 `json:"chatId"`
	MessageID int64 `json:"messageId"`
	FileID    int32 `json:"fileId"`
}

// Handler handles account HTTP requests
type Handler struct {
	manager deps.AccountManager
	mapper  *pkgerrors.Mapper
	logger  zerolog.Logger
}

// NewHandler creates a new account handler
func NewHandler(manager deps.AccountManager, mapper *pkgerrors.Mapper, logger zerolog.Logger) *Handler {
	return &Handler{
		manager: manager,
		mapper:  mapper,
		logger:  logger.With().Str("handler", "account").Logger(),
	}
}

func (h *Handler) fail(ctx *fasthttp.RequestCtx, err error) {
	httputil.WriteMappedError(ctx, h.mapper, err)
}

// account resolves the {id} route parameter
func (h *Handler) account(ctx *fasthttp.RequestCtx) (deps.Account, bool) {
	id, _ := ctx.UserValue("id").(string)
	account, err := h.manager.Get(id)
	if err != nil {
		h.fail(ctx, err)
		return nil, false
	}
	return account, true
}

func pathFileID(ctx *fasthttp.RequestCtx) (int32, error) {
	id, err := httputil.PathInt64(ctx, "fileId")
	if err != nil {
		return 0, err
	}
	if id <= 0 || id > math.MaxInt32 {
		return 0, pkgerrors.NewValidationErrorf("invalid fileId: %d", id)
	}
	return int32(id), nil
}

// ListAccounts handles GET /api/v1/accounts
func (h *Handler) ListAccounts(ctx *fasthttp.RequestCtx) {
	accounts := h.manager.List()
	profiles := make([]*entities.Profile, 0, len(accounts))
	for _, account := range accounts {
		profile, err := account.Profile(ctx)
		if err != nil {
			h.logger.Warn().Err(err).Str("account", account.RootID()).Msg("failed to load profile")
			continue
		}
		profiles = append(profiles, profile)
	}

	httputil.WriteResponse(ctx, profiles)
}

// CreateAccount handles POST /api/v1/accounts
func (h *Handler) CreateAccount(ctx *fasthttp.RequestCtx) {
	account, err := h.manager.Create(ctx)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to create account")
		h.fail(ctx, err)
		return
	}

	profile, err := account.Profile(ctx)
	if err != nil {
		h.fail(ctx, err)
		return
	}

	httputil.WriteResponseWithStatus(ctx, profile, fasthttp.StatusCreated)
}

// GetAccount handles GET /api/v1/accounts/{id}
func (h *Handler) GetAccount(ctx *fasthttp.RequestCtx) {
	account, ok := h.account(ctx)
	if !ok {
		return
	}

	profile, err := account.Profile(ctx)
	if err != nil {
		h.fail(ctx, err)
		return
	}

	httputil.WriteResponse(ctx, profile)
}

// DeleteAccount handles DELETE /api/v1/accounts/{id}
func (h *Handler) DeleteAccount(ctx *fasthttp.RequestCtx) {
	id, _ := ctx.UserValue("id").(string)
	if err := h.manager.Remove(ctx, id); err != nil {
		h.fail(ctx, err)
		return
	}

	httputil.WriteResponse(ctx, map[string]string{"id": id})
}

// BindSession handles POST /api/v1/accounts/{id}/bind
func (h *Handler) BindSession(ctx *fasthttp.RequestCtx) {
	sessionID := eventshttp.SessionID(ctx)
	if sessionID == "" {
		h.fail(ctx, pkgerrors.NewValidationErrorf("%s header is required", eventshttp.SessionHeader))
		return
	}

	account, ok := h.account(ctx)
	if !ok {
		return
	}

	if err := account.BindSession(ctx, sessionID); err != nil {
		h.fail(ctx, err)
		return
	}

	httputil.WriteResponse(ctx, map[string]string{"sessionId": sessionID})
}

// GetChats handles GET /api/v1/accounts/{id}/chats?pinned=&query=
func (h *Handler) GetChats(ctx *fasthttp.RequestCtx) {
	pinned, err := httputil.QueryInt64(ctx, "pinned", 0)
	if err != nil {
		h.fail(ctx, err)
		return
	}

	account, ok := h.account(ctx)
	if !ok {
		return
	}

	chats, err := account.GetChats(ctx, pinned, string(ctx.QueryArgs().Peek("query")))
	if err != nil {
		h.fail(ctx, err)
		return
	}

	httputil.WriteResponse(ctx, chats)
}

// GetChatFiles handles GET /api/v1/accounts/{id}/chats/{chatId}/files
func (h *Handler) GetChatFiles(ctx *fasthttp.RequestCtx) {
	chatID, err := httputil.PathInt64(ctx, "chatId")
	if err != nil {
		h.fail(ctx, err)
		return
	}

	query, err := fileQuery(ctx)
	if err != nil {
		h.fail(ctx, err)
		return
	}

	account, ok := h.account(ctx)
	if !ok {
		return
	}

	files, err := account.GetChatFiles(ctx, chatID, query)
	if err != nil {
		h.fail(ctx, err)
		return
	}

	httputil.WriteResponse(ctx, files)
}

func fileQuery(ctx *fasthttp.RequestCtx) (entities.FileQuery, error) {
	args := ctx.QueryArgs()
	query := entities.FileQuery{
		Type:   strings.TrimSpace(string(args.Peek("type"))),
		Search: string(args.Peek("search")),
	}

	from, err := httputil.QueryInt64(ctx, "fromMessageId", 0)
	if err != nil {
		return query, err
	}
	offset, err := httputil.QueryInt64(ctx, "offset", 0)
	if err != nil {
		return query, err
	}
	limit, err := httputil.QueryInt64(ctx, "limit", 0)
	if err != nil {
		return query, err
	}
	if limit < 0 || limit > 100 {
		return query, pkgerrors.NewValidationErrorf("invalid limit: %d", limit)
	}

	query.FromMessageID = from
	query.Offset = int(offset)
	query.Limit = int(limit)
	return query, nil
}

// GetChatFilesCount handles GET /api/v1/accounts/{id}/chats/{chatId}/files/count
func (h *Handler) GetChatFilesCount(ctx *fasthttp.RequestCtx) {
	chatID, err := httputil.PathInt64(ctx, "chatId")
	if err != nil {
		h.fail(ctx, err)
		return
	}

	account, ok := h.account(ctx)
	if !ok {
		return
	}

	counts, err := account.GetChatFilesCount(ctx, chatID)
	if err != nil {
		h.fail(ctx, err)
		return
	}

	httputil.WriteResponse(ctx, counts)
}

// ToggleAutoDownload handles POST /api/v1/accounts/{id}/chats/{chatId}/auto-download
func (h *Handler) ToggleAutoDownload(ctx *fasthttp.RequestCtx) {
	chatID, err := httputil.PathInt64(ctx, "chatId")
	if err != nil {
		h.fail(ctx, err)
		return
	}

	account, ok := h.account(ctx)
	if !ok {
		return
	}

	enabled, err := account.ToggleAutoDownload(ctx, chatID)
	if err != nil {
		h.fail(ctx, err)
		return
	}

	httputil.WriteResponse(ctx, map[string]bool{"enabled": enabled})
}

// LoadPreview handles GET /api/v1/accounts/{id}/chats/{chatId}/messages/{messageId}/preview
func (h *Handler) LoadPreview(ctx *fasthttp.RequestCtx) {
	chatID, err := httputil.PathInt64(ctx, "chatId")
	if err != nil {
		h.fail(ctx, err)
		return
	}
	messageID, err := httputil.PathInt64(ctx, "messageId")
	if err != nil {
		h.fail(ctx, err)
		return
	}

	account, ok := h.account(ctx)
	if !ok {
		return
	}

	preview, err := account.LoadPreview(ctx, chatID, messageID)
	if err != nil {
		h.fail(ctx, err)
		return
	}

	httputil.WriteResponse(ctx, preview)
}

// StartDownload handles POST /api/v1/accounts/{id}/files/start
func (h *Handler) StartDownload(ctx *fasthttp.RequestCtx) {
	var req StartDownloadRequest
	if err := httputil.DecodeBody(ctx, &req); err != nil {
		h.fail(ctx, err)
		return
	}
	if req.ChatID == 0 || req.MessageID == 0 || req.FileID <= 0 {
		h.fail(ctx, pkgerrors.NewValidationError("chatId, messageId and fileId are required"))
		return
	}

	account, ok := h.account(ctx)
	if !ok {
		return
	}

	if err := account.StartDownload(ctx, req.ChatID, req.MessageID, req.FileID); err != nil {
		h.fail(ctx, err)
		return
	}

	httputil.WriteResponse(ctx, req)
}

// CancelDownload handles POST /api/v1/accounts/{id}/files/{fileId}/cancel
func (h *Handler) CancelDownload(ctx *fasthttp.RequestCtx) {
	fileID, err := pathFileID(ctx)
	if err != nil {
		h.fail(ctx, err)
		return
	}

	account, ok := h.account(ctx)
	if !ok {
		return
	}

	if err := account.CancelDownload(ctx, fileID); err != nil {
		h.fail(ctx, err)
		return
	}

	httputil.WriteResponse(ctx, map[string]int32{"fileId": fileID})
}

// PauseDownload handles POST /api/v1/accounts/{id}/files/{fileId}/pause
func (h *Handler) PauseDownload(ctx *fasthttp.RequestCtx) {
	h.togglePause(ctx, true)
}

// ResumeDownload handles POST /api/v1/accounts/{id}/files/{fileId}/resume
func (h *Handler) ResumeDownload(ctx *fasthttp.RequestCtx) {
	h.togglePause(ctx, false)
}

func (h *Handler) togglePause(ctx *fasthttp.RequestCtx, pause bool) {
	fileID, err := pathFileID(ctx)
	if err != nil {
		h.fail(ctx, err)
		return
	}

	account, ok := h.account(ctx)
	if !ok {
		return
	}

	if err := account.TogglePauseDownload(ctx, fileID, pause); err != nil {
		h.fail(ctx, err)
		return
	}

	httputil.WriteResponse(ctx, map[string]interface{}{"fileId": fileID, "paused": pause})
}

// DownloadStatistics handles GET /api/v1/accounts/{id}/statistics
func (h *Handler) DownloadStatistics(ctx *fasthttp.RequestCtx) {
	account, ok := h.account(ctx)
	if !ok {
		return
	}

	stats, err := account.DownloadStatistics(ctx)
	if err != nil {
		h.fail(ctx, err)
		return
	}

	httputil.WriteResponse(ctx, stats)
}

// RunMethod handles POST /api/v1/accounts/{id}/methods/{method}. The
// result arrives later as an event tagged with the returned code.
func (h *Handler) RunMethod(ctx *fasthttp.RequestCtx) {
	method, _ := ctx.UserValue("method").(string)

	account, ok := h.account(ctx)
	if !ok {
		return
	}

	code, err := account.RunRawCommand(method, ctx.PostBody())
	if err != nil {
		h.fail(ctx, err)
		return
	}

	httputil.WriteResponseWithStatus(ctx, map[string]string{"code": code}, fasthttp.StatusAccepted)
}
