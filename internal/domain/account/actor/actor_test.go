package actor

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conte777/telegram-files/config"
	"github.com/Conte777/telegram-files/internal/domain/account/deps"
	"github.com/Conte777/telegram-files/internal/domain/account/entities"
	accounterrors "github.com/Conte777/telegram-files/internal/domain/account/errors"
	accountrepo "github.com/Conte777/telegram-files/internal/domain/account/repository/postgres"
	eventsdeps "github.com/Conte777/telegram-files/internal/domain/events/deps"
	eventsentities "github.com/Conte777/telegram-files/internal/domain/events/entities"
	filesdeps "github.com/Conte777/telegram-files/internal/domain/files/deps"
	filesentities "github.com/Conte777/telegram-files/internal/domain/files/entities"
	fileserrors "github.com/Conte777/telegram-files/internal/domain/files/errors"
	filesrepo "github.com/Conte777/telegram-files/internal/domain/files/repository/postgres"
	settingsrepo "github.com/Conte777/telegram-files/internal/domain/settings/repository/postgres"
	settings "github.com/Conte777/telegram-files/internal/domain/settings/usecase/business"
	"github.com/Conte777/telegram-files/internal/infrastructure/database/testdb"
	"github.com/Conte777/telegram-files/internal/infrastructure/metrics"
	"github.com/Conte777/telegram-files/internal/infrastructure/telegram/tdapi"
	"github.com/Conte777/telegram-files/internal/infrastructure/telegram/tdapi/tdapitest"
	pkgerrors "github.com/Conte777/telegram-files/pkg/errors"
)

const (
	waitFor = 2 * time.Second
	tick    = 10 * time.Millisecond
)

type published struct {
	sessionID string
	event     eventsentities.Envelope
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) Publish(sessionID string, event eventsentities.Envelope) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{sessionID: sessionID, event: event})
}

func (p *recordingPublisher) ofType(t eventsentities.Type) []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []published
	for _, e := range p.events {
		if e.event.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func (p *recordingPublisher) fileStatuses() []eventsentities.FileStatus {
	var out []eventsentities.FileStatus
	for _, e := range p.ofType(eventsentities.TypeFileStatus) {
		out = append(out, e.event.Data.(eventsentities.FileStatus))
	}
	return out
}

type notification struct {
	topic   eventsentities.Topic
	payload []byte
}

type recordingBroker struct {
	mu   sync.Mutex
	sent []notification
}

func (b *recordingBroker) Notify(ctx context.Context, topic eventsentities.Topic, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, notification{topic: topic, payload: payload})
	return nil
}

func (b *recordingBroker) Subscribe(eventsentities.Topic, eventsdeps.NotificationHandler) {}

func (b *recordingBroker) notifications() []notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]notification(nil), b.sent...)
}

type recordingTransfer struct {
	mu      sync.Mutex
	records []*filesentities.FileRecord
}

func (r *recordingTransfer) Transfer(ctx context.Context, record *filesentities.FileRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record)
	return nil
}

func (r *recordingTransfer) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

type harness struct {
	actor     *Actor
	client    *tdapitest.Client
	publisher *recordingPublisher
	broker    *recordingBroker
	transfer  *recordingTransfer
	files     filesdeps.FileRepository
	accounts  deps.AccountRepository
	settings  *settings.UseCase
	root      string
	closed    chan struct{}
}

func newHarness(t *testing.T, account *entities.Account) *harness {
	t.Helper()

	db := testdb.NewSQLite(t)
	root := filepath.Join(t.TempDir(), entities.RootDirPrefix+"a1b2c3d4e5")
	require.NoError(t, os.MkdirAll(root, 0o755))

	h := &harness{
		client:    tdapitest.NewClient(),
		publisher: &recordingPublisher{},
		broker:    &recordingBroker{},
		transfer:  &recordingTransfer{},
		files:     filesrepo.NewRepository(db),
		accounts:  accountrepo.NewRepository(db),
		settings:  settings.NewUseCase(settingsrepo.NewRepository(db), zerolog.Nop()),
		root:      root,
		closed:    make(chan struct{}),
	}

	if account != nil {
		account.RootPath = root
		require.NoError(t, h.accounts.Create(context.Background(), account))
	}

	h.actor = New(root, account, h.client, Deps{
		Files:     h.files,
		Settings:  h.settings,
		Accounts:  h.accounts,
		Publisher: h.publisher,
		Broker:    h.broker,
		Transfer:  h.transfer,
		Telegram:  &config.TelegramConfig{APIID: 1, APIHash: "hash", DeviceModel: "test", AppVersion: "1.0"},
		Metrics:   metrics.GetDefaultMetrics(),
		Logger:    zerolog.Nop(),
	}, func(*Actor) { close(h.closed) })

	require.NoError(t, h.actor.Start())
	t.Cleanup(func() {
		h.actor.Stop()
		<-h.actor.Stopped()
	})

	return h
}

// newAuthorized starts an actor for a stored account and drives it to ready
func newAuthorized(t *testing.T) *harness {
	t.Helper()

	h := newHarness(t, &entities.Account{ID: 42, FirstName: "Ada"})
	h.client.Push(&tdapi.UpdateAuthorizationState{AuthorizationState: &tdapi.AuthorizationStateReady{}})
	require.Eventually(t, h.actor.Authorized, waitFor, tick)
	return h
}

func TestActor_StartTwice(t *testing.T) {
	h := newHarness(t, nil)

	assert.ErrorIs(t, h.actor.Start(), accounterrors.ErrAlreadyStarted)
}

func TestActor_Check(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.actor.Check())

	missing := New(filepath.Join(t.TempDir(), "account-missing"), nil, tdapitest.NewClient(), Deps{
		Metrics: metrics.GetDefaultMetrics(),
		Logger:  zerolog.Nop(),
	}, nil)
	assert.ErrorIs(t, missing.Check(), accounterrors.ErrRootPathMissing)
	assert.Equal(t, "missing", missing.RootID())
}

func TestActor_SendsParametersOnStart(t *testing.T) {
	h := newHarness(t, nil)

	h.client.Push(&tdapi.UpdateAuthorizationState{AuthorizationState: &tdapi.AuthorizationStateWaitTdlibParameters{}})

	require.Eventually(t, func() bool { return h.client.Count("setTdlibParameters") == 1 }, waitFor, tick)
	for _, req := range h.client.Sent() {
		if params, ok := req.(*tdapi.SetTdlibParameters); ok {
			assert.Equal(t, h.root, params.DatabaseDirectory)
			assert.Equal(t, 1, params.APIID)
			assert.Equal(t, "en", params.SystemLanguageCode)
		}
	}
}

func TestActor_WaitStatesArePublished(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.actor.BindSession(context.Background(), "session-1"))

	h.client.Push(&tdapi.UpdateAuthorizationState{AuthorizationState: &tdapi.AuthorizationStateWaitPhoneNumber{}})

	require.Eventually(t, func() bool {
		return len(h.publisher.ofType(eventsentities.TypeAuthorization)) == 1
	}, waitFor, tick)
	event := h.publisher.ofType(eventsentities.TypeAuthorization)[0]
	assert.Equal(t, "session-1", event.sessionID)

	raw, err := json.Marshal(event.event.Data)
	require.NoError(t, err)
	assert.JSONEq(t, `{"@type":"authorizationStateWaitPhoneNumber"}`, string(raw))

	profile, err := h.actor.Profile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entities.StatusInactive, profile.Status)
	assert.Equal(t, "a1b2c3d4e5", profile.ID)
	assert.Equal(t, h.root, profile.RootPath)
	assert.NotNil(t, profile.LastAuthorizationState)
}

func TestActor_FirstLoginStoresAccount(t *testing.T) {
	h := newHarness(t, nil)
	h.client.Reply("getMe", &tdapi.User{ID: 42, FirstName: "Ada"})

	h.client.Push(&tdapi.UpdateAuthorizationState{AuthorizationState: &tdapi.AuthorizationStateReady{}})

	require.Eventually(t, func() bool { return h.actor.TelegramID() == 42 }, waitFor, tick)
	require.Eventually(t, func() bool { return h.client.Count("loadChats") == 1 }, waitFor, tick)

	stored, err := h.accounts.GetByID(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, "Ada", stored.FirstName)
	assert.Equal(t, h.root, stored.RootPath)

	assert.Equal(t, 1, h.client.Count("getMe"))
}

func TestActor_StoredAccountSkipsProvisioning(t *testing.T) {
	h := newAuthorized(t)

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, h.client.Count("getMe"))
	assert.Zero(t, h.client.Count("loadChats"))
}

func TestActor_ClosedCallsBack(t *testing.T) {
	h := newAuthorized(t)

	h.client.Push(&tdapi.UpdateAuthorizationState{AuthorizationState: &tdapi.AuthorizationStateClosed{}})

	select {
	case <-h.closed:
	case <-time.After(waitFor):
		t.Fatal("close callback not invoked")
	}
	assert.False(t, h.actor.Authorized())
}

func TestActor_StopRemovesUnauthorizedRoot(t *testing.T) {
	h := newHarness(t, nil)

	h.actor.Stop()
	<-h.actor.Stopped()

	_, err := os.Stat(h.root)
	assert.True(t, os.IsNotExist(err))
}

func TestActor_StopKeepsAuthorizedRoot(t *testing.T) {
	h := newAuthorized(t)

	h.actor.Stop()
	<-h.actor.Stopped()

	_, err := os.Stat(h.root)
	assert.NoError(t, err)
}

func TestActor_CommandsRequireAuthorization(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	assert.ErrorIs(t, h.actor.StartDownload(ctx, 1, 2, 3), accounterrors.ErrNotAuthorized)
	assert.ErrorIs(t, h.actor.CancelDownload(ctx, 3), accounterrors.ErrNotAuthorized)
	_, err := h.actor.GetChats(ctx, 0, "")
	assert.ErrorIs(t, err, accounterrors.ErrNotAuthorized)
	assert.Empty(t, h.client.Sent())
}

func TestActor_Profile(t *testing.T) {
	h := newAuthorized(t)
	h.client.Reply("getMe", &tdapi.User{
		ID:            42,
		FirstName:     "Ada",
		PhoneNumber:   "+100200",
		IsPremium:     true,
		Minithumbnail: []byte{1, 2, 3},
	})

	profile, err := h.actor.Profile(context.Background())
	require.NoError(t, err)

	assert.Equal(t, &entities.Profile{
		ID:        "42",
		Name:      "Ada",
		Phone:     "+100200",
		Avatar:    "AQID",
		Status:    entities.StatusActive,
		IsPremium: true,
		RootPath:  h.root,
	}, profile)
}

func TestActor_RunRawCommand(t *testing.T) {
	t.Run("unsupported method", func(t *testing.T) {
		h := newHarness(t, nil)

		_, err := h.actor.RunRawCommand("deleteAccount", nil)
		assert.Error(t, err)
		assert.Empty(t, h.client.Sent())
	})

	t.Run("pre-auth method runs before authorization", func(t *testing.T) {
		h := newHarness(t, nil)

		code, err := h.actor.RunRawCommand("setAuthenticationPhoneNumber", []byte(`{"phone_number":"+100200"}`))
		require.NoError(t, err)
		assert.Len(t, code, codeLength)

		require.Eventually(t, func() bool {
			return len(h.publisher.ofType(eventsentities.TypeMethodResult)) == 1
		}, waitFor, tick)
		assert.Equal(t, code, h.publisher.ofType(eventsentities.TypeMethodResult)[0].event.Code)

		req := h.client.Sent()[0].(*tdapi.SetAuthenticationPhoneNumber)
		assert.Equal(t, "+100200", req.PhoneNumber)
	})

	t.Run("regular method needs authorization", func(t *testing.T) {
		h := newHarness(t, nil)

		_, err := h.actor.RunRawCommand("getMe", nil)
		assert.ErrorIs(t, err, accounterrors.ErrNotAuthorized)
	})

	t.Run("backend failure becomes error event", func(t *testing.T) {
		h := newHarness(t, nil)
		h.client.Reply("checkAuthenticationCode", tdapi.NewError(400, "PHONE_CODE_INVALID"))

		code, err := h.actor.RunRawCommand("checkAuthenticationCode", []byte(`{"code":"11111"}`))
		require.NoError(t, err)

		require.Eventually(t, func() bool {
			return len(h.publisher.ofType(eventsentities.TypeError)) == 1
		}, waitFor, tick)
		event := h.publisher.ofType(eventsentities.TypeError)[0].event
		assert.Equal(t, code, event.Code)

		raw, err := json.Marshal(event.Data)
		require.NoError(t, err)
		assert.JSONEq(t, `{"@type":"error","code":400,"message":"PHONE_CODE_INVALID"}`, string(raw))
	})

	t.Run("codes are unique", func(t *testing.T) {
		seen := make(map[string]struct{})
		for i := 0; i < 100; i++ {
			seen[NewCode()] = struct{}{}
		}
		assert.Len(t, seen, 100)
	})
}

func TestActor_StartDownload(t *testing.T) {
	ctx := context.Background()

	t.Run("queues the file and stores its record", func(t *testing.T) {
		h := newAuthorized(t)
		file := tdapitest.NewFile(7, "U7", 1000)
		h.client.Reply("getFile", file)
		h.client.Reply("getMessage", tdapitest.DocumentMessage(100, 5, file))

		require.NoError(t, h.actor.StartDownload(ctx, 100, 5, 7))

		record, err := h.files.GetByUniqueID(ctx, "U7")
		require.NoError(t, err)
		assert.Equal(t, int64(42), record.TelegramID)
		assert.Equal(t, filesentities.TypeFile, record.Type)

		require.Equal(t, 1, h.client.Count("addFileToDownloads"))
		for _, req := range h.client.Sent() {
			if add, ok := req.(*tdapi.AddFileToDownloads); ok {
				assert.Equal(t, downloadPriority, add.Priority)
				assert.Equal(t, int64(100), add.ChatID)
			}
		}

		assert.Equal(t, []eventsentities.FileStatus{
			{FileID: 7, DownloadStatus: string(filesentities.StatusDownloading)},
		}, h.publisher.fileStatuses())
	})

	rejections := []struct {
		name string
		file *tdapi.File
		want error
	}{
		{"completed", tdapitest.Completed(tdapitest.NewFile(7, "U7", 1000), "/tmp/a"), fileserrors.ErrAlreadyDownloaded},
		{"active", tdapitest.Downloading(tdapitest.NewFile(7, "U7", 1000), 10), fileserrors.ErrDownloading},
		{"partial", tdapitest.Paused(tdapitest.NewFile(7, "U7", 1000), 10), fileserrors.ErrPartiallyDownloaded},
		{"not downloadable", &tdapi.File{ID: 7}, fileserrors.ErrCannotBeDownloaded},
	}

	for _, tt := range rejections {
		t.Run(tt.name, func(t *testing.T) {
			h := newAuthorized(t)
			h.client.Reply("getFile", tt.file)
			h.client.Reply("getMessage", tdapitest.DocumentMessage(100, 5, tt.file))

			assert.ErrorIs(t, h.actor.StartDownload(ctx, 100, 5, 7), tt.want)
			assert.Zero(t, h.client.Count("addFileToDownloads"))
			assert.Empty(t, h.publisher.fileStatuses())
		})
	}
}

func TestActor_StartDownloadTwice(t *testing.T) {
	ctx := context.Background()
	h := newAuthorized(t)

	h.client.On("getFile", func(tdapi.Function) tdapi.Object {
		file := tdapitest.NewFile(7, "U7", 1000)
		if h.client.Count("addFileToDownloads") > 0 {
			return tdapitest.Downloading(file, 0)
		}
		return file
	})
	h.client.Reply("getMessage", tdapitest.DocumentMessage(100, 5, tdapitest.NewFile(7, "U7", 1000)))

	require.NoError(t, h.actor.StartDownload(ctx, 100, 5, 7))
	assert.ErrorIs(t, h.actor.StartDownload(ctx, 100, 5, 7), fileserrors.ErrDownloading)

	assert.Equal(t, 1, h.client.Count("addFileToDownloads"))
	assert.Len(t, h.publisher.fileStatuses(), 1)
}

func TestActor_StartDownloadRebindsStoredRecord(t *testing.T) {
	ctx := context.Background()
	h := newAuthorized(t)

	_, err := h.files.Create(ctx, &filesentities.FileRecord{ID: 3, UniqueID: "U7", TelegramID: 42, DownloadStatus: filesentities.StatusIdle})
	require.NoError(t, err)

	file := tdapitest.NewFile(7, "U7", 1000)
	h.client.Reply("getFile", file)
	h.client.Reply("getMessage", tdapitest.DocumentMessage(100, 5, file))
	require.NoError(t, h.actor.StartDownload(ctx, 100, 5, 7))

	records, err := h.files.GetFilesByUniqueID(ctx, []string{"U7"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int32(7), records["U7"].ID)

	h.client.Reply("getFile", tdapitest.Downloading(tdapitest.NewFile(7, "U7", 1000), 10))
	require.NoError(t, h.actor.TogglePauseDownload(ctx, 7, true))
	assert.Equal(t, 1, h.client.Count("toggleDownloadIsPaused"))

	record, err := h.files.GetByUniqueID(ctx, "U7")
	require.NoError(t, err)
	assert.Equal(t, int32(7), record.ID)
}

func TestActor_StartMessageDownload(t *testing.T) {
	h := newAuthorized(t)
	file := tdapitest.NewFile(9, "U9", 1000)
	h.client.Reply("getFile", file)
	h.client.Reply("getMessage", tdapitest.AudioMessage(100, 6, file))

	require.NoError(t, h.actor.StartMessageDownload(context.Background(), 100, 6))
	assert.Equal(t, 1, h.client.Count("addFileToDownloads"))
}

func TestActor_CancelDownload(t *testing.T) {
	ctx := context.Background()
	h := newAuthorized(t)

	h.client.Reply("getFile", tdapitest.NewFile(7, "U7", 1000))
	assert.ErrorIs(t, h.actor.CancelDownload(ctx, 7), fileserrors.ErrNotDownloading)
	assert.Zero(t, h.client.Count("cancelDownloadFile"))

	h.client.Reply("getFile", tdapitest.Downloading(tdapitest.NewFile(7, "U7", 1000), 100))
	require.NoError(t, h.actor.CancelDownload(ctx, 7))

	assert.Equal(t, 1, h.client.Count("cancelDownloadFile"))
	assert.Equal(t, []eventsentities.FileStatus{
		{FileID: 7, DownloadStatus: string(filesentities.StatusIdle)},
	}, h.publisher.fileStatuses())
}

func TestActor_TogglePauseDownload(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		file   *tdapi.File
		pause  bool
		want   error
		status filesentities.DownloadStatus
	}{
		{"not started", &tdapi.File{ID: 7, Remote: &tdapi.RemoteFile{UniqueID: "U7"}}, true, fileserrors.ErrNotStarted, ""},
		{"pause idle", tdapitest.NewFile(7, "U7", 1000), true, fileserrors.ErrNotDownloading, ""},
		{"resume active", tdapitest.Downloading(tdapitest.NewFile(7, "U7", 1000), 10), false, fileserrors.ErrDownloading, ""},
		{"resume untouched", tdapitest.NewFile(7, "U7", 1000), false, fileserrors.ErrNotPaused, ""},
		{"resume completed", tdapitest.Completed(tdapitest.NewFile(7, "U7", 1000), "/tmp/a"), false, fileserrors.ErrNotPaused, ""},
		{"pause active", tdapitest.Downloading(tdapitest.NewFile(7, "U7", 1000), 10), true, nil, filesentities.StatusPaused},
		{"resume paused", tdapitest.Paused(tdapitest.NewFile(7, "U7", 1000), 10), false, nil, filesentities.StatusDownloading},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newAuthorized(t)
			h.client.Reply("getFile", tt.file)

			err := h.actor.TogglePauseDownload(ctx, 7, tt.pause)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
				assert.Zero(t, h.client.Count("toggleDownloadIsPaused"))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, 1, h.client.Count("toggleDownloadIsPaused"))
			assert.Equal(t, []eventsentities.FileStatus{
				{FileID: 7, DownloadStatus: string(tt.status)},
			}, h.publisher.fileStatuses())
		})
	}
}

func TestActor_TogglePauseRefreshesFileID(t *testing.T) {
	ctx := context.Background()
	h := newAuthorized(t)

	_, err := h.files.Create(ctx, &filesentities.FileRecord{ID: 3, UniqueID: "U7", TelegramID: 42, DownloadStatus: filesentities.StatusPaused})
	require.NoError(t, err)

	h.client.Reply("getFile", tdapitest.Paused(tdapitest.NewFile(7, "U7", 1000), 10))
	require.NoError(t, h.actor.TogglePauseDownload(ctx, 7, false))

	record, err := h.files.GetByUniqueID(ctx, "U7")
	require.NoError(t, err)
	assert.Equal(t, int32(7), record.ID)
}

func TestActor_ReconcileOnlyPublishesChanges(t *testing.T) {
	ctx := context.Background()
	h := newAuthorized(t)

	_, err := h.files.Create(ctx, &filesentities.FileRecord{ID: 7, UniqueID: "U7", TelegramID: 42, DownloadStatus: filesentities.StatusIdle})
	require.NoError(t, err)

	h.client.Push(&tdapi.UpdateFile{File: tdapitest.Downloading(tdapitest.NewFile(7, "U7", 1000), 10)})
	h.client.Push(&tdapi.UpdateFile{File: tdapitest.Downloading(tdapitest.NewFile(7, "U7", 1000), 20)})
	h.client.Push(&tdapi.UpdateFile{File: tdapitest.Completed(tdapitest.NewFile(7, "U7", 1000), "/data/U7.pdf")})

	require.Eventually(t, func() bool { return len(h.publisher.fileStatuses()) == 2 }, waitFor, tick)
	assert.Equal(t, []eventsentities.FileStatus{
		{FileID: 7, DownloadStatus: string(filesentities.StatusDownloading)},
		{FileID: 7, DownloadStatus: string(filesentities.StatusCompleted), LocalPath: "/data/U7.pdf"},
	}, h.publisher.fileStatuses())
	assert.Len(t, h.publisher.ofType(eventsentities.TypeFile), 3)

	record, err := h.files.GetByUniqueID(ctx, "U7")
	require.NoError(t, err)
	assert.Equal(t, filesentities.StatusCompleted, record.DownloadStatus)
	assert.Equal(t, "/data/U7.pdf", record.LocalPath)

	require.Eventually(t, func() bool { return h.transfer.count() == 1 }, waitFor, tick)
}

func TestActor_ReconcileIgnoresUnknownFiles(t *testing.T) {
	h := newAuthorized(t)

	h.client.Push(&tdapi.UpdateFile{File: tdapitest.Downloading(tdapitest.NewFile(8, "U8", 1000), 10)})
	h.client.Push(&tdapi.UpdateFile{File: &tdapi.File{ID: 9}})

	require.Eventually(t, func() bool { return len(h.publisher.ofType(eventsentities.TypeFile)) == 2 }, waitFor, tick)
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, h.publisher.fileStatuses())
}

func TestActor_GetChats(t *testing.T) {
	ctx := context.Background()
	h := newAuthorized(t)

	h.client.Reply("getChats", &tdapi.Chats{TotalCount: 2, ChatIDs: []int64{200, 300}})
	h.client.Reply("searchChatsOnServer", &tdapi.Chats{TotalCount: 1, ChatIDs: []int64{42}})
	h.client.On("getChat", func(req tdapi.Function) tdapi.Object {
		id := req.(*tdapi.GetChat).ChatID
		return &tdapi.Chat{ID: id, Title: "chat", ChatType: tdapi.ChatTypeSupergroup, UnreadCount: int(id)}
	})

	_, _, err := h.settings.ToggleAutoDownload(ctx, 42, 300)
	require.NoError(t, err)

	chats, err := h.actor.GetChats(ctx, 100, "")
	require.NoError(t, err)
	require.Len(t, chats, 3)
	assert.Equal(t, []int64{100, 200, 300}, []int64{chats[0].ID, chats[1].ID, chats[2].ID})
	assert.Equal(t, "group", chats[0].Type)
	assert.False(t, chats[1].AutoEnabled)
	assert.True(t, chats[2].AutoEnabled)

	chats, err = h.actor.GetChats(ctx, 200, "")
	require.NoError(t, err)
	assert.Len(t, chats, 2, "pinned chat already listed")

	chats, err = h.actor.GetChats(ctx, 0, "  saved ")
	require.NoError(t, err)
	require.Len(t, chats, 1)
	assert.Equal(t, "Saved Messages", chats[0].Name)

	for _, req := range h.client.Sent() {
		if search, ok := req.(*tdapi.SearchChatsOnServer); ok {
			assert.Equal(t, "saved", search.Query)
			assert.Equal(t, chatListLimit, search.Limit)
		}
	}
}

func TestActor_GetChatFiles(t *testing.T) {
	ctx := context.Background()
	h := newAuthorized(t)

	stored := tdapitest.NewFile(1, "U1", 1000)
	_, err := h.files.Create(ctx, &filesentities.FileRecord{
		ID:             99,
		UniqueID:       "U1",
		TelegramID:     42,
		ChatID:         100,
		MessageID:      1,
		Type:           filesentities.TypeFile,
		DownloadStatus: filesentities.StatusPaused,
	})
	require.NoError(t, err)

	h.client.Reply("searchChatMessages", &tdapi.FoundChatMessages{
		TotalCount: 4,
		Messages: []*tdapi.Message{
			tdapitest.DocumentMessage(100, 1, tdapitest.Paused(stored, 300)),
			tdapitest.DocumentMessage(100, 2, tdapitest.NewFile(1, "U1", 1000)),
			tdapitest.TextMessage(100, 3),
			tdapitest.DocumentMessage(100, 4, tdapitest.NewFile(2, "U2", 500)),
		},
		NextFromMessageID: 4,
	})

	page, err := h.actor.GetChatFiles(ctx, 100, entities.FileQuery{Type: filesentities.TypeFile})
	require.NoError(t, err)

	assert.Equal(t, 4, page.Count)
	assert.Equal(t, 3, page.Size)
	assert.Equal(t, int64(4), page.NextFromMessageID)
	assert.Equal(t, int32(1), page.Files[0].ID, "stored record carries the live file id")
	assert.Equal(t, int64(300), page.Files[0].DownloadedSize)
	assert.Equal(t, filesentities.StatusPaused, page.Files[0].DownloadStatus)
	assert.Equal(t, "U2", page.Files[2].UniqueID)
	assert.Equal(t, filesentities.StatusIdle, page.Files[2].DownloadStatus)

	for _, req := range h.client.Sent() {
		if search, ok := req.(*tdapi.SearchChatMessages); ok {
			assert.Equal(t, tdapi.FilterDocument, search.Filter)
			assert.Equal(t, defaultFileLimit, search.Limit)
		}
	}

	require.NoError(t, h.settings.UpdateSettings(ctx, map[string]string{"uniqueOnly": "true"}))
	page, err = h.actor.GetChatFiles(ctx, 100, entities.FileQuery{})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Size)
}

func TestActor_GetChatFilesCount(t *testing.T) {
	h := newAuthorized(t)

	counts := map[tdapi.SearchMessagesFilter]int{
		tdapi.FilterPhotoAndVideo: 5,
		tdapi.FilterPhoto:         3,
		tdapi.FilterVideo:         2,
		tdapi.FilterAudio:         1,
		tdapi.FilterDocument:      7,
	}
	h.client.On("getChatMessageCount", func(req tdapi.Function) tdapi.Object {
		return &tdapi.Count{Count: counts[req.(*tdapi.GetChatMessageCount).Filter]}
	})

	got, err := h.actor.GetChatFilesCount(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"media": 5, "photo": 3, "video": 2, "audio": 1, "file": 7}, got)
}

func TestActor_GetChatFilesCountWithoutProfile(t *testing.T) {
	h := newHarness(t, nil)
	h.client.Reply("getMe", &tdapi.Error{Code: 500, Message: "INTERNAL"})
	h.client.Reply("getChatMessageCount", &tdapi.Count{Count: 4})
	h.client.Push(&tdapi.UpdateAuthorizationState{AuthorizationState: &tdapi.AuthorizationStateReady{}})
	require.Eventually(t, h.actor.Authorized, waitFor, tick)

	got, err := h.actor.GetChatFilesCount(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, 4, got["photo"])
}

func TestActor_LoadPreview(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled", func(t *testing.T) {
		h := newAuthorized(t)

		_, err := h.actor.LoadPreview(ctx, 100, 1)
		assert.ErrorIs(t, err, fileserrors.ErrImageLoadingDisabled)
	})

	t.Run("completed preview returns local path", func(t *testing.T) {
		h := newAuthorized(t)
		require.NoError(t, h.settings.UpdateSettings(ctx, map[string]string{"needToLoadImages": "true"}))

		path := filepath.Join(t.TempDir(), "preview.jpg")
		require.NoError(t, os.WriteFile(path, []byte("jpeg"), 0o644))

		h.client.Reply("getMessage", tdapitest.PhotoMessage(100, 1,
			tdapitest.PhotoSize("c", tdapitest.Completed(tdapitest.NewFile(3, "P3", 10), path)),
			tdapitest.PhotoSize("y", tdapitest.NewFile(4, "P4", 100)),
		))

		preview, err := h.actor.LoadPreview(ctx, 100, 1)
		require.NoError(t, err)
		assert.Equal(t, &entities.Preview{LocalPath: path}, preview)
		assert.Zero(t, h.client.Count("downloadFile"))
	})

	t.Run("missing preview is loaded", func(t *testing.T) {
		h := newAuthorized(t)
		require.NoError(t, h.settings.UpdateSettings(ctx, map[string]string{"needToLoadImages": "true"}))

		h.client.Reply("getMessage", tdapitest.PhotoMessage(100, 1,
			tdapitest.PhotoSize("c", tdapitest.NewFile(5, "P5", 100)),
		))
		h.client.Reply("downloadFile", tdapitest.Completed(tdapitest.NewFile(5, "P5", 100), "/data/P5.jpg"))

		preview, err := h.actor.LoadPreview(ctx, 100, 1)
		require.NoError(t, err)
		assert.Equal(t, &entities.Preview{FileID: 5}, preview)
		assert.Equal(t, 1, h.client.Count("downloadFile"))
		for _, req := range h.client.Sent() {
			if download, ok := req.(*tdapi.DownloadFile); ok {
				assert.True(t, download.Synchronous)
			}
		}

		record, err := h.files.GetByUniqueID(ctx, "P5")
		require.NoError(t, err)
		assert.Equal(t, filesentities.TypePhoto, record.Type)
	})

	t.Run("failed download is returned", func(t *testing.T) {
		h := newAuthorized(t)
		require.NoError(t, h.settings.UpdateSettings(ctx, map[string]string{"needToLoadImages": "true"}))

		h.client.Reply("getMessage", tdapitest.PhotoMessage(100, 1,
			tdapitest.PhotoSize("c", tdapitest.NewFile(5, "P5", 100)),
		))
		h.client.Reply("downloadFile", &tdapi.Error{Code: 400, Message: "FILE_ID_INVALID"})

		preview, err := h.actor.LoadPreview(ctx, 100, 1)
		assert.Nil(t, preview)

		var backendErr *pkgerrors.BackendExecutionError
		require.ErrorAs(t, err, &backendErr)
		assert.Equal(t, 400, backendErr.Code)
	})

	t.Run("message without preview", func(t *testing.T) {
		h := newAuthorized(t)
		require.NoError(t, h.settings.UpdateSettings(ctx, map[string]string{"needToLoadImages": "true"}))
		h.client.Reply("getMessage", tdapitest.AudioMessage(100, 1, tdapitest.NewFile(6, "A6", 100)))

		_, err := h.actor.LoadPreview(ctx, 100, 1)
		assert.ErrorIs(t, err, fileserrors.ErrNoPreview)
	})
}

func TestActor_ToggleAutoDownload(t *testing.T) {
	ctx := context.Background()
	h := newAuthorized(t)

	enabled, err := h.actor.ToggleAutoDownload(ctx, 100)
	require.NoError(t, err)
	assert.True(t, enabled)

	enabled, err = h.actor.ToggleAutoDownload(ctx, 100)
	require.NoError(t, err)
	assert.False(t, enabled)

	sent := h.broker.notifications()
	require.Len(t, sent, 2)
	assert.Equal(t, eventsentities.TopicAutoDownloadUpdated, sent[0].topic)

	var update eventsentities.AutoDownloadUpdated
	require.NoError(t, json.Unmarshal(sent[0].payload, &update))
	assert.JSONEq(t, `{"items":[{"telegramId":42,"chatId":100}]}`, update.Setting)
}

func TestActor_DownloadStatistics(t *testing.T) {
	ctx := context.Background()
	h := newAuthorized(t)

	_, err := h.files.Create(ctx, &filesentities.FileRecord{ID: 1, UniqueID: "U1", TelegramID: 42, Size: 10, DownloadStatus: filesentities.StatusCompleted})
	require.NoError(t, err)
	_, err = h.files.Create(ctx, &filesentities.FileRecord{ID: 2, UniqueID: "U2", TelegramID: 7, Size: 10, DownloadStatus: filesentities.StatusCompleted})
	require.NoError(t, err)

	stats, err := h.actor.DownloadStatistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Total)
}

func TestActor_NewMessageNotifies(t *testing.T) {
	h := newAuthorized(t)

	h.client.Push(&tdapi.UpdateNewMessage{Message: tdapitest.TextMessage(100, 11)})

	require.Eventually(t, func() bool { return len(h.broker.notifications()) == 1 }, waitFor, tick)
	n := h.broker.notifications()[0]
	assert.Equal(t, eventsentities.TopicMessageReceived, n.topic)
	assert.JSONEq(t, `{"telegramId":42,"chatId":100,"messageId":11}`, string(n.payload))
}
