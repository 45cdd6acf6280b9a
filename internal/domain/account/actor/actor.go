// Package actor runs one Telegram account: its authorization flow, command
// correlation, download orchestration and event fan-out.
//
// All state changes happen on the actor goroutine. Other goroutines read an
// immutable snapshot and post closures to the inbox to change it.
package actor

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/Conte777/telegram-files/config"
	"github.com/Conte777/telegram-files/internal/domain/account/deps"
	"github.com/Conte777/telegram-files/internal/domain/account/entities"
	accounterrors "github.com/Conte777/telegram-files/internal/domain/account/errors"
	eventsdeps "github.com/Conte777/telegram-files/internal/domain/events/deps"
	eventsentities "github.com/Conte777/telegram-files/internal/domain/events/entities"
	filesdeps "github.com/Conte777/telegram-files/internal/domain/files/deps"
	settingsdeps "github.com/Conte777/telegram-files/internal/domain/settings/deps"
	"github.com/Conte777/telegram-files/internal/infrastructure/metrics"
	"github.com/Conte777/telegram-files/internal/infrastructure/telegram/tdapi"
	pkgerrors "github.com/Conte777/telegram-files/pkg/errors"
)

const (
	inboxSize     = 64
	reconcileSize = 256
)

// Deps are the collaborators shared by all actors
type Deps struct {
	Files     filesdeps.FileRepository
	Settings  settingsdeps.SettingsService
	Accounts  deps.AccountRepository
	Publisher eventsdeps.Publisher
	Broker    eventsdeps.Broker
	// Transfer is optional; completed files are uploaded when set
	Transfer filesdeps.FileTransfer
	Telegram *config.TelegramConfig
	Metrics  *metrics.Metrics
	Logger   zerolog.Logger
}

type snapshot struct {
	authorized bool
	lastState  tdapi.AuthorizationState
	sessionID  string
	account    *entities.Account
}

// Actor owns one account
type Actor struct {
	rootPath string
	rootID   string
	client   tdapi.Client
	gateway  *Gateway
	deps     Deps
	logger   zerolog.Logger
	onClosed func(*Actor)

	inbox     chan func()
	reconcile chan *tdapi.File
	state     atomic.Pointer[snapshot]

	// owned by the actor goroutine
	provisioning bool

	ctx      context.Context
	cancel   context.CancelFunc
	started  atomic.Bool
	stopOnce sync.Once
	done     chan struct{}
	stopped  chan struct{}
}

var _ deps.Account = (*Actor)(nil)

// New creates an actor for rootPath. account is the stored record, nil when
// the account has never been authorized. onClosed is called when the backend
// reports the session closed.
func New(rootPath string, account *entities.Account, client tdapi.Client, d Deps, onClosed func(*Actor)) *Actor {
	rootID := entities.RootID(rootPath)

	logCtx := d.Logger.With().Str("component", "account")
	if account != nil {
		logCtx = logCtx.Int64("account", account.ID)
	} else {
		logCtx = logCtx.Str("account", rootID)
	}

	ctx, cancel := context.WithCancel(context.Background())

	a := &Actor{
		rootPath:  rootPath,
		rootID:    rootID,
		client:    client,
		deps:      d,
		logger:    logCtx.Logger(),
		onClosed:  onClosed,
		inbox:     make(chan func(), inboxSize),
		reconcile: make(chan *tdapi.File, reconcileSize),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
	a.state.Store(&snapshot{account: account})
	a.gateway = newGateway(client, a.Authorized, d.Metrics, a.logger)

	return a
}

func (a *Actor) snap() *snapshot {
	return a.state.Load()
}

// update applies fn to a copy of the snapshot. Actor goroutine only.
func (a *Actor) update(fn func(s *snapshot)) {
	next := *a.snap()
	fn(&next)
	a.state.Store(&next)
}

// post runs fn on the actor goroutine. It returns false once the actor is stopped.
func (a *Actor) post(fn func()) bool {
	select {
	case a.inbox <- fn:
		return true
	case <-a.ctx.Done():
		return false
	}
}

// call runs fn on the actor goroutine and waits for it
func (a *Actor) call(ctx context.Context, fn func()) error {
	ran := make(chan struct{})
	if !a.post(func() { fn(); close(ran) }) {
		return accounterrors.ErrStopped
	}

	select {
	case <-ran:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-a.ctx.Done():
		return accounterrors.ErrStopped
	}
}

func (a *Actor) RootID() string   { return a.rootID }
func (a *Actor) RootPath() string { return a.rootPath }

// TelegramID is the account id, 0 until the profile is stored
func (a *Actor) TelegramID() int64 {
	if acc := a.snap().account; acc != nil {
		return acc.ID
	}
	return 0
}

func (a *Actor) Authorized() bool {
	return a.snap().authorized
}

// SessionID is the bound client session, if any
func (a *Actor) SessionID() string {
	return a.snap().sessionID
}

// Check verifies the actor can start from its stored root
func (a *Actor) Check() error {
	info, err := os.Stat(a.rootPath)
	if err != nil || !info.IsDir() {
		return accounterrors.ErrRootPathMissing
	}
	return nil
}

// Start launches the actor goroutines. The backend drives the rest through
// authorization state pushes.
func (a *Actor) Start() error {
	if !a.started.CompareAndSwap(false, true) {
		return accounterrors.ErrAlreadyStarted
	}
	if a.ctx.Err() != nil {
		return accounterrors.ErrStopped
	}

	go a.run()
	go a.reconcileLoop()

	a.logger.Info().Str("root_path", a.rootPath).Msg("Account started")
	return nil
}

// Stop tears the actor down without waiting. The root directory of an
// account that never got authorized is removed.
func (a *Actor) Stop() {
	a.stopOnce.Do(func() {
		a.cancel()

		go func() {
			defer close(a.stopped)

			if a.started.Load() {
				<-a.done
			}
			if err := a.client.Close(); err != nil {
				a.logger.Warn().Err(err).Msg("Failed to close backend client")
			}

			if a.snap().account == nil {
				if err := os.RemoveAll(a.rootPath); err != nil {
					a.logger.Error().Err(err).Str("root_path", a.rootPath).Msg("Failed to remove root of unauthorized account")
				} else {
					a.logger.Info().Str("root_path", a.rootPath).Msg("Removed root of unauthorized account")
				}
			}

			a.logger.Info().Msg("Account stopped")
		}()
	})
}

// Stopped is closed once Stop has finished tearing down
func (a *Actor) Stopped() <-chan struct{} {
	return a.stopped
}

// BindSession routes the events of this account to sessionID
func (a *Actor) BindSession(ctx context.Context, sessionID string) error {
	return a.call(ctx, func() {
		a.update(func(s *snapshot) { s.sessionID = sessionID })
		a.logger.Debug().Str("session_id", sessionID).Msg("Session bound")
	})
}

func (a *Actor) run() {
	defer close(a.done)

	updates := a.client.Updates()
	for {
		select {
		case fn := <-a.inbox:
			fn()
		case u, ok := <-updates:
			if !ok {
				a.logger.Debug().Msg("Backend update stream closed")
				updates = nil
				continue
			}
			a.handleUpdate(u)
		case <-a.ctx.Done():
			return
		}
	}
}

func (a *Actor) handleUpdate(u tdapi.Update) {
	switch u := u.(type) {
	case *tdapi.UpdateAuthorizationState:
		a.onAuthorizationState(u.AuthorizationState)
	case *tdapi.UpdateFile:
		a.publish(eventsentities.TypeFile, "", u.File)
		a.enqueueReconcile(u.File)
	case *tdapi.UpdateFileDownloads:
		a.publish(eventsentities.TypeFileDownload, "", u)
	case *tdapi.UpdateNewMessage:
		a.onMessageReceived(u.Message)
	default:
		a.logger.Debug().Str("type", u.Type()).Msg("Ignoring backend update")
	}
}

func (a *Actor) enqueueReconcile(file *tdapi.File) {
	if file == nil {
		return
	}
	select {
	case a.reconcile <- file:
		a.deps.Metrics.ReconcileQueueDepth.Inc()
	case <-a.ctx.Done():
	}
}

func (a *Actor) onMessageReceived(msg *tdapi.Message) {
	telegramID := a.TelegramID()
	if msg == nil || telegramID == 0 || a.deps.Broker == nil {
		return
	}

	payload, err := json.Marshal(eventsentities.MessageReceived{
		TelegramID: telegramID,
		ChatID:     msg.ChatID,
		MessageID:  msg.ID,
	})
	if err != nil {
		a.logger.Error().Err(err).Msg("Failed to encode message received notification")
		return
	}

	go func() {
		if err := a.deps.Broker.Notify(a.ctx, eventsentities.TopicMessageReceived, payload); err != nil {
			a.logger.Warn().Err(err).Int64("chat_id", msg.ChatID).Msg("Failed to publish message received notification")
		}
	}()
}

// publish sends an event to the bound session. Safe from any goroutine.
func (a *Actor) publish(eventType eventsentities.Type, code string, data interface{}) {
	a.deps.Publisher.Publish(a.snap().sessionID, eventsentities.Envelope{
		Type: eventType,
		Code: code,
		Data: data,
	})
}

func (a *Actor) publishFileStatus(fileID int32, status string, localPath string) {
	a.publish(eventsentities.TypeFileStatus, "", eventsentities.FileStatus{
		FileID:         fileID,
		DownloadStatus: status,
		LocalPath:      localPath,
	})
}

// RunRawCommand sends a named request. Its result is published as a
// method-result or error event tagged with the returned code.
func (a *Actor) RunRawCommand(name string, params []byte) (string, error) {
	req, preAuth, err := buildRequest(name, params)
	if err != nil {
		return "", err
	}
	if !preAuth && !a.Authorized() {
		return "", accounterrors.ErrNotAuthorized
	}

	code := NewCode()
	future := send[tdapi.Object](a.gateway, req)

	go func() {
		result, err := future.Await(a.ctx)
		if err != nil {
			a.logger.Warn().Err(err).Str("method", name).Str("code", code).Msg("Raw command failed")
			a.publish(eventsentities.TypeError, code, errorPayload(err))
			return
		}
		a.publish(eventsentities.TypeMethodResult, code, tdapi.Typed{Object: result})
	}()

	return code, nil
}

func errorPayload(err error) tdapi.Typed {
	var backendErr *pkgerrors.BackendExecutionError
	if errors.As(err, &backendErr) {
		return tdapi.Typed{Object: &tdapi.Error{Code: backendErr.Code, Message: backendErr.Message}}
	}
	return tdapi.Typed{Object: &tdapi.Error{Code: 500, Message: err.Error()}}
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
