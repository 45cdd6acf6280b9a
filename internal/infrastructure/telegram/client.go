// Package telegram implements the tdapi backend on top of gotd/td. Each
// Client owns one MTProto session stored under the account root.
package telegram

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/auth/qrlogin"
	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/Conte777/telegram-files/config"
	"github.com/Conte777/telegram-files/internal/infrastructure/telegram/tdapi"
)

const (
	defaultRequestsPerSecond = 10
	defaultProgressInterval  = 500 * time.Millisecond
	requestTimeout           = time.Minute
	updatesBuffer            = 256

	minReconnectDelay = time.Second
	maxReconnectDelay = 30 * time.Second
	// maxDCConnections bounds connections to a foreign file DC
	maxDCConnections = 4

	filesDirName = "files"
)

// Client is a tdapi.Client backed by an MTProto connection
type Client struct {
	rootPath         string
	logger           zerolog.Logger
	limiter          *rate.Limiter
	progressInterval time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	updates     chan tdapi.Update
	pushMu      sync.RWMutex
	closed      bool
	abandon     chan struct{}
	abandonOnce sync.Once
	closeOnce   sync.Once

	mu        sync.Mutex
	state     tdapi.AuthorizationState
	params    *tdapi.SetTdlibParameters
	storage   *FileSessionStorage
	backend   *backend
	connected chan struct{}
	runDone   chan struct{}
	phone     string
	codeHash  string
	qrCancel  context.CancelFunc

	peers *peerCache
	files *fileRegistry

	taskMu sync.Mutex
	tasks  map[int32]*downloadTask
	wg     sync.WaitGroup
}

var _ tdapi.Client = (*Client)(nil)

// backend is one connection attempt
type backend struct {
	client     *telegram.Client
	loginToken qrlogin.LoggedIn

	mu  sync.Mutex
	api *tg.Client
	dcs map[int]*tg.Client
	dcc []telegram.CloseInvoker
}

// NewClient creates the client of an account root. Nothing connects until
// the parameters are set; the first push asks for them.
func NewClient(rootPath string, cfg *config.TelegramConfig, logger zerolog.Logger) (*Client, error) {
	peers, err := newPeerCache(peerCacheSize)
	if err != nil {
		return nil, err
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = defaultRequestsPerSecond
	}
	progress := cfg.ProgressInterval
	if progress <= 0 {
		progress = defaultProgressInterval
	}

	ctx, cancel := context.WithCancel(context.Background())

	c := &Client{
		rootPath:         rootPath,
		logger:           logger.With().Str("component", "mtproto_client").Str("root", filepath.Base(rootPath)).Logger(),
		limiter:          rate.NewLimiter(rate.Limit(rps), rps),
		progressInterval: progress,
		ctx:              ctx,
		cancel:           cancel,
		updates:          make(chan tdapi.Update, updatesBuffer),
		abandon:          make(chan struct{}),
		peers:            peers,
		files:            newFileRegistry(filepath.Join(rootPath, filesDirName)),
		tasks:            make(map[int32]*downloadTask),
	}

	c.setState(&tdapi.AuthorizationStateWaitTdlibParameters{})
	return c, nil
}

// Send runs req on its own goroutine and hands the result to handler
func (c *Client) Send(req tdapi.Function, handler tdapi.ResultHandler) {
	go func() {
		obj, err := c.invoke(req)
		if err != nil {
			handler(toError(err))
			return
		}
		handler(obj)
	}()
}

func (c *Client) Updates() <-chan tdapi.Update {
	return c.updates
}

// Close stops the client. Pushes that nobody reads anymore are dropped.
func (c *Client) Close() error {
	c.abandonOnce.Do(func() { close(c.abandon) })
	c.shutdown()
	return nil
}

func (c *Client) invoke(req tdapi.Function) (tdapi.Object, error) {
	if c.ctx.Err() != nil {
		return nil, errAborted()
	}

	ctx, cancel := context.WithTimeout(c.ctx, requestTimeout)
	defer cancel()

	switch r := req.(type) {
	case *tdapi.SetTdlibParameters:
		return c.setParameters(r)
	case *tdapi.SetAuthenticationPhoneNumber:
		return c.setPhoneNumber(ctx, r)
	case *tdapi.ResendAuthenticationCode:
		return c.resendCode(ctx)
	case *tdapi.CheckAuthenticationCode:
		return c.checkCode(ctx, r)
	case *tdapi.CheckAuthenticationPassword:
		return c.checkPassword(ctx, r)
	case *tdapi.RegisterUser:
		return c.registerUser(ctx, r)
	case *tdapi.RequestQrCodeAuthentication:
		return c.requestQRCode(ctx)
	case *tdapi.LogOut:
		return c.logOut(ctx)
	case *tdapi.Close:
		c.shutdown()
		return &tdapi.Ok{}, nil

	case *tdapi.GetMe:
		return c.getMe(ctx)
	case *tdapi.LoadChats:
		return c.loadChats(ctx, r.Limit)
	case *tdapi.GetChats:
		return c.getChats(ctx, r.Limit)
	case *tdapi.SearchChatsOnServer:
		return c.searchChats(ctx, r)
	case *tdapi.GetChat:
		return c.getChat(r.ChatID)

	case *tdapi.GetMessage:
		return c.getMessage(ctx, r.ChatID, r.MessageID)
	case *tdapi.SearchChatMessages:
		return c.searchMessages(ctx, r)
	case *tdapi.GetChatMessageCount:
		return c.messageCount(ctx, r)

	case *tdapi.GetFile:
		file, ok := c.files.get(r.FileID)
		if !ok {
			return nil, tdapi.NewError(404, "File not found")
		}
		return file, nil
	case *tdapi.DownloadFile:
		return c.downloadFile(r)
	case *tdapi.AddFileToDownloads:
		return c.addToDownloads(r)
	case *tdapi.CancelDownloadFile:
		if err := c.cancelDownload(r.FileID, r.OnlyIfPending); err != nil {
			return nil, err
		}
		return &tdapi.Ok{}, nil
	case *tdapi.ToggleDownloadIsPaused:
		return c.togglePaused(r)
	}

	return nil, tdapi.NewError(400, "Unsupported request %s", req.Type())
}

// push delivers an update unless the reader went away
func (c *Client) push(u tdapi.Update) {
	c.pushMu.RLock()
	defer c.pushMu.RUnlock()

	if c.closed {
		return
	}
	select {
	case c.updates <- u:
	case <-c.abandon:
	}
}

func (c *Client) setState(state tdapi.AuthorizationState) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()

	c.push(&tdapi.UpdateAuthorizationState{AuthorizationState: state})
}

func (c *Client) currentState() tdapi.AuthorizationState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Client) isReady() bool {
	_, ok := c.currentState().(*tdapi.AuthorizationStateReady)
	return ok
}

// run keeps the MTProto connection up until the client is closed
func (c *Client) run(params *tdapi.SetTdlibParameters, storage *FileSessionStorage) {
	defer close(c.runDone)

	delay := minReconnectDelay
	for {
		b := c.newBackend(params, storage)
		err := b.client.Run(c.ctx, func(ctx context.Context) error {
			return c.onConnected(ctx, b)
		})
		connected := c.disconnected(b)

		if c.ctx.Err() != nil {
			return
		}
		if connected {
			delay = minReconnectDelay
		}

		c.logger.Warn().Err(err).Dur("retry_in", delay).Msg("Backend connection lost")
		select {
		case <-c.ctx.Done():
			return
		case <-time.After(delay):
		}
		delay = min(delay*2, maxReconnectDelay)
	}
}

func (c *Client) newBackend(params *tdapi.SetTdlibParameters, storage *FileSessionStorage) *backend {
	dispatcher := tg.NewUpdateDispatcher()
	dispatcher.OnNewMessage(func(_ context.Context, e tg.Entities, u *tg.UpdateNewMessage) error {
		c.onNewMessage(e, u.Message)
		return nil
	})
	dispatcher.OnNewChannelMessage(func(_ context.Context, e tg.Entities, u *tg.UpdateNewChannelMessage) error {
		c.onNewMessage(e, u.Message)
		return nil
	})

	b := &backend{
		loginToken: qrlogin.OnLoginToken(dispatcher),
		dcs:        make(map[int]*tg.Client),
	}
	b.client = telegram.NewClient(params.APIID, params.APIHash, telegram.Options{
		SessionStorage: storage,
		UpdateHandler:  dispatcher,
		Device: telegram.DeviceConfig{
			DeviceModel:    params.DeviceModel,
			SystemVersion:  params.SystemVersion,
			AppVersion:     params.ApplicationVersion,
			SystemLangCode: params.SystemLanguageCode,
			LangCode:       params.SystemLanguageCode,
		},
		Middlewares: []telegram.Middleware{logInvocations(filepath.Base(c.rootPath))},
	})
	return b
}

func (c *Client) onConnected(ctx context.Context, b *backend) error {
	status, err := b.client.Auth().Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to check auth status: %w", err)
	}

	b.mu.Lock()
	b.api = b.client.API()
	b.mu.Unlock()

	c.mu.Lock()
	c.backend = b
	close(c.connected)
	c.mu.Unlock()

	c.logger.Info().Bool("authorized", status.Authorized).Msg("Connected to Telegram")

	switch state := c.currentState().(type) {
	case *tdapi.AuthorizationStateWaitTdlibParameters:
		if status.Authorized {
			c.authorized()
		} else {
			c.setState(&tdapi.AuthorizationStateWaitPhoneNumber{})
		}
	case *tdapi.AuthorizationStateReady:
		if !status.Authorized {
			c.logger.Warn().Str("state", state.Type()).Msg("Session was revoked")
			go c.terminate()
		}
	}

	<-ctx.Done()
	return ctx.Err()
}

// disconnected reports whether b ever got connected
func (c *Client) disconnected(b *backend) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.backend != b {
		return false
	}
	c.backend = nil
	c.connected = make(chan struct{})

	b.mu.Lock()
	for _, inv := range b.dcc {
		_ = inv.Close()
	}
	b.dcc = nil
	b.mu.Unlock()
	return true
}

// waitBackend blocks until a connection is up
func (c *Client) waitBackend(ctx context.Context) (*backend, error) {
	for {
		c.mu.Lock()
		b, connected := c.backend, c.connected
		c.mu.Unlock()

		if b != nil {
			return b, nil
		}
		if connected == nil {
			return nil, tdapi.NewError(400, "Initialization parameters are needed")
		}

		select {
		case <-connected:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// readyAPI returns the API of an authorized connection
func (c *Client) readyAPI(ctx context.Context) (*tg.Client, error) {
	if !c.isReady() {
		return nil, errUnauthorized()
	}
	b, err := c.waitBackend(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return b.mainAPI(), nil
}

func (b *backend) mainAPI() *tg.Client {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.api
}

// fileAPI returns the client of a file DC that answered FILE_MIGRATE before
func (b *backend) fileAPI(dc int) *tg.Client {
	b.mu.Lock()
	defer b.mu.Unlock()
	if api, ok := b.dcs[dc]; ok {
		return api
	}
	return b.api
}

func (b *backend) dcAPI(ctx context.Context, dc int) (*tg.Client, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if api, ok := b.dcs[dc]; ok {
		return api, nil
	}
	inv, err := b.client.DC(ctx, dc, maxDCConnections)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to DC %d: %w", dc, err)
	}
	api := tg.NewClient(inv)
	b.dcs[dc] = api
	b.dcc = append(b.dcc, inv)
	return api, nil
}

// withFileDC runs fn against the DC holding a file
func (c *Client) withFileDC(ctx context.Context, dc int, fn func(api *tg.Client) error) error {
	b, err := c.waitBackend(ctx)
	if err != nil {
		return err
	}

	err = fn(b.fileAPI(dc))
	rpcErr, ok := tgerr.As(err)
	if !ok || !rpcErr.IsType("FILE_MIGRATE") {
		return err
	}

	api, err := b.dcAPI(ctx, rpcErr.Argument)
	if err != nil {
		return err
	}
	return fn(api)
}

func (c *Client) onNewMessage(e tg.Entities, m tg.MessageClass) {
	msg, ok := m.(*tg.Message)
	if !ok {
		return
	}
	c.peers.addEntities(e)
	if !c.isReady() {
		return
	}
	c.push(&tdapi.UpdateNewMessage{Message: c.files.convertMessage(msg)})
}

// terminate drops a revoked session and closes the client
func (c *Client) terminate() {
	c.setState(&tdapi.AuthorizationStateLoggingOut{})
	c.dropSession()
	c.shutdown()
}

func (c *Client) dropSession() {
	c.mu.Lock()
	storage := c.storage
	c.mu.Unlock()

	if storage != nil {
		if err := storage.DeleteSession(); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to delete session")
		}
	}
}

// shutdown cancels all work, waits for it and pushes the final state
func (c *Client) shutdown() {
	c.closeOnce.Do(func() {
		c.stopQR()
		c.setState(&tdapi.AuthorizationStateClosing{})
		c.cancel()

		// a task being registered holds taskMu until wg.Add
		c.taskMu.Lock()
		c.taskMu.Unlock()
		c.wg.Wait()

		c.mu.Lock()
		runDone := c.runDone
		c.mu.Unlock()
		if runDone != nil {
			<-runDone
		}

		c.setState(&tdapi.AuthorizationStateClosed{})

		c.pushMu.Lock()
		c.closed = true
		close(c.updates)
		c.pushMu.Unlock()

		c.logger.Info().Msg("Backend client closed")
	})
}
