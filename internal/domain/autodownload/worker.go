// Package autodownload starts downloads for new messages of chats that have
// auto download enabled.
package autodownload

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Conte777/telegram-files/config"
	accountdeps "github.com/Conte777/telegram-files/internal/domain/account/deps"
	eventsdeps "github.com/Conte777/telegram-files/internal/domain/events/deps"
	eventsentities "github.com/Conte777/telegram-files/internal/domain/events/entities"
	filesdeps "github.com/Conte777/telegram-files/internal/domain/files/deps"
	filesentities "github.com/Conte777/telegram-files/internal/domain/files/entities"
	settingsdeps "github.com/Conte777/telegram-files/internal/domain/settings/deps"
	settingsentities "github.com/Conte777/telegram-files/internal/domain/settings/entities"
	"github.com/Conte777/telegram-files/internal/infrastructure/metrics"
	pkgerrors "github.com/Conte777/telegram-files/pkg/errors"
)

const (
	defaultInterval = 10 * time.Second
	drainTimeout    = 30 * time.Second
)

// Worker queues messages of auto-enabled chats and starts them while the
// account stays under autoDownloadLimit active downloads
type Worker struct {
	manager  accountdeps.AccountManager
	settings settingsdeps.SettingsService
	files    filesdeps.FileRepository
	broker   eventsdeps.Broker
	interval time.Duration
	history  *history
	metrics  *metrics.Metrics
	logger   zerolog.Logger

	mu      sync.Mutex
	enabled *settingsentities.AutoDownloadSetting
	queues  map[int64][]messageKey

	subscribe sync.Once
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewWorker creates an auto download worker
func NewWorker(
	manager accountdeps.AccountManager,
	settings settingsdeps.SettingsService,
	files filesdeps.FileRepository,
	broker eventsdeps.Broker,
	cfg *config.AutoDownloadConfig,
	m *metrics.Metrics,
	logger zerolog.Logger,
) (*Worker, error) {
	h, err := newHistory(cfg.HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to create auto download history: %w", err)
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultInterval
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Worker{
		manager:  manager,
		settings: settings,
		files:    files,
		broker:   broker,
		interval: interval,
		history:  h,
		metrics:  m,
		logger:   logger.With().Str("component", "auto_download").Logger(),
		queues:   make(map[int64][]messageKey),
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Start loads the enabled chats, subscribes to notifications and starts the
// drain loop
func (w *Worker) Start(ctx context.Context) error {
	setting, err := w.settings.AutoDownload(ctx)
	if err != nil {
		return fmt.Errorf("failed to load auto download setting: %w", err)
	}
	w.setEnabled(setting)

	w.subscribe.Do(func() {
		w.broker.Subscribe(eventsentities.TopicMessageReceived, w.handleMessageReceived)
		w.broker.Subscribe(eventsentities.TopicAutoDownloadUpdated, w.handleAutoDownloadUpdated)
	})

	w.logger.Info().
		Dur("interval", w.interval).
		Int("chats", len(setting.Items)).
		Msg("Starting auto download worker")

	w.wg.Add(1)
	go w.run()
	return nil
}

// Stop stops the drain loop and waits for it
func (w *Worker) Stop() {
	w.cancel()
	w.wg.Wait()
	w.logger.Info().Msg("Auto download worker stopped")
}

func (w *Worker) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(w.ctx, drainTimeout)
			w.drain(ctx)
			cancel()
		}
	}
}

func (w *Worker) handleMessageReceived(_ context.Context, payload []byte) error {
	var msg eventsentities.MessageReceived
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("invalid message-received payload: %w", err)
	}

	w.enqueue(messageKey{TelegramID: msg.TelegramID, ChatID: msg.ChatID, MessageID: msg.MessageID})
	return nil
}

func (w *Worker) handleAutoDownloadUpdated(_ context.Context, payload []byte) error {
	var update eventsentities.AutoDownloadUpdated
	if err := json.Unmarshal(payload, &update); err != nil {
		return fmt.Errorf("invalid auto-download-updated payload: %w", err)
	}

	setting := &settingsentities.AutoDownloadSetting{}
	if update.Setting != "" {
		if err := json.Unmarshal([]byte(update.Setting), setting); err != nil {
			return fmt.Errorf("invalid auto download setting: %w", err)
		}
	}

	w.setEnabled(setting)
	w.logger.Debug().Int("chats", len(setting.Items)).Msg("Auto download chats updated")
	return nil
}

// setEnabled replaces the enabled chats and drops queued messages of chats
// that are no longer enabled
func (w *Worker) setEnabled(setting *settingsentities.AutoDownloadSetting) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.enabled = setting
	for telegramID, queue := range w.queues {
		kept := queue[:0]
		for _, key := range queue {
			if setting.Exists(key.TelegramID, key.ChatID) {
				kept = append(kept, key)
			}
		}
		if len(kept) == 0 {
			delete(w.queues, telegramID)
			continue
		}
		w.queues[telegramID] = kept
	}
	w.updateQueueMetric()
}

// enqueue reports whether key was queued
func (w *Worker) enqueue(key messageKey) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.enabled == nil || !w.enabled.Exists(key.TelegramID, key.ChatID) {
		return false
	}
	if !w.history.Add(key) {
		return false
	}

	w.queues[key.TelegramID] = append(w.queues[key.TelegramID], key)
	w.updateQueueMetric()
	return true
}

// take pops up to n queued messages of an account
func (w *Worker) take(telegramID int64, n int) []messageKey {
	w.mu.Lock()
	defer w.mu.Unlock()

	queue := w.queues[telegramID]
	if n > len(queue) {
		n = len(queue)
	}
	batch := append([]messageKey(nil), queue[:n]...)
	if n == len(queue) {
		delete(w.queues, telegramID)
	} else {
		w.queues[telegramID] = queue[n:]
	}
	w.updateQueueMetric()
	return batch
}

func (w *Worker) queued() []int64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	ids := make([]int64, 0, len(w.queues))
	for id := range w.queues {
		ids = append(ids, id)
	}
	return ids
}

// updateQueueMetric must be called with mu held
func (w *Worker) updateQueueMetric() {
	total := 0
	for _, queue := range w.queues {
		total += len(queue)
	}
	w.metrics.AutoDownloadQueued.Set(float64(total))
}

// drain starts queued messages for every account with free slots
func (w *Worker) drain(ctx context.Context) {
	accounts := w.queued()
	if len(accounts) == 0 {
		return
	}

	limit, err := w.settings.AutoDownloadLimit(ctx)
	if err != nil {
		w.logger.Error().Err(err).Msg("Failed to read auto download limit")
		return
	}

	for _, telegramID := range accounts {
		if ctx.Err() != nil {
			return
		}
		w.drainAccount(ctx, telegramID, limit)
	}
}

func (w *Worker) drainAccount(ctx context.Context, telegramID int64, limit int) {
	logger := w.logger.With().Int64("account", telegramID).Logger()

	account, err := w.manager.GetByTelegramID(telegramID)
	if err != nil || !account.Authorized() {
		logger.Debug().Msg("Account not ready, keeping auto download queue")
		return
	}

	active, err := w.files.CountByStatus(ctx, telegramID, filesentities.StatusDownloading)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to count active downloads")
		return
	}

	free := limit - int(active)
	if free <= 0 {
		return
	}

	for _, key := range w.take(telegramID, free) {
		err := account.StartMessageDownload(ctx, key.ChatID, key.MessageID)
		if err == nil {
			logger.Info().
				Int64("chat_id", key.ChatID).
				Int64("message_id", key.MessageID).
				Msg("Auto download started")
			continue
		}

		event := logger.Warn()
		if skippable(err) {
			event = logger.Debug()
		}
		event.Err(err).
			Int64("chat_id", key.ChatID).
			Int64("message_id", key.MessageID).
			Msg("Auto download skipped")
	}
}

// skippable errors mean the message has nothing left to download
func skippable(err error) bool {
	var precondition *pkgerrors.PreconditionError
	var unsupported *pkgerrors.UnsupportedContentError
	return errors.As(err, &precondition) || errors.As(err, &unsupported)
}
