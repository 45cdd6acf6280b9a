// Package manager keeps one running actor per account root.
package manager

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Conte777/telegram-files/config"
	"github.com/Conte777/telegram-files/internal/domain/account/actor"
	"github.com/Conte777/telegram-files/internal/domain/account/deps"
	"github.com/Conte777/telegram-files/internal/domain/account/entities"
	accounterrors "github.com/Conte777/telegram-files/internal/domain/account/errors"
	"github.com/Conte777/telegram-files/internal/infrastructure/metrics"
)

// defaultMaxConcurrent bounds how many stored accounts are opened at once
const defaultMaxConcurrent = 10

// InitializationReport summarizes the restore of stored accounts
type InitializationReport struct {
	TotalAccounts      int
	SuccessfulAccounts int
	FailedAccounts     int
	// Errors is keyed by account id
	Errors map[string]error
}

// Manager owns the account actors, keyed by root id
type Manager struct {
	mu     sync.RWMutex
	actors map[string]*actor.Actor

	dataDir       string
	factory       deps.ClientFactory
	repo          deps.AccountRepository
	actorDeps     actor.Deps
	metrics       *metrics.Metrics
	logger        zerolog.Logger
	maxConcurrent int
}

var _ deps.AccountManager = (*Manager)(nil)

// New creates a manager storing account roots under cfg.DataDir
func New(cfg *config.TelegramConfig, factory deps.ClientFactory, repo deps.AccountRepository, actorDeps actor.Deps) *Manager {
	return &Manager{
		actors:        make(map[string]*actor.Actor),
		dataDir:       cfg.DataDir,
		factory:       factory,
		repo:          repo,
		actorDeps:     actorDeps,
		metrics:       actorDeps.Metrics,
		logger:        actorDeps.Logger.With().Str("component", "account_manager").Logger(),
		maxConcurrent: defaultMaxConcurrent,
	}
}

// Start restores every stored account in parallel. Roots left behind by
// accounts that never finished login are removed.
func (m *Manager) Start(ctx context.Context) (*InitializationReport, error) {
	if err := os.MkdirAll(m.dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	stored, err := m.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	report := &InitializationReport{
		TotalAccounts: len(stored),
		Errors:        make(map[string]error),
	}
	m.removeOrphans(stored)

	if len(stored) == 0 {
		m.logger.Info().Msg("No stored accounts to restore")
		return report, nil
	}

	m.logger.Info().
		Int("count", len(stored)).
		Int("max_concurrent", m.maxConcurrent).
		Msg("Restoring stored accounts")

	var (
		wg       sync.WaitGroup
		reportMu sync.Mutex
	)
	semaphore := make(chan struct{}, m.maxConcurrent)

	fail := func(id string, err error) {
		reportMu.Lock()
		report.Errors[id] = err
		report.FailedAccounts++
		reportMu.Unlock()
	}

	for _, account := range stored {
		wg.Add(1)
		go func(account *entities.Account) {
			defer wg.Done()
			id := strconv.FormatInt(account.ID, 10)

			select {
			case semaphore <- struct{}{}:
				defer func() { <-semaphore }()
			case <-ctx.Done():
				fail(id, ctx.Err())
				return
			}

			if err := m.restore(account); err != nil {
				m.logger.Warn().Err(err).Int64("account", account.ID).Msg("Failed to restore account")
				fail(id, err)
				return
			}

			reportMu.Lock()
			report.SuccessfulAccounts++
			reportMu.Unlock()
		}(account)
	}
	wg.Wait()

	m.updateMetrics()
	m.logger.Info().
		Int("total", report.TotalAccounts).
		Int("successful", report.SuccessfulAccounts).
		Int("failed", report.FailedAccounts).
		Msg("Account restore completed")

	return report, nil
}

func (m *Manager) restore(account *entities.Account) error {
	a, err := m.open(account.RootPath, account, true)
	if err != nil {
		return err
	}
	return m.add(a)
}

// open builds an actor for rootPath. Stored accounts must still have their root.
func (m *Manager) open(rootPath string, account *entities.Account, check bool) (*actor.Actor, error) {
	client, err := m.factory.Open(rootPath)
	if err != nil {
		return nil, fmt.Errorf("open backend client: %w", err)
	}

	a := actor.New(rootPath, account, client, m.actorDeps, m.onClosed)
	if check {
		if err := a.Check(); err != nil {
			_ = client.Close()
			return nil, err
		}
	}
	return a, nil
}

// add registers a and starts it
func (m *Manager) add(a *actor.Actor) error {
	m.mu.Lock()
	if _, exists := m.actors[a.RootID()]; exists {
		m.mu.Unlock()
		a.Stop()
		return accounterrors.ErrAccountAlreadyExists
	}
	m.actors[a.RootID()] = a
	m.mu.Unlock()

	if err := a.Start(); err != nil {
		m.mu.Lock()
		delete(m.actors, a.RootID())
		m.mu.Unlock()
		a.Stop()
		return err
	}
	return nil
}

func (m *Manager) removeOrphans(stored []*entities.Account) {
	known := make(map[string]struct{}, len(stored))
	for _, account := range stored {
		known[filepath.Clean(account.RootPath)] = struct{}{}
	}

	dirs, err := os.ReadDir(m.dataDir)
	if err != nil {
		m.logger.Warn().Err(err).Str("data_dir", m.dataDir).Msg("Failed to scan data directory")
		return
	}

	for _, dir := range dirs {
		if !dir.IsDir() || !strings.HasPrefix(dir.Name(), entities.RootDirPrefix) {
			continue
		}
		root := filepath.Join(m.dataDir, dir.Name())
		if _, ok := known[filepath.Clean(root)]; ok {
			continue
		}
		if err := os.RemoveAll(root); err != nil {
			m.logger.Warn().Err(err).Str("root_path", root).Msg("Failed to remove unfinished account root")
			continue
		}
		m.logger.Info().Str("root_path", root).Msg("Removed unfinished account root")
	}
}

// Create starts a pending account in a fresh root directory
func (m *Manager) Create(ctx context.Context) (deps.Account, error) {
	root := filepath.Join(m.dataDir, entities.RootDirPrefix+actor.NewCode())
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create account root: %w", err)
	}

	a, err := m.open(root, nil, false)
	if err != nil {
		_ = os.RemoveAll(root)
		return nil, err
	}
	if err := m.add(a); err != nil {
		return nil, err
	}

	m.updateMetrics()
	m.logger.Info().Str("account", a.RootID()).Str("root_path", root).Msg("Account created")
	return a, nil
}

// Get finds an account by root id, then by telegram id
func (m *Manager) Get(id string) (deps.Account, error) {
	a, err := m.get(id)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (m *Manager) get(id string) (*actor.Actor, error) {
	m.mu.RLock()
	a, ok := m.actors[id]
	m.mu.RUnlock()
	if ok {
		return a, nil
	}

	telegramID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, accounterrors.ErrAccountNotFound
	}
	return m.getByTelegramID(telegramID)
}

func (m *Manager) GetByTelegramID(telegramID int64) (deps.Account, error) {
	a, err := m.getByTelegramID(telegramID)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (m *Manager) getByTelegramID(telegramID int64) (*actor.Actor, error) {
	if telegramID == 0 {
		return nil, accounterrors.ErrAccountNotFound
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.actors {
		if a.TelegramID() == telegramID {
			return a, nil
		}
	}
	return nil, accounterrors.ErrAccountNotFound
}

// List returns the accounts ordered by root id
func (m *Manager) List() []deps.Account {
	m.mu.RLock()
	actors := make([]*actor.Actor, 0, len(m.actors))
	for _, a := range m.actors {
		actors = append(actors, a)
	}
	m.mu.RUnlock()

	sort.Slice(actors, func(i, j int) bool { return actors[i].RootID() < actors[j].RootID() })

	out := make([]deps.Account, len(actors))
	for i, a := range actors {
		out[i] = a
	}
	return out
}

// Remove stops an account and deletes its record and root directory
func (m *Manager) Remove(ctx context.Context, id string) error {
	a, err := m.get(id)
	if err != nil {
		return err
	}
	if !m.detach(a) {
		return accounterrors.ErrAccountNotFound
	}

	return m.teardown(ctx, a)
}

// detach removes a from the pool; false if it was already gone
func (m *Manager) detach(a *actor.Actor) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if current, ok := m.actors[a.RootID()]; !ok || current != a {
		return false
	}
	delete(m.actors, a.RootID())
	return true
}

func (m *Manager) teardown(ctx context.Context, a *actor.Actor) error {
	a.Stop()
	select {
	case <-a.Stopped():
	case <-ctx.Done():
		return ctx.Err()
	}

	if telegramID := a.TelegramID(); telegramID != 0 {
		if err := m.repo.Delete(ctx, telegramID); err != nil {
			return err
		}
	}
	if err := os.RemoveAll(a.RootPath()); err != nil {
		return fmt.Errorf("failed to remove account root: %w", err)
	}

	m.updateMetrics()
	m.logger.Info().Str("account", a.RootID()).Int64("telegram_id", a.TelegramID()).Msg("Account removed")
	return nil
}

// onClosed drops an account whose backend session was closed by logout
func (m *Manager) onClosed(a *actor.Actor) {
	if !m.detach(a) {
		return
	}
	if err := m.teardown(context.Background(), a); err != nil {
		m.logger.Error().Err(err).Str("account", a.RootID()).Msg("Failed to tear down closed account")
	}
}

// Counts reports authorized and total accounts
func (m *Manager) Counts() (active, total int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.actors {
		if a.Authorized() {
			active++
		}
	}
	return active, len(m.actors)
}

func (m *Manager) updateMetrics() {
	active, total := m.Counts()
	m.metrics.UpdateAccounts(active, total)
}

// Shutdown stops every actor and waits for them within ctx. Account state
// on disk is kept.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	actors := make([]*actor.Actor, 0, len(m.actors))
	for _, a := range m.actors {
		actors = append(actors, a)
	}
	m.actors = make(map[string]*actor.Actor)
	m.mu.Unlock()

	for _, a := range actors {
		a.Stop()
	}
	for _, a := range actors {
		select {
		case <-a.Stopped():
		case <-ctx.Done():
			return fmt.Errorf("account shutdown interrupted: %w", ctx.Err())
		}
	}

	m.updateMetrics()
	m.logger.Info().Int("count", len(actors)).Msg("All accounts stopped")
	return nil
}
