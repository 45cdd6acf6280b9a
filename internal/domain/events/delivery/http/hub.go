package http

import (
	"sync"

	"github.com/Conte777/telegram-files/internal/domain/events/deps"
	"github.com/Conte777/telegram-files/internal/infrastructure/metrics"
)

// sessionBuffer bounds the events queued for a slow stream
const sessionBuffer = 256

type subscription struct {
	sessionID string
	events    chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func (s *subscription) Deliver(payload []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}

	select {
	case s.events <- payload:
		return true
	default:
		return false
	}
}

func (s *subscription) close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// Hub tracks the event streams of connected sessions. It is the session
// resolver of the event publisher.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*subscription
	closed   bool
	metrics  *metrics.Metrics
}

var _ deps.SessionResolver = (*Hub)(nil)

// NewHub creates an empty hub
func NewHub(m *metrics.Metrics) *Hub {
	return &Hub{
		sessions: make(map[string]*subscription),
		metrics:  m,
	}
}

// Resolve returns the live stream of sessionID
func (h *Hub) Resolve(sessionID string) (deps.SessionSink, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.sessions[sessionID]
	if !ok {
		return nil, false
	}
	return s, true
}

// register attaches a new stream to sessionID, closing any previous stream
// of the same session
func (h *Hub) register(sessionID string) (*subscription, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, false
	}

	if prev, ok := h.sessions[sessionID]; ok {
		prev.close()
	}

	s := &subscription{
		sessionID: sessionID,
		events:    make(chan []byte, sessionBuffer),
		done:      make(chan struct{}),
	}
	h.sessions[sessionID] = s
	h.metrics.ActiveSessions.Set(float64(len(h.sessions)))
	return s, true
}

func (h *Hub) unregister(s *subscription) {
	s.close()

	h.mu.Lock()
	defer h.mu.Unlock()
	if cur, ok := h.sessions[s.sessionID]; ok && cur == s {
		delete(h.sessions, s.sessionID)
	}
	h.metrics.ActiveSessions.Set(float64(len(h.sessions)))
}

// Count returns the number of connected sessions
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Close ends every stream and rejects new ones
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for id, s := range h.sessions {
		s.close()
		delete(h.sessions, id)
	}
	h.metrics.ActiveSessions.Set(0)
}
