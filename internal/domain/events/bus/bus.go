// Package bus is the in-process notification broker used when Kafka is disabled.
package bus

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Conte777/telegram-files/internal/domain/events/deps"
	"github.com/Conte777/telegram-files/internal/domain/events/entities"
)

// Bus fans notifications out to local subscribers
type Bus struct {
	mu       sync.RWMutex
	handlers map[entities.Topic][]deps.NotificationHandler
	logger   zerolog.Logger
}

var _ deps.Broker = (*Bus)(nil)

// New creates an empty bus
func New(logger zerolog.Logger) *Bus {
	return &Bus{
		handlers: make(map[entities.Topic][]deps.NotificationHandler),
		logger:   logger.With().Str("component", "bus").Logger(),
	}
}

// Subscribe registers handler for topic
func (b *Bus) Subscribe(topic entities.Topic, handler deps.NotificationHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], handler)
}

// Notify runs every handler of topic in order. Handler errors are logged and
// do not stop delivery to the remaining handlers.
func (b *Bus) Notify(ctx context.Context, topic entities.Topic, payload []byte) error {
	b.mu.RLock()
	handlers := append([]deps.NotificationHandler(nil), b.handlers[topic]...)
	b.mu.RUnlock()

	for _, h := range handlers {
		if err := h(ctx, payload); err != nil {
			b.logger.Warn().Err(err).Str("topic", string(topic)).Msg("Notification handler failed")
		}
	}
	return nil
}
