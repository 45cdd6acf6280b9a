package publisher

import (
	"github.com/rs/zerolog"

	"github.com/Conte777/telegram-files/internal/domain/events/deps"
	"github.com/Conte777/telegram-files/internal/domain/events/entities"
	"github.com/Conte777/telegram-files/internal/infrastructure/metrics"
)

// Publisher delivers events to connected sessions. Events for sessions that
// are not connected are dropped.
type Publisher struct {
	resolver deps.SessionResolver
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// New creates a new event publisher
func New(resolver deps.SessionResolver, m *metrics.Metrics, logger zerolog.Logger) *Publisher {
	return &Publisher{
		resolver: resolver,
		metrics:  m,
		logger:   logger.With().Str("component", "event-publisher").Logger(),
	}
}

// Publish sends event to the session
func (p *Publisher) Publish(sessionID string, event entities.Envelope) {
	if sessionID == "" {
		p.drop(sessionID, event, "no session bound")
		return
	}

	sink, ok := p.resolver.Resolve(sessionID)
	if !ok {
		p.drop(sessionID, event, "session not connected")
		return
	}

	payload, err := event.Encode()
	if err != nil {
		p.logger.Error().Err(err).Str("type", string(event.Type)).Msg("Failed to encode event")
		return
	}

	if !sink.Deliver(payload) {
		p.drop(sessionID, event, "session buffer full")
		return
	}

	p.metrics.RecordEvent(string(event.Type), true)
}

func (p *Publisher) drop(sessionID string, event entities.Envelope, reason string) {
	p.metrics.RecordEvent(string(event.Type), false)
	p.logger.Debug().
		Str("session_id", sessionID).
		Str("type", string(event.Type)).
		Str("reason", reason).
		Msg("Event dropped")
}
