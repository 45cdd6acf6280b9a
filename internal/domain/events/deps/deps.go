package deps

import (
	"context"

	"github.com/Conte777/telegram-files/internal/domain/events/entities"
)

// SessionSink is the live delivery address of a connected session
type SessionSink interface {
	// Deliver hands an encoded event to the session; false means it was not accepted
	Deliver(payload []byte) bool
}

// SessionResolver finds the live address of a session
type SessionResolver interface {
	Resolve(sessionID string) (SessionSink, bool)
}

// Publisher routes events to the session bound to an account
type Publisher interface {
	Publish(sessionID string, event entities.Envelope)
}

// NotificationHandler processes one process-wide notification
type NotificationHandler func(ctx context.Context, payload []byte) error

// Broker carries process-wide notifications between components
type Broker interface {
	Notify(ctx context.Context, topic entities.Topic, payload []byte) error
	Subscribe(topic entities.Topic, handler NotificationHandler)
}
