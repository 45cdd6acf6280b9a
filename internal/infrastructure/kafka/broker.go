package kafka

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Conte777/telegram-files/config"
	"github.com/Conte777/telegram-files/internal/domain/events/deps"
	"github.com/Conte777/telegram-files/internal/domain/events/entities"
)

// Sender queues a message for a Kafka topic
type Sender interface {
	Send(ctx context.Context, topic, key string, value []byte) error
}

// Broker carries notifications across service instances. Notify produces to
// Kafka; consumed messages are handed to the local subscribers.
type Broker struct {
	sender Sender
	local  deps.Broker
	topics map[entities.Topic]string
	logger zerolog.Logger
}

var _ deps.Broker = (*Broker)(nil)

// NewBroker maps notification topics onto the configured Kafka topics
func NewBroker(sender Sender, local deps.Broker, cfg *config.KafkaConfig, logger zerolog.Logger) *Broker {
	return &Broker{
		sender: sender,
		local:  local,
		topics: map[entities.Topic]string{
			entities.TopicAutoDownloadUpdated: cfg.TopicAutoDownloadUpdate,
			entities.TopicMessageReceived:     cfg.TopicMessageReceived,
		},
		logger: logger.With().Str("component", "kafka-broker").Logger(),
	}
}

// Notify produces payload to the Kafka topic of topic
func (b *Broker) Notify(ctx context.Context, topic entities.Topic, payload []byte) error {
	kafkaTopic, ok := b.topics[topic]
	if !ok || kafkaTopic == "" {
		return fmt.Errorf("no kafka topic configured for %s", topic)
	}
	return b.sender.Send(ctx, kafkaTopic, string(topic), payload)
}

// Subscribe registers a local handler for topic
func (b *Broker) Subscribe(topic entities.Topic, handler deps.NotificationHandler) {
	b.local.Subscribe(topic, handler)
}

// KafkaTopics lists the Kafka topics the broker consumes
func (b *Broker) KafkaTopics() []string {
	topics := make([]string, 0, len(b.topics))
	for _, t := range b.topics {
		if t != "" {
			topics = append(topics, t)
		}
	}
	return topics
}

// HandleMessage is the MessageHandler of the notification consumer
func (b *Broker) HandleMessage(ctx context.Context, kafkaTopic string, value []byte) error {
	for topic, t := range b.topics {
		if t == kafkaTopic {
			return b.local.Notify(ctx, topic, value)
		}
	}

	b.logger.Warn().
		Str("topic", kafkaTopic).
		Msg("received message from unknown topic")
	return nil
}

// IsHealthy reports the health of the underlying producer
func (b *Broker) IsHealthy() bool {
	if checker, ok := b.sender.(interface{ IsHealthy() bool }); ok {
		return checker.IsHealthy()
	}
	return true
}
