package kafka

import (
	"context"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/Conte777/telegram-files/config"
	"github.com/Conte777/telegram-files/internal/domain/events/bus"
	"github.com/Conte777/telegram-files/internal/domain/events/deps"
	"github.com/Conte777/telegram-files/internal/infrastructure/metrics"
)

// Module provides the notification broker for fx DI
var Module = fx.Module("kafka",
	fx.Provide(NewBrokerFx),
)

// NewBrokerFx returns the in-process bus when Kafka is disabled, otherwise a
// Kafka-backed broker whose consumer feeds the bus
func NewBrokerFx(
	lc fx.Lifecycle,
	kafkaCfg *config.KafkaConfig,
	local *bus.Bus,
	m *metrics.Metrics,
	logger zerolog.Logger,
) (deps.Broker, error) {
	if !kafkaCfg.Enabled {
		logger.Info().Msg("Kafka disabled, notifications stay in process")
		return local, nil
	}

	if err := ValidateBrokers(kafkaCfg.Brokers); err != nil {
		return nil, err
	}

	producer, err := NewKafkaProducer(ProducerConfig{
		Brokers: kafkaCfg.Brokers,
		Logger:  logger.With().Str("component", "kafka-producer").Logger(),
		Metrics: m,
	})
	if err != nil {
		return nil, err
	}

	broker := NewBroker(producer, local, kafkaCfg, logger)

	consumer, err := NewKafkaConsumer(
		kafkaCfg.Brokers,
		kafkaCfg.GroupID,
		broker.KafkaTopics(),
		broker.HandleMessage,
		logger.With().Str("component", "kafka-consumer").Logger(),
	)
	if err != nil {
		_ = producer.Close()
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			consumer.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := consumer.Close(); err != nil {
				logger.Error().Err(err).Msg("Failed to close Kafka consumer")
			}
			return producer.Close()
		},
	})

	return broker, nil
}
