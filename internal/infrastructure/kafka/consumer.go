package kafka

import (
	"context"
	"sync"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"
)

const maxRetries = 3

// MessageHandler processes the value of a consumed message
type MessageHandler func(ctx context.Context, topic string, value []byte) error

// KafkaConsumer feeds messages of a consumer group into a MessageHandler
type KafkaConsumer struct {
	consumerGroup sarama.ConsumerGroup
	topics        []string
	handler       MessageHandler
	logger        zerolog.Logger

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// NewKafkaConsumer creates a new Kafka consumer group member
func NewKafkaConsumer(
	brokers []string,
	groupID string,
	topics []string,
	handler MessageHandler,
	logger zerolog.Logger,
) (*KafkaConsumer, error) {
	config := sarama.NewConfig()
	config.Version = sarama.V2_8_0_0
	config.Consumer.Return.Errors = true
	config.Consumer.Offsets.Initial = sarama.OffsetNewest

	consumerGroup, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		logger.Error().Err(err).Msg("failed to create Kafka consumer group")
		return nil, err
	}

	logger.Info().
		Str("group_id", groupID).
		Strs("topics", topics).
		Msg("Kafka consumer group successfully initialized")

	return newConsumer(consumerGroup, topics, handler, logger), nil
}

func newConsumer(group sarama.ConsumerGroup, topics []string, handler MessageHandler, logger zerolog.Logger) *KafkaConsumer {
	return &KafkaConsumer{
		consumerGroup: group,
		topics:        topics,
		handler:       handler,
		logger:        logger,
		done:          make(chan struct{}),
	}
}

// Start begins consuming messages in a goroutine. The consume loop has its
// own context and runs until Close.
func (c *KafkaConsumer) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	go func() {
		defer close(c.done)
		for {
			if ctx.Err() != nil {
				c.logger.Info().Msg("consumer context canceled, stopping consumer group")
				return
			}

			if err := c.consumerGroup.Consume(ctx, c.topics, c); err != nil {
				c.logger.Error().Err(err).Msg("error from consumer group")
			}
		}
	}()

	c.logger.Info().
		Strs("topics", c.topics).
		Msg("Kafka consumer group started")
}

// Close stops the consume loop and shuts the group down
func (c *KafkaConsumer) Close() error {
	if c.consumerGroup == nil {
		c.logger.Info().Msg("Kafka consumer group is already closed or not initialized")
		return nil
	}

	var err error
	c.once.Do(func() {
		c.logger.Info().Msg("closing Kafka consumer group...")

		if c.cancel != nil {
			c.cancel()
		}

		if err = c.consumerGroup.Close(); err != nil {
			c.logger.Error().Err(err).Msg("failed to close Kafka consumer group")
			return
		}

		if c.cancel != nil {
			<-c.done
		}

		c.logger.Info().Msg("Kafka consumer group successfully closed")
	})
	return err
}

// Setup is called at the beginning of a new session
func (c *KafkaConsumer) Setup(session sarama.ConsumerGroupSession) error {
	c.logger.Info().
		Str("member_id", session.MemberID()).
		Msg("consumer group session setup completed")
	return nil
}

// Cleanup is called at the end of a session
func (c *KafkaConsumer) Cleanup(session sarama.ConsumerGroupSession) error {
	c.logger.Info().
		Str("member_id", session.MemberID()).
		Msg("consumer group session cleanup completed")
	return nil
}

// ConsumeClaim processes messages from a partition
func (c *KafkaConsumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	c.logger.Info().
		Str("topic", claim.Topic()).
		Int32("partition", claim.Partition()).
		Msg("starting message consumption from partition")

	for msg := range claim.Messages() {
		c.logger.Debug().
			Str("topic", msg.Topic).
			Int32("partition", msg.Partition).
			Int64("offset", msg.Offset).
			Msg("received message from Kafka")

		if err := c.processMessage(session.Context(), msg); err != nil {
			c.logger.Error().
				Err(err).
				Str("topic", msg.Topic).
				Int64("offset", msg.Offset).
				Msg("all retry attempts failed, skipping message")
		}

		session.MarkMessage(msg, "")
	}

	c.logger.Info().
		Str("topic", claim.Topic()).
		Int32("partition", claim.Partition()).
		Msg("stopped message consumption from partition")

	return nil
}

func (c *KafkaConsumer) processMessage(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var lastErr error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		lastErr = c.handler(ctx, msg.Topic, msg.Value)
		if lastErr == nil {
			return nil
		}

		c.logger.Warn().
			Err(lastErr).
			Int("attempt", attempt).
			Int("max_attempts", maxRetries).
			Str("topic", msg.Topic).
			Msg("handler failed to process message, retrying")
	}

	return lastErr
}
