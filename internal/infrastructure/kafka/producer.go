package kafka

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"

	"github.com/Conte777/telegram-files/internal/infrastructure/metrics"
)

const (
	// maxStoredErrors is the maximum number of errors to keep in memory
	maxStoredErrors = 100
)

// ErrorCallback is called when a message fails to send
type ErrorCallback func(topic string, value []byte, err error)

// KafkaProducer publishes notifications to Kafka using an asynchronous producer
type KafkaProducer struct {
	producer      sarama.AsyncProducer
	logger        zerolog.Logger
	metrics       *metrics.Metrics
	errorCallback ErrorCallback
	wg            sync.WaitGroup
	closeOnce     sync.Once
	closeErr      error
	closed        bool
	closeMu       sync.Mutex
	errors        []error
	errorsMu      sync.Mutex
}

// ProducerConfig holds configuration for Kafka producer
type ProducerConfig struct {
	Brokers         []string
	ClientID        string
	Logger          zerolog.Logger
	Metrics         *metrics.Metrics
	ErrorCallback   ErrorCallback
	MaxMessageBytes int // default 1MB
	MaxRetries      int // default 5
}

// ValidateBrokers checks if Kafka brokers are accessible
func ValidateBrokers(brokers []string) error {
	if len(brokers) == 0 {
		return fmt.Errorf("no brokers specified")
	}

	config := sarama.NewConfig()
	config.Version = sarama.V2_6_0_0

	client, err := sarama.NewClient(brokers, config)
	if err != nil {
		return fmt.Errorf("failed to connect to Kafka brokers: %w", err)
	}
	defer client.Close()

	if err := client.RefreshMetadata(); err != nil {
		return fmt.Errorf("failed to refresh metadata from Kafka: %w", err)
	}

	return nil
}

// NewKafkaProducer creates a new Kafka producer.
//
// Messages are snappy-compressed, idempotent and hash-partitioned by key so
// notifications of one account stay ordered.
func NewKafkaProducer(cfg ProducerConfig) (*KafkaProducer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("no kafka brokers specified")
	}

	applyProducerDefaults(&cfg)

	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Idempotent = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Net.MaxOpenRequests = 1
	config.Producer.MaxMessageBytes = cfg.MaxMessageBytes
	config.Producer.Retry.Max = cfg.MaxRetries
	config.Producer.Partitioner = sarama.NewHashPartitioner
	config.ClientID = cfg.ClientID
	config.Version = sarama.V2_6_0_0

	producer, err := sarama.NewAsyncProducer(cfg.Brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	kp := newProducer(producer, cfg)

	cfg.Logger.Info().
		Strs("brokers", cfg.Brokers).
		Int("max_message_bytes", cfg.MaxMessageBytes).
		Int("max_retries", cfg.MaxRetries).
		Msg("Kafka producer initialized successfully")

	return kp, nil
}

func applyProducerDefaults(cfg *ProducerConfig) {
	if cfg.MaxMessageBytes <= 0 {
		cfg.MaxMessageBytes = 1000000
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "telegram-files-producer"
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.GetDefaultMetrics()
	}
}

// newProducer wraps an already created sarama producer and starts the
// result handlers
func newProducer(producer sarama.AsyncProducer, cfg ProducerConfig) *KafkaProducer {
	applyProducerDefaults(&cfg)

	kp := &KafkaProducer{
		producer:      producer,
		logger:        cfg.Logger,
		metrics:       cfg.Metrics,
		errorCallback: cfg.ErrorCallback,
		errors:        make([]error, 0),
	}

	kp.wg.Add(2)
	go kp.handleSuccesses()
	go kp.handleErrors()

	return kp
}

// Send queues value for topic. Delivery failures are reported asynchronously
// through the error handler and ErrorCallback.
func (p *KafkaProducer) Send(ctx context.Context, topic, key string, value []byte) error {
	if topic == "" {
		return fmt.Errorf("kafka topic is required")
	}

	p.closeMu.Lock()
	closed := p.closed
	p.closeMu.Unlock()
	if closed {
		return fmt.Errorf("kafka producer is closed")
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("context cancelled before sending: %w", ctx.Err())
	default:
	}

	msg := &sarama.ProducerMessage{
		Topic:     topic,
		Value:     sarama.ByteEncoder(value),
		Timestamp: time.Now(),
		Metadata:  time.Now(),
	}
	if key != "" {
		msg.Key = sarama.StringEncoder(key)
	}

	select {
	case p.producer.Input() <- msg:
		p.logger.Debug().
			Str("topic", topic).
			Str("key", key).
			Msg("Message queued for sending to Kafka")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("context cancelled while sending message: %w", ctx.Err())
	}
}

func (p *KafkaProducer) handleSuccesses() {
	defer p.wg.Done()

	for msg := range p.producer.Successes() {
		if queued, ok := msg.Metadata.(time.Time); ok {
			p.metrics.RecordKafkaMessage(time.Since(queued).Seconds())
		}
		p.logger.Debug().
			Str("topic", msg.Topic).
			Int32("partition", msg.Partition).
			Int64("offset", msg.Offset).
			Msg("Message sent to Kafka successfully")
	}

	p.logger.Info().Msg("Success handler stopped")
}

func (p *KafkaProducer) handleErrors() {
	defer p.wg.Done()

	for producerErr := range p.producer.Errors() {
		p.metrics.RecordKafkaError(errorType(producerErr.Err))
		p.logger.Error().
			Err(producerErr.Err).
			Str("topic", producerErr.Msg.Topic).
			Interface("key", producerErr.Msg.Key).
			Msg("Failed to send message to Kafka")

		p.errorsMu.Lock()
		if len(p.errors) < maxStoredErrors {
			p.errors = append(p.errors, producerErr.Err)
		} else if len(p.errors) == maxStoredErrors {
			p.logger.Warn().
				Int("max_errors", maxStoredErrors).
				Msg("Maximum stored errors limit reached, subsequent errors will be dropped")
			p.errors = append(p.errors, fmt.Errorf("max errors limit reached, subsequent errors dropped"))
		}
		p.errorsMu.Unlock()

		if p.errorCallback != nil {
			var value []byte
			if b, ok := producerErr.Msg.Value.(sarama.ByteEncoder); ok {
				value = []byte(b)
			}
			p.errorCallback(producerErr.Msg.Topic, value, producerErr.Err)
		}
	}

	p.logger.Info().Msg("Error handler stopped")
}

func errorType(err error) string {
	switch err {
	case sarama.ErrMessageSizeTooLarge:
		return "message_too_large"
	case sarama.ErrNotLeaderForPartition, sarama.ErrLeaderNotAvailable:
		return "leader_unavailable"
	case sarama.ErrRequestTimedOut:
		return "timeout"
	default:
		return "unknown"
	}
}

// IsHealthy returns true if the producer is open and not flooded with errors
func (p *KafkaProducer) IsHealthy() bool {
	if p.producer == nil {
		return false
	}

	p.closeMu.Lock()
	isClosed := p.closed
	p.closeMu.Unlock()

	if isClosed {
		return false
	}

	p.errorsMu.Lock()
	errorCount := len(p.errors)
	p.errorsMu.Unlock()

	return errorCount < maxStoredErrors
}

// Close shuts the producer down with a 10 second flush timeout
func (p *KafkaProducer) Close() error {
	return p.CloseWithTimeout(10 * time.Second)
}

// CloseWithTimeout flushes pending messages and stops the result handlers.
// It is idempotent and reports delivery errors seen during operation.
func (p *KafkaProducer) CloseWithTimeout(timeout time.Duration) error {
	p.closeOnce.Do(func() {
		p.logger.Info().
			Dur("timeout", timeout).
			Msg("Closing Kafka producer")

		p.closeMu.Lock()
		p.closed = true
		p.closeMu.Unlock()

		var errs []error

		if err := p.producer.Close(); err != nil {
			p.logger.Error().Err(err).Msg("Error closing Kafka producer")
			errs = append(errs, fmt.Errorf("producer close failed: %w", err))
		}

		done := make(chan struct{})
		go func() {
			p.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			p.logger.Debug().Msg("All handler goroutines finished")
		case <-time.After(timeout):
			p.logger.Error().
				Dur("timeout", timeout).
				Msg("Timeout waiting for handlers to finish")
			errs = append(errs, fmt.Errorf("close timeout after %s: handlers did not finish in time", timeout))
		}

		p.errorsMu.Lock()
		errorCount := len(p.errors)
		p.errorsMu.Unlock()

		if errorCount > 0 {
			p.logger.Warn().
				Int("error_count", errorCount).
				Msg("Kafka producer closed with errors")
			errs = append(errs, fmt.Errorf("producer had %d send errors during operation", errorCount))
		}

		p.closeMu.Lock()
		switch len(errs) {
		case 0:
			p.logger.Info().Msg("Kafka producer closed successfully")
		case 1:
			p.closeErr = errs[0]
		default:
			errMsg := "multiple errors during close:"
			for i, err := range errs {
				errMsg += fmt.Sprintf(" [%d] %v;", i+1, err)
			}
			p.closeErr = fmt.Errorf("%s", errMsg)
		}
		p.closeMu.Unlock()
	})

	p.closeMu.Lock()
	defer p.closeMu.Unlock()
	return p.closeErr
}
