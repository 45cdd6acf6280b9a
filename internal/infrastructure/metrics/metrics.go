package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the telegram-files service
type Metrics struct {
	// Account metrics
	ActiveAccounts      prometheus.Gauge
	TotalAccounts       prometheus.Gauge
	AuthorizationStates *prometheus.CounterVec
	AccountRateLimits   prometheus.Counter

	// Backend command metrics
	BackendCommands *prometheus.CounterVec
	BackendErrors   *prometheus.CounterVec
	BackendDuration prometheus.Histogram

	// Download metrics
	DownloadsStarted    prometheus.Counter
	DownloadTransitions *prometheus.CounterVec
	ReconcileQueueDepth prometheus.Gauge

	// Event metrics
	EventsPublished *prometheus.CounterVec
	EventsDropped   *prometheus.CounterVec
	ActiveSessions  prometheus.Gauge

	// Kafka metrics
	KafkaMessagesProduced prometheus.Counter
	KafkaProduceErrors    *prometheus.CounterVec
	KafkaProduceDuration  prometheus.Histogram

	// Transfer metrics
	TransfersTotal prometheus.Counter
	TransferErrors prometheus.Counter

	// Auto download metrics
	AutoDownloadQueued prometheus.Gauge
}

var (
	// DefaultMetrics is the default metrics instance
	DefaultMetrics *Metrics
	once           sync.Once
)

// GetDefaultMetrics returns the singleton metrics instance
func GetDefaultMetrics() *Metrics {
	once.Do(func() {
		DefaultMetrics = NewMetrics()
	})
	return DefaultMetrics
}

func init() {
	GetDefaultMetrics()
}

// NewMetrics creates a new Metrics instance with all counters and gauges
func NewMetrics() *Metrics {
	return &Metrics{
		ActiveAccounts: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "telegram_files_active_accounts",
			Help: "Current number of authorized accounts",
		}),
		TotalAccounts: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "telegram_files_total_accounts",
			Help: "Total number of running account actors",
		}),
		AuthorizationStates: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "telegram_files_authorization_states_total",
				Help: "Authorization state pushes received, by state",
			},
			[]string{"state"},
		),
		AccountRateLimits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "telegram_files_account_rate_limits_total",
			Help: "Total number of rate limit events from the backend",
		}),

		BackendCommands: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "telegram_files_backend_commands_total",
				Help: "Commands sent to the backend, by request type",
			},
			[]string{"method"},
		),
		BackendErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "telegram_files_backend_errors_total",
				Help: "Backend error results, by request type",
			},
			[]string{"method"},
		),
		BackendDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "telegram_files_backend_duration_seconds",
			Help:    "Round trip of backend commands in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),

		DownloadsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "telegram_files_downloads_started_total",
			Help: "Total number of downloads started",
		}),
		DownloadTransitions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "telegram_files_download_transitions_total",
				Help: "Reconciled download status changes, by new status",
			},
			[]string{"status"},
		),
		ReconcileQueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "telegram_files_reconcile_queue_depth",
			Help: "File pushes waiting for reconciliation across all accounts",
		}),

		EventsPublished: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "telegram_files_events_published_total",
				Help: "Events delivered to sessions, by type",
			},
			[]string{"type"},
		),
		EventsDropped: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "telegram_files_events_dropped_total",
				Help: "Events dropped because no session was connected, by type",
			},
			[]string{"type"},
		),
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "telegram_files_active_sessions",
			Help: "Currently connected event stream sessions",
		}),

		KafkaMessagesProduced: promauto.NewCounter(prometheus.CounterOpts{
			Name: "telegram_files_kafka_messages_produced_total",
			Help: "Total number of messages produced to Kafka",
		}),
		KafkaProduceErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "telegram_files_kafka_produce_errors_total",
				Help: "Total number of Kafka produce errors",
			},
			[]string{"error_type"},
		),
		KafkaProduceDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "telegram_files_kafka_produce_duration_seconds",
			Help:    "Duration of Kafka produce operations in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),

		TransfersTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "telegram_files_transfers_total",
			Help: "Completed files uploaded to object storage",
		}),
		TransferErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "telegram_files_transfer_errors_total",
			Help: "Failed uploads to object storage",
		}),

		AutoDownloadQueued: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "telegram_files_auto_download_queued",
			Help: "Messages waiting for an auto download slot",
		}),
	}
}

// UpdateAccounts updates account metrics
func (m *Metrics) UpdateAccounts(active, total int) {
	m.ActiveAccounts.Set(float64(active))
	m.TotalAccounts.Set(float64(total))
}

// RecordAuthorizationState counts an authorization push
func (m *Metrics) RecordAuthorizationState(state string) {
	m.AuthorizationStates.WithLabelValues(state).Inc()
}

// RecordAccountRateLimit records a rate limit event from the backend
func (m *Metrics) RecordAccountRateLimit() {
	m.AccountRateLimits.Inc()
}

// RecordBackendCommand records a finished backend round trip
func (m *Metrics) RecordBackendCommand(method string, duration float64, failed bool) {
	m.BackendCommands.WithLabelValues(method).Inc()
	m.BackendDuration.Observe(duration)
	if failed {
		m.BackendErrors.WithLabelValues(method).Inc()
	}
}

// RecordDownloadStarted counts a started download
func (m *Metrics) RecordDownloadStarted() {
	m.DownloadsStarted.Inc()
}

// RecordDownloadTransition counts a reconciled status change
func (m *Metrics) RecordDownloadTransition(status string) {
	m.DownloadTransitions.WithLabelValues(status).Inc()
}

// RecordEvent counts a delivered or dropped event
func (m *Metrics) RecordEvent(eventType string, delivered bool) {
	if delivered {
		m.EventsPublished.WithLabelValues(eventType).Inc()
		return
	}
	m.EventsDropped.WithLabelValues(eventType).Inc()
}

// RecordKafkaMessage records a Kafka message production with duration
func (m *Metrics) RecordKafkaMessage(duration float64) {
	m.KafkaMessagesProduced.Inc()
	m.KafkaProduceDuration.Observe(duration)
}

// RecordKafkaError records a Kafka production error with error type
func (m *Metrics) RecordKafkaError(errorType string) {
	if errorType == "" {
		errorType = "unknown"
	}
	m.KafkaProduceErrors.WithLabelValues(errorType).Inc()
}

// RecordTransfer records the outcome of an object storage upload
func (m *Metrics) RecordTransfer(err error) {
	if err != nil {
		m.TransferErrors.Inc()
		return
	}
	m.TransfersTotal.Inc()
}
