package observer

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricsEnabled = true // Flag to control metric collection

	// Labels for inbound webhook metrics
	webhookLabels = []string{"message_type", "company_id", "line"}
	// Labels for tracking specific processing outcomes
	webhookActionLabels = []string{"message_type", "company_id", "line", "action", "error_type"}

	// Inbound webhook counters
	WebhookMessagesReceivedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "centralwap_router_webhook_messages_received_total",
			Help: "Total number of inbound messages received on the webhook, labeled by origin line.",
		},
		webhookLabels,
	)
	WebhookMessagesProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "centralwap_router_webhook_messages_processed_total",
			Help: "Total number of inbound messages successfully normalized and persisted.",
		},
		webhookLabels,
	)
	WebhookMessagesFailedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "centralwap_router_webhook_messages_failed_total",
			Help: "Total number of inbound messages that failed processing (logged and skipped).",
		},
		webhookLabels,
	)

	// Histogram for full inbound processing duration
	WebhookProcessingDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "centralwap_router_webhook_processing_duration_seconds",
			Help:    "Histogram of inbound message processing durations.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~20s
		},
		webhookLabels,
	)

	// Histogram for conversation routing resolution
	RoutingResolutionDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "centralwap_router_routing_resolution_duration_seconds",
			Help:    "Histogram of conversation routing durations (contact and conversation resolution).",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
		},
		webhookLabels,
	)

	// Counter for specific processing outcomes
	WebhookProcessingActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "centralwap_router_webhook_processing_actions_total",
			Help: "Total count of specific actions taken after inbound processing, labeled by error type.",
		},
		webhookActionLabels,
	)

	// Global metrics instance
	Metrics *metricsStore
)

// Metrics related to outbound dispatch
var (
	dispatchLabels = []string{"transport", "target", "company_id"}

	dispatchAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "centralwap_router_dispatch_attempts_total",
			Help: "Total number of outbound dispatch attempts, labeled by transport mode.",
		},
		dispatchLabels,
	)
	dispatchFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "centralwap_router_dispatch_failures_total",
			Help: "Total number of outbound dispatch attempts rejected by the upstream target.",
		},
		dispatchLabels,
	)
	dispatchDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "centralwap_router_dispatch_duration_seconds",
			Help:    "Histogram of outbound dispatch request durations.",
			Buckets: prometheus.DefBuckets, // Default buckets: .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10
		},
		dispatchLabels,
	)
)

// Labels for database operations
var (
	dbOperationLabels = []string{"operation", "entity", "company_id", "status"}

	DatabaseOperationDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "centralwap_router_db_operation_duration_seconds",
			Help:    "Histogram of database operation durations.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~16s
		},
		dbOperationLabels,
	)
)

// --- Scheduled Message Worker Pool Metrics ---
var (
	scheduledLabels       = []string{"company_id"}
	scheduledStatusLabels = []string{"company_id", "status"}

	scheduledTasksSubmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "centralwap_router_scheduled_tasks_submitted_total",
			Help: "Total number of scheduled message tasks submitted to the worker pool.",
		},
		scheduledLabels,
	)
	scheduledTasksProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "centralwap_router_scheduled_tasks_processed_total",
			Help: "Total number of scheduled message tasks processed, labeled by final status.",
		},
		scheduledStatusLabels,
	)
	scheduledProcessingDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "centralwap_router_scheduled_processing_duration_seconds",
			Help:    "Histogram of processing durations for scheduled message tasks.",
			Buckets: prometheus.DefBuckets,
		},
		scheduledLabels,
	)
	scheduledQueueLength = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "centralwap_router_scheduled_queue_length",
		Help: "Approximate number of tasks waiting in the scheduled message worker pool queue.",
	})
)

// --- Event Publishing Metrics ---
var (
	publishLabels = []string{"subject", "company_id"}

	eventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "centralwap_router_events_published_total",
			Help: "Total number of domain events successfully published to JetStream.",
		},
		publishLabels,
	)
	eventPublishErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "centralwap_router_event_publish_errors_total",
			Help: "Total number of errors encountered while publishing domain events.",
		},
		publishLabels,
	)
)

// metricsStore holds references to all Prometheus metrics.
type metricsStore struct{}

// InitMetrics initializes and registers the Prometheus metrics if enabled.
// Call this function during application startup.
func InitMetrics(enabled bool) {
	if !enabled {
		metricsEnabled = false
		return
	}

	metricsEnabled = true

	// Metrics are already auto-registered via promauto, so no explicit
	// registration is needed here.
	Metrics = &metricsStore{}
}

// IncWebhookMessagesReceived increments the inbound received counter.
func IncWebhookMessagesReceived(messageType, tenant, line string) {
	if !metricsEnabled {
		return
	}
	WebhookMessagesReceivedTotal.WithLabelValues(messageType, sanitizeTenant(tenant), line).Inc()
}

// IncWebhookMessagesProcessed increments the inbound processed counter.
func IncWebhookMessagesProcessed(messageType, tenant, line string) {
	if !metricsEnabled {
		return
	}
	WebhookMessagesProcessedTotal.WithLabelValues(messageType, sanitizeTenant(tenant), line).Inc()
}

// IncWebhookMessagesFailed increments the inbound failed counter.
func IncWebhookMessagesFailed(messageType, tenant, line string) {
	if !metricsEnabled {
		return
	}
	WebhookMessagesFailedTotal.WithLabelValues(messageType, sanitizeTenant(tenant), line).Inc()
}

// sanitizeTenant ensures the tenant label is valid or returns a default value.
func sanitizeTenant(tenant string) string {
	if tenant == "" {
		return "unknown"
	}
	return tenant
}

// ObserveWebhookProcessingDuration records the full processing time for an inbound message.
func ObserveWebhookProcessingDuration(messageType, tenant, line string, duration time.Duration) {
	if !metricsEnabled {
		return
	}
	WebhookProcessingDurationSeconds.WithLabelValues(messageType, sanitizeTenant(tenant), line).Observe(duration.Seconds())
}

// ObserveRoutingResolutionDuration records the time spent resolving contact and conversation.
func ObserveRoutingResolutionDuration(messageType, tenant, line string, duration time.Duration) {
	if !metricsEnabled {
		return
	}
	RoutingResolutionDurationSeconds.WithLabelValues(messageType, sanitizeTenant(tenant), line).Observe(duration.Seconds())
}

// ObserveDbOperationDuration records the duration for a database operation.
func ObserveDbOperationDuration(operation, entity, companyID string, duration time.Duration, err error) {
	if !metricsEnabled {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	DatabaseOperationDurationSeconds.WithLabelValues(operation, entity, sanitizeTenant(companyID), status).Observe(duration.Seconds())
}

// IncWebhookProcessingAction increments the counter for a specific processing outcome.
func IncWebhookProcessingAction(messageType, tenant, line, action, errorType string) {
	if !metricsEnabled {
		return
	}
	sanitizedErrorType := SanitizeErrorType(errorType)
	WebhookProcessingActionsTotal.WithLabelValues(messageType, sanitizeTenant(tenant), line, action, sanitizedErrorType).Inc()
}

// --- Dispatch Metric Helpers ---

// IncDispatchAttempt increments the outbound dispatch attempt counter.
func IncDispatchAttempt(transport, target, companyID string) {
	if !metricsEnabled {
		return
	}
	dispatchAttemptsTotal.WithLabelValues(transport, target, sanitizeTenant(companyID)).Inc()
}

// IncDispatchFailure increments the outbound dispatch failure counter.
func IncDispatchFailure(transport, target, companyID string) {
	if !metricsEnabled {
		return
	}
	dispatchFailuresTotal.WithLabelValues(transport, target, sanitizeTenant(companyID)).Inc()
}

// ObserveDispatchDuration records the duration of an outbound dispatch request.
func ObserveDispatchDuration(transport, target, companyID string, duration time.Duration) {
	if !metricsEnabled {
		return
	}
	dispatchDurationSeconds.WithLabelValues(transport, target, sanitizeTenant(companyID)).Observe(duration.Seconds())
}

// --- Scheduled Worker Metric Helpers ---

// IncScheduledTasksSubmitted increments the counter for submitted scheduled tasks.
func IncScheduledTasksSubmitted(companyID string) {
	if !metricsEnabled {
		return
	}
	scheduledTasksSubmittedTotal.WithLabelValues(sanitizeTenant(companyID)).Inc()
}

// IncScheduledTasksProcessed increments the counter for processed scheduled tasks.
func IncScheduledTasksProcessed(companyID, status string) {
	if !metricsEnabled {
		return
	}
	scheduledTasksProcessedTotal.WithLabelValues(sanitizeTenant(companyID), status).Inc()
}

// ObserveScheduledProcessingDuration records the processing time for a scheduled task.
func ObserveScheduledProcessingDuration(companyID string, duration time.Duration) {
	if !metricsEnabled {
		return
	}
	scheduledProcessingDurationSeconds.WithLabelValues(sanitizeTenant(companyID)).Observe(duration.Seconds())
}

// SetScheduledQueueLength sets the current scheduled worker queue length.
func SetScheduledQueueLength(length int) {
	if !metricsEnabled {
		return
	}
	scheduledQueueLength.Set(float64(length))
}

// --- Event Publishing Metric Helpers ---

// IncEventsPublished increments the counter for successfully published events.
func IncEventsPublished(subject, companyID string) {
	if !metricsEnabled {
		return
	}
	eventsPublishedTotal.WithLabelValues(subject, sanitizeTenant(companyID)).Inc()
}

// IncEventPublishErrors increments the counter for event publish errors.
func IncEventPublishErrors(subject, companyID string) {
	if !metricsEnabled {
		return
	}
	eventPublishErrorsTotal.WithLabelValues(subject, sanitizeTenant(companyID)).Inc()
}

// SanitizeErrorType maps specific errors or provides a default category.
// Keep this simple to avoid high cardinality.
func SanitizeErrorType(errStr string) string {
	if errStr == "" || errStr == "none" {
		return "none"
	}

	switch {
	case strings.Contains(errStr, "database"), strings.Contains(errStr, "SQL"), strings.Contains(errStr, "duplicate key"), strings.Contains(errStr, "constraint"), strings.Contains(errStr, "connection"):
		return "database"
	case strings.Contains(errStr, "validation failed"), strings.Contains(errStr, "bad request"), strings.Contains(errStr, "invalid"), strings.Contains(errStr, "missing field"):
		return "validation"
	case strings.Contains(errStr, "not found"), strings.Contains(errStr, "no rows"):
		return "not_found"
	case strings.Contains(errStr, "unparseable"), strings.Contains(errStr, "unmarshal"), strings.Contains(errStr, "json"):
		return "unparseable"
	case strings.Contains(errStr, "upstream"), strings.Contains(errStr, "rejected"):
		return "upstream"
	case strings.Contains(errStr, "configuration"), strings.Contains(errStr, "config"):
		return "configuration"
	case strings.Contains(errStr, "timeout"), strings.Contains(errStr, "deadline exceeded"):
		return "timeout"
	case strings.Contains(errStr, "panic"):
		return "panic"
	default:
		return "unknown"
	}
}
