// Package metrics defines the Prometheus collectors for the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pub/Sub metrics
var (
	// PubSubMessagesPublished tracks envelope publishes by status (ok/error)
	PubSubMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pubsub_messages_published_total",
			Help: "Total alarm envelopes published to the broker channel by status",
		},
		[]string{"status"},
	)

	// PubSubMessagesReceived tracks envelopes received by the subscriber loop
	PubSubMessagesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pubsub_messages_received_total",
			Help: "Total messages received from the broker channel by status (ok/malformed)",
		},
		[]string{"status"},
	)

	// CircuitBreakerState tracks current broker circuit breaker state (0=closed, 1=half-open, 2=open)
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Current circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"component"},
	)
)

// Notification store metrics
var (
	// NotificationsCreated tracks stored notifications by alarm type
	NotificationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_created_total",
			Help: "Total notifications persisted by alarm type",
		},
		[]string{"type"},
	)

	// NotificationsMarkedRead tracks mark-read batch operations
	NotificationsMarkedRead = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notifications_marked_read_total",
			Help: "Total notifications flipped to read",
		},
	)
)

// Hub metrics
var (
	// HubConnectedClients tracks currently open push connections across all users
	HubConnectedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hub_connected_clients",
			Help: "Number of currently open push connections across all users",
		},
	)

	// HubActiveUsers tracks users with at least one open connection
	HubActiveUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hub_active_users",
			Help: "Number of users with at least one open push connection",
		},
	)

	// HubSendFailures tracks per-connection send failures during fan-out
	HubSendFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_send_failures_total",
			Help: "Total per-connection send failures (slow or dead clients)",
		},
	)

	// HubDeliveries tracks envelopes handed to at least one local connection
	HubDeliveries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_deliveries_total",
			Help: "Total payloads delivered to at least one local connection",
		},
	)
)
