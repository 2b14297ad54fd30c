// Package metrics holds the Prometheus collectors of the gateway. Collectors
// are registered with the default registry and exposed at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result label values.
const (
	ResultSuccess = "success"
	ResultInvalid = "invalid"
	ResultFailed  = "failed"
	ResultDropped = "dropped"
)

var (
	// ConnectionsActive is the number of admitted connections.
	ConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chatgate_connections_active",
			Help: "Number of authenticated connections currently admitted",
		},
	)

	// AuthFailures counts refused connection attempts.
	AuthFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chatgate_auth_failures_total",
			Help: "Connection attempts refused because authentication failed",
		},
	)

	// MessagesTotal counts handled chat:send events by result.
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatgate_messages_total",
			Help: "Chat messages handled, by result",
		},
		[]string{"result"},
	)

	// AssistantReplies counts assistant turns by result.
	AssistantReplies = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatgate_assistant_replies_total",
			Help: "Assistant turns, by result",
		},
		[]string{"result"},
	)

	// BroadcastDrops counts frames dropped because a client queue was full.
	BroadcastDrops = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chatgate_broadcast_drops_total",
			Help: "Frames dropped because a client send queue was full",
		},
	)

	// CatalogBreakerState is the catalog circuit breaker state
	// (0=closed, 1=half-open, 2=open).
	CatalogBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chatgate_catalog_breaker_state",
			Help: "Catalog search circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)
)
