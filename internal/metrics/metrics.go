// Package metrics exposes Prometheus instrumentation for the chat server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ActiveConnections tracks currently open WebSocket sessions.
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chatline_active_connections",
		Help: "Number of open WebSocket connections.",
	})

	// OnlineUsers tracks users with at least one live connection.
	OnlineUsers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chatline_online_users",
		Help: "Number of users with at least one live connection.",
	})

	// MessagesTotal counts persisted messages by payload type.
	MessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chatline_messages_total",
		Help: "Total messages persisted, by type.",
	}, []string{"type"})

	// DeliveredTotal counts messages marked delivered.
	DeliveredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatline_messages_delivered_total",
		Help: "Total messages marked delivered.",
	})

	// DeletionsTotal counts message deletions by mode (soft or hard).
	DeletionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chatline_message_deletions_total",
		Help: "Total message deletions, by mode.",
	}, []string{"mode"})
)

// Handler returns the HTTP handler serving the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
