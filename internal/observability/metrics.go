// Package observability provides metrics and tracing for the application.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ApprovalOutcomes counts resolved update requests by outcome
	// (approved, rejected, conflict, error).
	ApprovalOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "barangay_approval_outcomes_total",
		Help: "Total update-request resolutions by outcome",
	}, []string{"outcome"})

	// ApprovalDuration records time spent in the resolve transaction.
	ApprovalDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "barangay_approval_resolve_seconds",
		Help:    "Latency of the update-request resolve transaction",
		Buckets: prometheus.DefBuckets,
	})

	// NotificationWrites counts notification rows written by type.
	NotificationWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "barangay_notification_writes_total",
		Help: "Total notification records created by type",
	}, []string{"type"})

	// PartialPropagations counts authoritative writes whose follow-up
	// informational writes failed.
	PartialPropagations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "barangay_partial_propagations_total",
		Help: "Resident mutations whose outcome notification or event fan-out failed",
	}, []string{"stage"})

	// SyncPushes counts sync snapshots pushed to connected views by trigger
	// (tick, forced, event).
	SyncPushes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "barangay_sync_pushes_total",
		Help: "Sync snapshots pushed to websocket clients",
	}, []string{"trigger"})

	// WebSocketConnectionsTotal is the gauge of total WebSocket connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "barangay_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "barangay_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})
)
