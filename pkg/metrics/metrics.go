package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records administrator login attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "visitors_auth_attempts_total",
			Help: "Total number of administrator login attempts",
		},
		[]string{"result"},
	)

	// ScanEvents counts credential scans by outcome (entry|exit|not_found|invalid|error).
	ScanEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "visitors_scan_events_total",
			Help: "Total number of credential scans",
		},
		[]string{"result"},
	)

	// InviteDecisions counts invite request transitions (submitted|approved|rejected|returned).
	InviteDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "visitors_invite_decisions_total",
			Help: "Total number of invite request lifecycle transitions",
		},
		[]string{"decision"},
	)

	// VisitorsInside tracks visitors with an open ledger row as of the last statistics snapshot.
	VisitorsInside = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "visitors_inside",
			Help: "Visitors currently inside according to the latest snapshot",
		},
	)

	// RealtimeConnections tracks open websocket connections.
	RealtimeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "visitors_realtime_connections",
			Help: "Number of open realtime connections",
		},
	)

	// RealtimeDropped counts fan-out messages dropped for slow subscribers.
	RealtimeDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "visitors_realtime_dropped_total",
			Help: "Realtime messages dropped because a subscriber buffer was full",
		},
		[]string{"stream"},
	)

	// HTTPInFlight tracks requests currently being served.
	HTTPInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "visitors_http_in_flight_requests",
			Help: "HTTP requests currently in flight",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "visitors_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
