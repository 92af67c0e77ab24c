// Package metrics provides Prometheus instrumentation for the stranger-chat
// relay. It exposes gauges for connection, pool, and room counts, counters
// for matchmaking and message throughput, and a histogram for match wait time.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ConnectionsTotal tracks the current number of active WebSocket connections.
	ConnectionsTotal = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "strangerchat_connections_total",
		Help: "Current number of active WebSocket connections",
	})

	// WaitingPoolSize tracks the current number of clients searching for a partner.
	WaitingPoolSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "strangerchat_waiting_pool_size",
		Help: "Current number of clients in the waiting pool",
	})

	// ActiveRooms tracks the current number of paired chat rooms.
	ActiveRooms = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "strangerchat_active_rooms",
		Help: "Current number of active two-party rooms",
	})

	// MatchesTotal counts successful pairings, labeled by priority tier:
	// "specific" for double-specific matches, "fallback" otherwise.
	MatchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "strangerchat_matches_total",
		Help: "Total number of successful pairings",
	}, []string{"tier"})

	// SearchTimeoutsTotal counts pool entries that expired unmatched.
	SearchTimeoutsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "strangerchat_search_timeouts_total",
		Help: "Total number of searches that timed out unmatched",
	})

	// MessagesTotal counts relayed chat messages by outcome:
	// "relayed", "blocked" (moderation), or "rejected" (non-member send).
	MessagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "strangerchat_messages_total",
		Help: "Total number of chat messages processed",
	}, []string{"result"})

	// MatchWaitSeconds records how long matched clients waited in the pool.
	MatchWaitSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "strangerchat_match_wait_seconds",
		Help:    "Time from enqueue to match",
		Buckets: []float64{.5, 1, 2, 5, 10, 15, 20, 25, 30},
	})
)

func init() {
	prometheus.MustRegister(
		ConnectionsTotal,
		WaitingPoolSize,
		ActiveRooms,
		MatchesTotal,
		SearchTimeoutsTotal,
		MessagesTotal,
		MatchWaitSeconds,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
