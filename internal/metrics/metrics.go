// Package metrics exposes the server's Prometheus collectors.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spellbee/spellbee-server/internal/domain"
)

const namespace = "spellbee"

// Placement outcomes recorded at profile completion.
const (
	PlacementAccepted  = "accepted"
	PlacementDiscarded = "discarded"
	PlacementRejected  = "rejected"
	PlacementAbsent    = "absent"
)

// Word list import results.
const (
	ImportSucceeded = "ok"
	ImportFailed    = "error"
)

// Metrics holds every collector the services update.
type Metrics struct {
	xpAwarded           *prometheus.CounterVec
	gamesFinalized      *prometheus.CounterVec
	rewardDiscrepancies *prometheus.CounterVec
	placementOutcomes   *prometheus.CounterVec
	leaderboardLatency  prometheus.Histogram
	wordListImports     *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		xpAwarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "xp_awarded_total",
			Help:      "Server-computed XP credited to players.",
		}, []string{"track"}),
		gamesFinalized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_finalized_total",
			Help:      "Games moved to finished.",
		}, []string{"track"}),
		rewardDiscrepancies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reward_discrepancies_total",
			Help:      "Client-reported rewards that disagreed with the server computation.",
		}, []string{"field"}),
		placementOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "placement_outcomes_total",
			Help:      "Placement records by guard decision.",
		}, []string{"outcome"}),
		leaderboardLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "leaderboard_query_seconds",
			Help:      "Time to assemble one leaderboard page.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
		wordListImports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "word_list_imports_total",
			Help:      "Word list files imported from the words directory.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		m.xpAwarded,
		m.gamesFinalized,
		m.rewardDiscrepancies,
		m.placementOutcomes,
		m.leaderboardLatency,
		m.wordListImports,
	)
	return m
}

// NewRegistry returns a registry preloaded with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// GameFinalized records one finalized game and the XP it paid.
func (m *Metrics) GameFinalized(track domain.Track, xp int) {
	if m == nil {
		return
	}
	m.gamesFinalized.WithLabelValues(string(track)).Inc()
	if xp > 0 {
		m.xpAwarded.WithLabelValues(string(track)).Add(float64(xp))
	}
}

// RewardDiscrepancy records a client-reported field ("xp" or "score") that was overridden.
func (m *Metrics) RewardDiscrepancy(field string) {
	if m == nil {
		return
	}
	m.rewardDiscrepancies.WithLabelValues(field).Inc()
}

// Placement records a guard decision.
func (m *Metrics) Placement(outcome string) {
	if m == nil {
		return
	}
	m.placementOutcomes.WithLabelValues(outcome).Inc()
}

// LeaderboardServed records how long a page took.
func (m *Metrics) LeaderboardServed(d time.Duration) {
	if m == nil {
		return
	}
	m.leaderboardLatency.Observe(d.Seconds())
}

// WordListImported records one word list file import attempt.
func (m *Metrics) WordListImported(result string) {
	if m == nil {
		return
	}
	m.wordListImports.WithLabelValues(result).Inc()
}
