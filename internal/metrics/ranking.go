package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Ranking Prometheus metrics.
var (
	RankRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pemrank",
			Name:      "rank_requests_total",
			Help:      "Total ranking requests by outcome",
		},
		[]string{"outcome", "reason"}, // outcome: recommend / abstain / error
	)

	RankCandidates = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "pemrank",
			Name:      "rank_candidates",
			Help:      "Candidates per ranking request",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
		},
	)

	RankSurvivors = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "pemrank",
			Name:      "rank_survivors",
			Help:      "Candidates surviving the hard filter per request",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
		},
	)

	RankFilteredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pemrank",
			Name:      "rank_filtered_total",
			Help:      "Candidates rejected by the hard filter, by rule",
		},
		[]string{"rule"},
	)

	RankBestScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "pemrank",
			Name:      "rank_best_score",
			Help:      "Score of the top pick (recorded also when abstaining below the floor)",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
		},
	)

	RankDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "pemrank",
			Name:      "rank_duration_seconds",
			Help:      "Engine duration in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
		},
	)

	RankCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pemrank",
			Name:      "rank_cache_total",
			Help:      "Response cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var registerRanking sync.Once

// RegisterRankingMetrics registers Prometheus ranking metrics with the default registry.
// Repeated calls are no-ops.
func RegisterRankingMetrics() {
	registerRanking.Do(func() {
		prometheus.MustRegister(RankRequestsTotal)
		prometheus.MustRegister(RankCandidates)
		prometheus.MustRegister(RankSurvivors)
		prometheus.MustRegister(RankFilteredTotal)
		prometheus.MustRegister(RankBestScore)
		prometheus.MustRegister(RankDuration)
		prometheus.MustRegister(RankCacheTotal)
	})
}
