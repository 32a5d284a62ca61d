package query

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	prometheusArchiveRequests        *prometheus.CounterVec
	prometheusArchiveRejections      *prometheus.CounterVec
	prometheusArchiveEvents          *prometheus.CounterVec
	prometheusArchiveDuration        *prometheus.HistogramVec
	prometheusArchiveTreeSearchNodes prometheus.Histogram
)

var (
	prometheusMetricsInitOnce sync.Once
)

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusArchiveRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "teranode",
			Subsystem: "archive",
			Name:      "requests",
			Help:      "Number of archive subscriptions opened",
		},
		[]string{"operation"},
	)

	prometheusArchiveRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "teranode",
			Subsystem: "archive",
			Name:      "rejections",
			Help:      "Number of archive subscriptions rejected for invalid parameters",
		},
		[]string{"operation"},
	)

	prometheusArchiveEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "teranode",
			Subsystem: "archive",
			Name:      "events",
			Help:      "Number of archive events sent, by operation and event",
		},
		[]string{"operation", "event"},
	)

	prometheusArchiveDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "teranode",
			Subsystem: "archive",
			Name:      "duration_seconds",
			Help:      "Time from spawn to event, by operation",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 16),
		},
		[]string{"operation"},
	)

	prometheusArchiveTreeSearchNodes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "teranode",
			Subsystem: "archive",
			Name:      "tree_search_nodes",
			Help:      "Number of blocks visited by a hashByHeight tree search above the finalized block",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		},
	)
}
