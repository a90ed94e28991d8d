package librarytool

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	searchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chandler",
			Subsystem: "almanac",
			Name:      "searches_total",
			Help:      "Total search tool calls",
		},
		[]string{"table", "outcome"}, // outcome: "ok", "rejected", "error"
	)

	searchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "chandler",
			Subsystem: "almanac",
			Name:      "search_duration_seconds",
			Help:      "Duration of semantic searches in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	searchResultsCount = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "chandler",
			Subsystem: "almanac",
			Name:      "search_results_count",
			Help:      "Documents returned per search after grading",
			Buckets:   []float64{0, 1, 2, 3, 4, 5},
		},
	)
)
