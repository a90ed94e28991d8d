package catalogtool

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	queriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chandler",
			Subsystem: "manifest",
			Name:      "queries_total",
			Help:      "Total structured_query tool calls",
		},
		[]string{"outcome"}, // outcome: "ok", "rejected", "error"
	)

	queryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "chandler",
			Subsystem: "manifest",
			Name:      "query_duration_seconds",
			Help:      "Duration of catalog queries in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)
)
