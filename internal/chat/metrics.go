package chat

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	queriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chandler",
			Name:      "chat_queries_total",
			Help:      "Total chat queries processed",
		},
		[]string{"outcome"}, // outcome: "answered", "rejected", "error", "timeout"
	)

	queryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "chandler",
			Name:      "chat_query_duration_seconds",
			Help:      "End-to-end duration of chat turns in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10), // 250ms to ~2m
		},
	)

	generationAttempts = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "chandler",
			Name:      "chat_generation_attempts",
			Help:      "Generation attempts consumed per answered query",
			Buckets:   []float64{1, 2, 3},
		},
	)

	activeConversations = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "chandler",
			Name:      "chat_active_conversations",
			Help:      "Conversations currently held in memory",
		},
	)
)
