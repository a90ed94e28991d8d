package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	toolCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chandler",
			Name:      "tool_calls_total",
			Help:      "Total tool gateway calls",
		},
		[]string{"tool", "outcome"}, // outcome: "ok", "timeout", "error", "rejected", "unknown_tool"
	)

	toolCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "chandler",
			Name:      "tool_call_duration_seconds",
			Help:      "Duration of tool gateway calls in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		},
		[]string{"tool"},
	)
)
