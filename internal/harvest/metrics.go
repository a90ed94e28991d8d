package harvest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	partsHarvested = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "chandler",
			Subsystem: "trawler",
			Name:      "parts_harvested_total",
			Help:      "Part rows upserted from product pages",
		},
	)

	partsSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "chandler",
			Subsystem: "trawler",
			Name:      "parts_skipped_total",
			Help:      "Part pages skipped after render or parse failures",
		},
	)

	repairsHarvested = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "chandler",
			Subsystem: "trawler",
			Name:      "repairs_harvested_total",
			Help:      "Repair guides upserted from symptom pages",
		},
	)

	blogsHarvested = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "chandler",
			Subsystem: "trawler",
			Name:      "blogs_harvested_total",
			Help:      "Blog posts upserted from the article index",
		},
	)
)
