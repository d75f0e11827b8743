package elevation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeLabel = "outcome"
	reasonLabel  = "reason"
)

var (
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "terrain_tile_cache_hits",
		Help: "The number of elevation tile cache hits.",
	})

	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "terrain_tile_cache_misses",
		Help: "The number of elevation tile cache misses.",
	})

	cacheSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "terrain_tile_cache_size",
		Help: "The number of cached elevation tiles, no-data sentinels included.",
	})

	pendingFetches = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "terrain_pending_fetches",
		Help: "The number of tile fetches queued or in flight.",
	})

	inflightFetches = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "terrain_inflight_fetches",
		Help: "The number of tile fetches currently in flight.",
	})

	fetchOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "terrain_fetch_outcomes",
		Help: "The number of resolved tile fetches by outcome.",
	}, []string{
		outcomeLabel,
	})

	rejectedLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "terrain_rejected_loads",
		Help: "The number of segment loads rejected or dropped before fetching.",
	}, []string{
		reasonLabel,
	})
)
