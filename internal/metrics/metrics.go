package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CatalogLoadStatus reports the outcome of the most recent load per
	// catalog source (0 = failed, 1 = loaded).
	CatalogLoadStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "planner_catalog_load_status",
			Help: "Status of the last catalog load (0 = failed, 1 = loaded)",
		},
		[]string{"kind", "source"},
	)

	CatalogRecordsLoaded = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "planner_catalog_records_loaded",
			Help: "Number of records held for a catalog source after the last load",
		},
		[]string{"kind", "source"},
	)

	CatalogRecordsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planner_catalog_records_dropped_total",
			Help: "Number of malformed catalog records rejected during loads",
		},
		[]string{"kind", "source"},
	)

	CatalogLoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "planner_catalog_load_duration_seconds",
			Help:    "Time spent fetching and transforming a catalog source",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind", "source"},
	)
)

var (
	ItineraryLegCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "planner_itinerary_leg_count",
		Help: "Number of legs currently in the itinerary",
	})

	ItineraryTotalDistanceKm = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "planner_itinerary_total_distance_km",
		Help: "Total distance of the itinerary in kilometers (0 when unknown)",
	})

	ItineraryValid = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "planner_itinerary_valid",
		Help: "Whether the itinerary currently passes validation (1 = valid, 0 = invalid)",
	})

	ItineraryMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planner_itinerary_mutations_total",
			Help: "Number of itinerary mutations, labeled by operation",
		},
		[]string{"operation"},
	)
)

var (
	PersistenceFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planner_persistence_failures_total",
			Help: "Number of failed itinerary persistence operations, labeled by operation (read/write)",
		},
		[]string{"operation"},
	)
)

var (
	// OutgoingLatency tracks the latency of outbound HTTP requests made by
	// the catalog loaders, labeled by URL, method and response status.
	OutgoingLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "planner_outgoing_request_latency_seconds",
			Help:    "Latency of outgoing HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"url", "method", "status"},
	)
)
