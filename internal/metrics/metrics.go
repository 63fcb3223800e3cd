package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cifly_queries_total",
		Help: "Total number of reach queries, labelled by outcome status.",
	}, []string{"status"})

	QueriesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cifly_queries_dropped_total",
		Help: "Total number of queries rejected due to a full queue.",
	})

	QueryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cifly_query_duration_ms",
		Help:    "Reach query latency in milliseconds, from dequeue to result.",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 25, 50, 100, 250, 1000, 5000},
	})

	StatesVisited = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cifly_states_visited",
		Help:    "Distinct (vertex, edge, color) states visited per query.",
		Buckets: prometheus.ExponentialBuckets(1, 4, 12),
	})

	TablesLoaded = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cifly_tables_loaded",
		Help: "Number of rule tables in the active catalog.",
	})

	CatalogReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cifly_catalog_reloads_total",
		Help: "Total number of catalog reload attempts, labelled by status.",
	}, []string{"status"})

	ProceduresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cifly_procedures_total",
		Help: "Total number of procedure runs, labelled by procedure and status.",
	}, []string{"procedure", "status"})

	QueueUtilization = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cifly_queue_utilization_ratio",
		Help: "Current query queue utilization (0–1).",
	})
)
