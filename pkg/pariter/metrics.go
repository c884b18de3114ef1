package pariter

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pariter_runs_total",
		Help: "Total number of completed parallel iteration runs",
	}, []string{"iter"})

	batchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pariter_batches_total",
		Help: "Total number of batches submitted to the compute pool",
	}, []string{"iter"})

	itemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pariter_items_total",
		Help: "Total number of items visited by parallel iteration",
	}, []string{"iter"})

	batchSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pariter_batch_size",
		Help:    "Batch size chosen per parallel run",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	}, []string{"iter"})

	runDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pariter_run_duration_seconds",
		Help:    "Wall time of parallel iteration runs in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
	}, []string{"iter"})
)
