// Package metrics provides the Prometheus registry used by pariter and
// documents every metric the module exports. Metrics are defined in their
// respective packages (pariter, taskpool, access) to keep packages
// independent of each other.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry. All metrics are registered via
// promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the gatherer paired with Registry.
var Gatherer = prometheus.DefaultGatherer

// Handler returns an HTTP handler serving the metrics in Registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Parallel Iteration Metrics (pkg/pariter):
//   - pariter_runs_total{iter} (Counter): Completed parallel runs
//   - pariter_batches_total{iter} (Counter): Batches submitted to the compute pool
//   - pariter_items_total{iter} (Counter): Items visited
//   - pariter_batch_size{iter} (Histogram): Batch size chosen per run
//   - pariter_run_duration_seconds{iter} (Histogram): Wall time per run
//
// Compute Pool Metrics (pkg/taskpool):
//   - taskpool_workers (Gauge): Capacity of the process-wide pool
//   - taskpool_tasks_submitted_total (Counter): Functions submitted through groups
//   - taskpool_task_panics_total (Counter): Submitted functions that panicked
//
// Access Metrics (pkg/access):
//   - access_borrows_total{mode} (Counter): Tokens granted (shared, exclusive)
//   - access_conflicts_total{mode} (Counter): Acquisitions refused by requested mode
//
// Example Prometheus Queries:
//
//   # Mean batch size per iterator
//   rate(pariter_batch_size_sum[5m]) / rate(pariter_batch_size_count[5m])
//
//   # Items per second
//   sum by (iter) (rate(pariter_items_total[1m]))
//
//   # P95 run latency
//   histogram_quantile(0.95, rate(pariter_run_duration_seconds_bucket[5m]))
//
//   # Aliasing conflicts (should stay at zero in a well-scheduled host)
//   rate(access_conflicts_total[5m])
