// Package metrics provides centralized Prometheus metrics access for wubba.
// All metrics are defined in their respective packages (client, cache,
// pagination, dispatch) to maintain modularity and avoid circular
// dependencies.
//
// A CLI run is short-lived, so metrics are not scraped. WriteTextfile dumps
// them once at exit in the format read by node_exporter's textfile collector.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by wubba.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer collects every registered metric for export.
var Gatherer = prometheus.DefaultGatherer

// WriteTextfile writes all registered metrics to path in the Prometheus text
// format. The file is written to a temporary name and renamed, so a collector
// never reads a partial file.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, Gatherer); err != nil {
		return fmt.Errorf("write metrics to %s: %w", path, err)
	}
	return nil
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - wubba_requests_total{collection, status} (Counter): Requests by collection and HTTP status
//   - wubba_request_duration_seconds{collection} (Histogram): Request duration by collection
//   - wubba_errors_total{class} (Counter): Errors by class (client, server, network, decode)
//
// Pagination Metrics (pkg/pagination):
//   - wubba_pages_fetched_total{collection} (Counter): List pages fetched
//   - wubba_records_drained_total{collection} (Counter): Records assembled by completed drains
//
// Command Metrics (pkg/dispatch):
//   - wubba_commands_total{command, outcome} (Counter): Commands by name and outcome (ok, error)
//
// Cache Metrics (pkg/cache):
//   - wubba_cache_hits_total (Counter): Fresh cache hits
//   - wubba_cache_misses_total (Counter): Cache misses, including stale entries
//   - wubba_cache_size_bytes (Counter): Bytes written to the cache
//   - wubba_304_responses_total (Counter): 304 Not Modified responses
//   - wubba_cache_errors_total{operation} (Counter): Cache operation errors
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(wubba_cache_hits_total) /
//   (sum(wubba_cache_hits_total) + sum(wubba_cache_misses_total))
//
//   # Pages per drained record
//   sum by (collection) (wubba_pages_fetched_total) /
//   sum by (collection) (wubba_records_drained_total)
//
//   # Failed commands
//   wubba_commands_total{outcome="error"}
