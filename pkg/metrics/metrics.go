// Package metrics exposes the Prometheus registry used by horizons-fetch.
// Metrics are defined next to the code that records them (pkg/fetch, pkg/sink)
// and registered via promauto on the default registry.
//
// A fetch run is a batch job, so metrics are not served over HTTP; WriteTextfile
// dumps them once at exit for the node_exporter textfile collector.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by horizons-fetch.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the gatherer matching Registry.
var Gatherer = prometheus.DefaultGatherer

// WriteTextfile writes every registered metric to path in the text exposition format.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, Gatherer); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// Metrics Documentation
//
// Fetch Metrics (pkg/fetch):
//   - horizons_requests_total{status} (Counter): Terminal requests by HTTP status or "network_error"
//   - horizons_request_duration_seconds (Histogram): Issuance to terminal state
//   - horizons_requests_in_flight (Gauge): Requests currently holding a handle
//   - horizons_response_bytes (Histogram): Accumulated response body size
//   - horizons_errors_total{class} (Counter): Failed requests by class (client, server, network, unexpected)
//   - horizons_extraction_failures_total{reason} (Counter): 200 responses without vectors (empty, no_match)
//   - horizons_handle_wait_seconds (Histogram): Time blocked on the oldest in-flight request
//
// Sink Metrics (pkg/sink):
//   - horizons_sink_writes_total{result} (Counter): Dataset publications (ok, error)
//   - horizons_sink_bytes (Gauge): Size of the last published dataset
//
// Example Prometheus Queries:
//
//   # Failure ratio of the last run
//   sum(horizons_errors_total) / sum(horizons_requests_total)
//
//   # Mean time spent waiting for a free handle
//   horizons_handle_wait_seconds_sum / horizons_handle_wait_seconds_count
