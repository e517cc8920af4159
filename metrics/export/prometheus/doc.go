// Package prometheus provides Prometheus collectors for vigil metrics.
//
// [NewPrometheusExporter] accepts a [vigil.Engine] and exposes an [http.Handler]
// that renders all vigil counters and histograms in Prometheus text exposition format.
// Counter names are prefixed vigil_*_total; the single histogram is
// vigil_validate_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry — callers mount the Handler.
//   - Mutate engine state.
package prometheus
