// Package metrics defines the sinks that record scheduling activity. Sinks
// such as the Prometheus and InfluxDB implementations in infra/metrics are
// selected by configuration through a factory registry; NewMetricsSink
// combines several of them into a MultiSink.
package metrics
