// Package metrics defines the sinks recording generation runs for
// observability. Sinks like PromSink and InfluxSink live in infra/metrics
// and register themselves with the factory helpers, which return a
// MultiSink automatically when multiple sinks are configured.
package metrics
