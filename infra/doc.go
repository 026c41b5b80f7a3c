// Package infra contains the technical adapters of the generator: series
// exporters, the MQTT client, metrics sinks and the zerolog logger. These
// packages depend only on the interfaces defined in the core packages.
package infra
