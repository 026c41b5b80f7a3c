package metrics

import "time"

// Run outcomes used as Status values.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// GenerationEvent describes one cluster generation.
type GenerationEvent struct {
	RunID           string
	Cluster         string
	Year            int
	Vehicles        int
	Instances       int
	Hours           int
	TotalDemandKWh  float64
	PeakCapacityKWh float64
	Duration        time.Duration
	Status          string
	Time            time.Time
}

// MetricsSink records generation runs for observability purposes.
type MetricsSink interface {
	RecordGeneration(ev GenerationEvent) error
}

// ExportEvent describes the delivery of a series to one exporter.
type ExportEvent struct {
	RunID    string
	Cluster  string
	Exporter string
	Duration time.Duration
	Status   string
	Time     time.Time
}

// ExportRecorder records exporter deliveries.
type ExportRecorder interface {
	RecordExport(ev ExportEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordGeneration(GenerationEvent) error { return nil }
func (NopSink) RecordExport(ExportEvent) error         { return nil }
