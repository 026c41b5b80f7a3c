package metrics

import "errors"

// MultiSink fans events out to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordGeneration forwards the event to all sinks and joins their errors.
func (m *MultiSink) RecordGeneration(ev GenerationEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordGeneration(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordExport forwards export events to the sinks supporting them.
func (m *MultiSink) RecordExport(ev ExportEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(ExportRecorder); ok {
			if err := rec.RecordExport(ev); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
