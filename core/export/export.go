// Package export defines the destinations a generated cluster series is
// delivered to. Implementations live in infra/export and register
// themselves by type name.
package export

import (
	"context"

	"github.com/kilianp07/emobts/core/factory"
	"github.com/kilianp07/emobts/core/model"
)

// Series is one generated cluster year.
type Series struct {
	RunID   string
	Cluster string
	Year    int
	Rows    []model.HourlyRow
}

// Exporter delivers a series to one destination.
type Exporter interface {
	// Export writes s and returns the location it was written to, such as a
	// file path or topic, for the run ledger.
	Export(ctx context.Context, s Series) (string, error)
}

// Closer is implemented by exporters holding connections.
type Closer interface {
	Close() error
}

var registry = factory.NewRegistry[Exporter]()

// RegisterExporter adds an exporter factory identified by name.
func RegisterExporter(name string, f factory.Factory[Exporter]) error {
	return registry.Register(name, f)
}

// ExporterTypes lists the registered exporter types.
func ExporterTypes() []string { return registry.Types() }

// Named pairs an exporter with its configured type.
type Named struct {
	Type     string
	Exporter Exporter
}

// NewExporters creates one exporter per configuration entry.
func NewExporters(cfgs []factory.ModuleConfig) ([]Named, error) {
	out := make([]Named, 0, len(cfgs))
	for _, c := range cfgs {
		e, err := registry.Create(c)
		if err != nil {
			CloseAll(out)
			return nil, err
		}
		out = append(out, Named{Type: c.Type, Exporter: e})
	}
	return out, nil
}

// CloseAll closes every exporter implementing Closer and returns the first
// error.
func CloseAll(exporters []Named) error {
	var first error
	for _, n := range exporters {
		if c, ok := n.Exporter.(Closer); ok {
			if err := c.Close(); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}
