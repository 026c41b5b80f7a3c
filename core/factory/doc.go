// Package factory provides a small generic registry used to instantiate
// pluggable modules such as exporters and metrics sinks from configuration.
// Modules are defined by a type string and a map of raw settings. Factories
// decode the settings into typed structs and return the concrete
// implementation.
//
// Example usage:
//
//	reg := factory.NewRegistry[export.Exporter]()
//	reg.Register("csv", func(conf map[string]any) (export.Exporter, error) {
//	    var c struct{ Dir string `json:"dir"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return NewCSVExporter(c.Dir), nil
//	})
//	e, err := reg.Create(factory.ModuleConfig{Type: "csv", Conf: map[string]any{"dir": "out"}})
package factory
