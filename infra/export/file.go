// Package export implements the destinations of generated series: CSV and
// JSON files, InfluxDB and MQTT.
package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	coreexport "github.com/kilianp07/emobts/core/export"
	pkgexport "github.com/kilianp07/emobts/pkg/export"
)

// FileName returns the output file name of a cluster series.
func FileName(year int, cluster, ext string) string {
	safe := strings.NewReplacer("/", "_", `\`, "_").Replace(cluster)
	return fmt.Sprintf("%d_%s_emob_timeseries.%s", year, safe, ext)
}

// CSVExporter writes each series to its own CSV file in Dir.
type CSVExporter struct {
	Dir     string
	Options pkgexport.CSVOptions
}

// NewCSVExporter returns a CSVExporter writing to dir.
func NewCSVExporter(dir string, opts pkgexport.CSVOptions) *CSVExporter {
	return &CSVExporter{Dir: dir, Options: opts}
}

// Export writes s and returns the file path.
func (e *CSVExporter) Export(_ context.Context, s coreexport.Series) (string, error) {
	return writeFile(e.Dir, FileName(s.Year, s.Cluster, "csv"), func(w io.Writer) error {
		return pkgexport.WriteCSV(w, s.Rows, e.Options)
	})
}

// JSONExporter writes each series to its own JSON file in Dir.
type JSONExporter struct {
	Dir string
}

// NewJSONExporter returns a JSONExporter writing to dir.
func NewJSONExporter(dir string) *JSONExporter {
	return &JSONExporter{Dir: dir}
}

// Export writes s and returns the file path.
func (e *JSONExporter) Export(_ context.Context, s coreexport.Series) (string, error) {
	return writeFile(e.Dir, FileName(s.Year, s.Cluster, "json"), func(w io.Writer) error {
		return pkgexport.WriteJSON(w, Document(s))
	})
}

// Document converts a series to its JSON representation.
func Document(s coreexport.Series) pkgexport.Document {
	return pkgexport.Document{RunID: s.RunID, Cluster: s.Cluster, Year: s.Year, Rows: s.Rows}
}

// writeFile writes through a temporary file renamed into place, so readers
// never observe a truncated series.
func writeFile(dir, name string, write func(io.Writer) error) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(dir, name)
	tmp, err := os.CreateTemp(dir, "."+name+".*")
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())
	if err := write(tmp); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("rename %s: %w", path, err)
	}
	return path, nil
}
