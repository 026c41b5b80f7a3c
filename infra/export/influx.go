package export

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coreexport "github.com/kilianp07/emobts/core/export"
)

// InfluxConfig configures the InfluxDB exporter.
type InfluxConfig struct {
	URL         string `json:"url"`
	Token       string `json:"token"`
	Org         string `json:"org"`
	Bucket      string `json:"bucket"`
	Measurement string `json:"measurement"`
	BatchSize   int    `json:"batch_size"`
}

// InfluxExporter writes one point per hour to InfluxDB.
type InfluxExporter struct {
	client      influxdb2.Client
	writeAPI    api.WriteAPIBlocking
	bucket      string
	measurement string
	batchSize   int
}

// NewInfluxExporter creates an exporter for the configured bucket.
func NewInfluxExporter(cfg InfluxConfig) (*InfluxExporter, error) {
	if cfg.URL == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("influx exporter requires url and bucket")
	}
	if cfg.Measurement == "" {
		cfg.Measurement = "emob_timeseries"
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 1000
	}
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 30 * time.Second}))
	return &InfluxExporter{
		client:      client,
		writeAPI:    client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		bucket:      cfg.Bucket,
		measurement: cfg.Measurement,
		batchSize:   cfg.BatchSize,
	}, nil
}

// Export writes the series in batches and returns bucket/measurement.
func (e *InfluxExporter) Export(ctx context.Context, s coreexport.Series) (string, error) {
	batch := make([]*write.Point, 0, e.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := e.writeAPI.WritePoint(ctx, batch...); err != nil {
			return fmt.Errorf("influx write: %w", err)
		}
		batch = batch[:0]
		return nil
	}
	for _, r := range s.Rows {
		p := write.NewPointWithMeasurement(e.measurement).
			AddTag("cluster", s.Cluster).
			AddField("available_capacity_kwh", r.AvailableCapacityKWh).
			AddField("energy_demand_kwh", r.EnergyDemandKWh).
			AddField("rest_energy_kwh", r.RestEnergyKWh).
			SetTime(r.Time)
		if s.RunID != "" {
			p.AddTag("run_id", s.RunID)
		}
		batch = append(batch, p)
		if len(batch) == e.batchSize {
			if err := flush(); err != nil {
				return "", err
			}
		}
	}
	if err := flush(); err != nil {
		return "", err
	}
	return e.bucket + "/" + e.measurement, nil
}

// Close releases the client.
func (e *InfluxExporter) Close() error {
	e.client.Close()
	return nil
}
