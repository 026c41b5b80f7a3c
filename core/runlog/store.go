// Package runlog keeps a ledger of generation runs, one record per cluster
// and run, in a JSONL file or a SQLite database.
package runlog

import (
	"context"
	"fmt"
	"slices"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/emobts/core/model"
)

// RunRecord describes the outcome of generating one cluster.
type RunRecord struct {
	RunID           string    `json:"run_id"`
	Timestamp       time.Time `json:"timestamp"`
	Source          string    `json:"source,omitempty"`
	Cluster         string    `json:"cluster"`
	Year            int       `json:"year"`
	Vehicles        int       `json:"vehicles"`
	Instances       int       `json:"instances"`
	Hours           int       `json:"hours"`
	TotalDemandKWh  float64   `json:"total_demand_kwh"`
	PeakCapacityKWh float64   `json:"peak_capacity_kwh"`
	MeanCapacityKWh float64   `json:"mean_capacity_kwh"`
	DurationMS      int64     `json:"duration_ms"`
	Outputs         []string  `json:"outputs,omitempty"`
	Status          string    `json:"status"`
	Error           string    `json:"error,omitempty"`
}

// Query defines filters for retrieving records. Zero values match everything.
type Query struct {
	Start   time.Time
	End     time.Time
	Cluster string
	Status  string
	// Limit keeps only the most recent records when positive.
	Limit int
}

func (q Query) match(r RunRecord) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.Cluster != "" && r.Cluster != q.Cluster {
		return false
	}
	if q.Status != "" && r.Status != q.Status {
		return false
	}
	return true
}

// Store persists RunRecords and supports querying. Query results are
// ordered by timestamp.
type Store interface {
	Append(ctx context.Context, rec RunRecord) error
	Query(ctx context.Context, q Query) ([]RunRecord, error)
	Close() error
}

// Summary holds the aggregate figures of a series.
type Summary struct {
	TotalDemandKWh  float64
	PeakCapacityKWh float64
	MeanCapacityKWh float64
}

// Summarize computes the ledger figures of rows.
func Summarize(rows []model.HourlyRow) Summary {
	if len(rows) == 0 {
		return Summary{}
	}
	capacity := make([]float64, len(rows))
	demand := make([]float64, len(rows))
	for i, r := range rows {
		capacity[i] = r.AvailableCapacityKWh
		demand[i] = r.EnergyDemandKWh
	}
	return Summary{
		TotalDemandKWh:  floats.Sum(demand),
		PeakCapacityKWh: floats.Max(capacity),
		MeanCapacityKWh: stat.Mean(capacity, nil),
	}
}

// Backends.
const (
	BackendNone   = "none"
	BackendJSONL  = "jsonl"
	BackendSQLite = "sqlite"
)

// Config selects and configures the ledger backend.
type Config struct {
	Backend    string `json:"backend"`
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = BackendJSONL
	}
	if c.Path == "" {
		switch c.Backend {
		case BackendSQLite:
			c.Path = "runs.db"
		default:
			c.Path = "runs.jsonl"
		}
	}
	if c.MaxSizeMB <= 0 {
		c.MaxSizeMB = 10
	}
}

// Validate checks the backend selection.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendNone, BackendJSONL, BackendSQLite:
		return nil
	default:
		return &model.ConfigError{Field: "backend", Reason: fmt.Sprintf("unknown backend %q", c.Backend)}
	}
}

// Open creates the configured store.
func Open(cfg Config) (Store, error) {
	switch cfg.Backend {
	case BackendNone:
		return NopStore{}, nil
	case BackendJSONL, "":
		return NewJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
	case BackendSQLite:
		return NewSQLiteStore(cfg.Path)
	default:
		return nil, cfg.Validate()
	}
}

// NopStore discards records.
type NopStore struct{}

func (NopStore) Append(context.Context, RunRecord) error          { return nil }
func (NopStore) Query(context.Context, Query) ([]RunRecord, error) { return nil, nil }
func (NopStore) Close() error                                      { return nil }

func finish(res []RunRecord, q Query) []RunRecord {
	slices.SortStableFunc(res, func(a, b RunRecord) int { return a.Timestamp.Compare(b.Timestamp) })
	if q.Limit > 0 && len(res) > q.Limit {
		res = res[len(res)-q.Limit:]
	}
	return res
}
