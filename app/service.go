// Package app wires configuration, generation, exporters, metrics and the
// run ledger into batch runs over the configured cluster files.
package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/emobts/config"
	"github.com/kilianp07/emobts/core/cluster"
	coreexport "github.com/kilianp07/emobts/core/export"
	coremetrics "github.com/kilianp07/emobts/core/metrics"
	"github.com/kilianp07/emobts/core/model"
	"github.com/kilianp07/emobts/core/runlog"
	"github.com/kilianp07/emobts/core/schedule"
	_ "github.com/kilianp07/emobts/infra/export" // registers exporters
	"github.com/kilianp07/emobts/infra/logger"
	"github.com/kilianp07/emobts/infra/metrics"
)

// Result is the outcome of one cluster file.
type Result struct {
	Source  string
	Cluster string
	Year    int
	Rows    int
	Outputs []string
	Err     error
}

// Service orchestrates generation runs.
type Service struct {
	cfg       *config.Config
	gen       *cluster.Generator
	exporters []coreexport.Named
	sink      coremetrics.MetricsSink
	store     runlog.Store
	log       logger.Logger
	now       func() time.Time

	// Only restricts runs to the named clusters when not empty.
	Only []string
}

// New creates a Service from the configuration.
func New(cfg *config.Config, log logger.Logger) (*Service, error) {
	if log == nil {
		log = logger.NopLogger{}
	}
	exporters, err := coreexport.NewExporters(cfg.Exporters)
	if err != nil {
		return nil, fmt.Errorf("exporters: %w", err)
	}
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		_ = coreexport.CloseAll(exporters)
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	store, err := runlog.Open(cfg.RunLog)
	if err != nil {
		_ = coreexport.CloseAll(exporters)
		closeSink(sink)
		return nil, fmt.Errorf("run ledger: %w", err)
	}
	return &Service{
		cfg:       cfg,
		gen:       cluster.NewGenerator(cfg.Parallelism, log),
		exporters: exporters,
		sink:      sink,
		store:     store,
		log:       log,
		now:       time.Now,
	}, nil
}

// RunAll generates and exports every discovered cluster. A failing cluster is
// logged and recorded and the remaining clusters still run; the returned
// error joins all failures.
func (s *Service) RunAll(ctx context.Context) ([]Result, error) {
	files, err := config.DiscoverClusters(s.cfg.Clusters.Dir, s.cfg.Clusters.Pattern)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		s.log.Warnf("no cluster files matching %s in %s", s.cfg.Clusters.Pattern, s.cfg.Clusters.Dir)
		return nil, nil
	}
	runID := uuid.NewString()
	s.log.Infow("run started", map[string]any{"run_id": runID, "year": s.cfg.Year, "files": len(files)})

	var results []Result
	var errs []error
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		res, skipped := s.runFile(ctx, runID, f)
		if skipped {
			continue
		}
		results = append(results, res)
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", filepath.Base(f), res.Err))
		}
	}
	if s.cfg.Metrics.PushURL != "" {
		if err := metrics.Push(ctx, s.cfg.Metrics.PushURL, s.cfg.Metrics.Job, nil); err != nil {
			s.log.Warnf("%v", err)
		}
	}
	s.log.Infow("run finished", map[string]any{"run_id": runID, "clusters": len(results), "failed": len(errs)})
	return results, errors.Join(errs...)
}

func (s *Service) runFile(ctx context.Context, runID, path string) (Result, bool) {
	began := s.now()
	res := Result{Source: path, Cluster: stem(path), Year: s.cfg.Year}
	log := s.log

	cfg, err := config.LoadCluster(path, s.cfg.Year)
	if err == nil {
		res.Cluster, res.Year = cfg.Name, cfg.Year
		if !s.selected(cfg.Name) {
			return res, true
		}
	}
	var rows []model.HourlyRow
	if err == nil {
		log.Infof("generating cluster %s for %d from %s", cfg.Name, cfg.Year, filepath.Base(path))
		rows, err = s.gen.Generate(ctx, cfg)
	}
	if err == nil {
		res.Rows = len(rows)
		res.Outputs, err = s.export(ctx, coreexport.Series{RunID: runID, Cluster: cfg.Name, Year: cfg.Year, Rows: rows})
	}
	res.Err = err

	status := coremetrics.StatusOK
	if err != nil {
		status = coremetrics.StatusFailed
		log.Errorf("cluster %s: %v", res.Cluster, err)
	}
	sum := runlog.Summarize(rows)
	elapsed := s.now().Sub(began)
	if merr := s.sink.RecordGeneration(coremetrics.GenerationEvent{
		RunID:           runID,
		Cluster:         res.Cluster,
		Year:            res.Year,
		Vehicles:        len(cfg.Vehicles),
		Instances:       cfg.Instances(),
		Hours:           len(rows),
		TotalDemandKWh:  sum.TotalDemandKWh,
		PeakCapacityKWh: sum.PeakCapacityKWh,
		Duration:        elapsed,
		Status:          status,
		Time:            began,
	}); merr != nil {
		log.Warnf("record metrics: %v", merr)
	}
	rec := runlog.RunRecord{
		RunID:           runID,
		Timestamp:       began,
		Source:          path,
		Cluster:         res.Cluster,
		Year:            res.Year,
		Vehicles:        len(cfg.Vehicles),
		Instances:       cfg.Instances(),
		Hours:           len(rows),
		TotalDemandKWh:  sum.TotalDemandKWh,
		PeakCapacityKWh: sum.PeakCapacityKWh,
		MeanCapacityKWh: sum.MeanCapacityKWh,
		DurationMS:      elapsed.Milliseconds(),
		Outputs:         res.Outputs,
		Status:          status,
	}
	if err != nil {
		rec.Error = err.Error()
	}
	if lerr := s.store.Append(ctx, rec); lerr != nil {
		log.Warnf("append run record: %v", lerr)
	}
	return res, false
}

// export hands the series to every exporter. An exporter failure does not
// keep the others from running.
func (s *Service) export(ctx context.Context, series coreexport.Series) ([]string, error) {
	var outputs []string
	var errs []error
	for _, n := range s.exporters {
		began := s.now()
		out, err := n.Exporter.Export(ctx, series)
		status := coremetrics.StatusOK
		if err != nil {
			status = coremetrics.StatusFailed
			errs = append(errs, fmt.Errorf("export %s: %w", n.Type, err))
		} else {
			outputs = append(outputs, out)
			s.log.Infof("cluster %s written to %s", series.Cluster, out)
		}
		if merr := coremetrics.RecordExport(s.sink, coremetrics.ExportEvent{
			RunID:    series.RunID,
			Cluster:  series.Cluster,
			Exporter: n.Type,
			Duration: s.now().Sub(began),
			Status:   status,
			Time:     began,
		}); merr != nil {
			s.log.Warnf("record export metrics: %v", merr)
		}
	}
	return outputs, errors.Join(errs...)
}

func (s *Service) selected(name string) bool {
	return len(s.Only) == 0 || slices.Contains(s.Only, name)
}

// Runs queries the run ledger.
func (s *Service) Runs(ctx context.Context, q runlog.Query) ([]runlog.RunRecord, error) {
	return s.store.Query(ctx, q)
}

// Close releases exporters, metrics sinks and the run ledger.
func (s *Service) Close() error {
	err := coreexport.CloseAll(s.exporters)
	closeSink(s.sink)
	return errors.Join(err, s.store.Close())
}

// Validate loads every discovered cluster file and expands each vehicle plan
// over the year without generating output.
func Validate(cfg *config.Config) ([]Result, error) {
	files, err := config.DiscoverClusters(cfg.Clusters.Dir, cfg.Clusters.Pattern)
	if err != nil {
		return nil, err
	}
	results := make([]Result, 0, len(files))
	var errs []error
	for _, f := range files {
		res := Result{Source: f, Cluster: stem(f), Year: cfg.Year}
		cc, err := config.LoadCluster(f, cfg.Year)
		if err == nil {
			res.Cluster, res.Year = cc.Name, cc.Year
			for _, v := range cc.Vehicles {
				if _, err = schedule.Expand(v.WeeklyPlan, cc.Year); err != nil {
					err = fmt.Errorf("vehicle %q: %w", v.Name, err)
					break
				}
			}
		}
		res.Err = err
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", filepath.Base(f), err))
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

func closeSink(s coremetrics.MetricsSink) {
	switch c := s.(type) {
	case *coremetrics.MultiSink:
		for _, child := range c.Sinks {
			closeSink(child)
		}
	case interface{ Close() }:
		c.Close()
	}
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
