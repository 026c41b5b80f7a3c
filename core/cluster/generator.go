// Package cluster simulates every vehicle of a cluster over one year and sums
// the results into the hourly cluster series.
package cluster

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/emobts/core/energy"
	"github.com/kilianp07/emobts/core/logger"
	"github.com/kilianp07/emobts/core/model"
	"github.com/kilianp07/emobts/core/schedule"
	"github.com/kilianp07/emobts/core/timeline"
)

// Generator turns cluster configurations into hourly series.
type Generator struct {
	// Parallelism bounds the number of instances simulated concurrently.
	// Zero means GOMAXPROCS.
	Parallelism int
	Logger      logger.Logger
}

// NewGenerator returns a Generator logging to log.
func NewGenerator(parallelism int, log logger.Logger) *Generator {
	return &Generator{Parallelism: parallelism, Logger: log}
}

type instance struct {
	vehicle int
	copy    int
}

// Generate validates cfg, expands every vehicle plan and simulates each
// vehicle copy independently. Nothing is simulated until every vehicle has
// been validated and expanded, so a failing vehicle never yields a partial
// series.
func (g *Generator) Generate(ctx context.Context, cfg model.ClusterConfig) ([]model.HourlyRow, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("cluster %q: %w", cfg.Name, err)
	}
	began := time.Now()
	plans := make([][]schedule.DaySlot, len(cfg.Vehicles))
	leads := make([][]schedule.DaySlot, len(cfg.Vehicles))
	var jobs []instance
	for v, spec := range cfg.Vehicles {
		slots, err := schedule.Expand(spec.WeeklyPlan, cfg.Year)
		if err != nil {
			return nil, fmt.Errorf("cluster %q: vehicle %q: %w", cfg.Name, spec.Name, err)
		}
		plans[v] = slots
		leads[v] = schedule.LeadIn(spec.WeeklyPlan, cfg.Year)
		for i := 0; i < spec.Count; i++ {
			jobs = append(jobs, instance{vehicle: v, copy: i})
		}
	}

	timelines := make([]timeline.Timeline, len(jobs))
	energies := make([][]energy.Energy, len(jobs))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.limit())
	for k, job := range jobs {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			spec := cfg.Vehicles[job.vehicle]
			tl := timeline.Build(plans[job.vehicle], timeline.Input{
				BatteryKWh:          spec.BatteryKWh,
				ConsumptionKWhPerKm: spec.ConsumptionKWhPerKm,
				Distortion:          spec.Distortion,
				Vehicle:             job.vehicle,
				Instance:            job.copy,
				LeadIn:              leads[job.vehicle],
			})
			timelines[k] = tl
			energies[k] = energy.Derive(tl)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("cluster %q: %w", cfg.Name, err)
	}

	rows := Aggregate(model.YearStart(cfg.Year), timelines, energies)
	g.log().Debugw("cluster generated", map[string]any{
		"cluster":   cfg.Name,
		"year":      cfg.Year,
		"vehicles":  len(cfg.Vehicles),
		"instances": len(jobs),
		"hours":     len(rows),
		"elapsed":   time.Since(began).String(),
	})
	return rows, nil
}

func (g *Generator) limit() int {
	if g.Parallelism > 0 {
		return g.Parallelism
	}
	return runtime.GOMAXPROCS(0)
}

func (g *Generator) log() logger.Logger {
	if g.Logger == nil {
		return logger.Nop()
	}
	return g.Logger
}
