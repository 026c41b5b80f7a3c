package metrics

import (
	coremetrics "github.com/kilianp07/emobts/core/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records generation runs in Prometheus metrics.
type PromSink struct {
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	peak     *prometheus.GaugeVec
	demand   *prometheus.GaugeVec
	fleet    *prometheus.GaugeVec
	exports  *prometheus.CounterVec
}

// NewPromSink registers generation metrics on the default Prometheus registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// already registered by an earlier sink are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	runs, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "emob_generations_total",
		Help: "Total number of cluster generations",
	}, []string{"cluster", "status"}))
	if err != nil {
		return nil, err
	}
	duration, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "emob_generation_duration_seconds",
		Help:    "Time spent generating one cluster series",
		Buckets: prometheus.DefBuckets,
	}, []string{"cluster"}))
	if err != nil {
		return nil, err
	}
	peak, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "emob_cluster_peak_capacity_kwh",
		Help: "Highest hourly available capacity of the last generated series",
	}, []string{"cluster"}))
	if err != nil {
		return nil, err
	}
	demand, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "emob_cluster_energy_demand_kwh",
		Help: "Yearly energy demand of the last generated series",
	}, []string{"cluster"}))
	if err != nil {
		return nil, err
	}
	fleet, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "emob_cluster_vehicles",
		Help: "Number of simulated vehicle instances in the cluster",
	}, []string{"cluster"}))
	if err != nil {
		return nil, err
	}
	exports, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "emob_exports_total",
		Help: "Total number of series deliveries per exporter",
	}, []string{"exporter", "status"}))
	if err != nil {
		return nil, err
	}
	return &PromSink{runs: runs, duration: duration, peak: peak, demand: demand, fleet: fleet, exports: exports}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		var zero C
		return zero, err
	}
	return c, nil
}

// RecordGeneration updates the run counter and, for successful runs, the
// per cluster gauges.
func (s *PromSink) RecordGeneration(ev coremetrics.GenerationEvent) error {
	s.runs.WithLabelValues(ev.Cluster, ev.Status).Inc()
	s.duration.WithLabelValues(ev.Cluster).Observe(ev.Duration.Seconds())
	if ev.Status != coremetrics.StatusOK {
		return nil
	}
	s.peak.WithLabelValues(ev.Cluster).Set(ev.PeakCapacityKWh)
	s.demand.WithLabelValues(ev.Cluster).Set(ev.TotalDemandKWh)
	s.fleet.WithLabelValues(ev.Cluster).Set(float64(ev.Instances))
	return nil
}

// RecordExport counts exporter deliveries.
func (s *PromSink) RecordExport(ev coremetrics.ExportEvent) error {
	s.exports.WithLabelValues(ev.Exporter, ev.Status).Inc()
	return nil
}
