package model

import (
	"fmt"
	"time"
)

const (
	// MinYear and MaxYear bound the accepted simulation year.
	MinYear = 2000
	MaxYear = 3000
)

// ClusterConfig is a named group of vehicle specifications simulated over one
// calendar year and written to one output series.
type ClusterConfig struct {
	Year     int
	Name     string
	Vehicles []VehicleSpec
}

// VehicleSpec describes Count identical vehicles sharing one weekly plan.
// Each copy is simulated independently with its own jitter draws.
type VehicleSpec struct {
	Name                string
	Count               int
	BatteryKWh          float64 // usable battery capacity
	ConsumptionKWhPerKm float64 // energy drawn per driven kilometre
	Distortion          DistortionSpec
	WeeklyPlan          WeeklyPlan
}

// Validate checks the cluster and every vehicle it contains. The first
// offending field is reported.
func (c ClusterConfig) Validate() error {
	if c.Year < MinYear || c.Year > MaxYear {
		return &ConfigError{Field: "year", Reason: fmt.Sprintf("must be within %d..%d, got %d", MinYear, MaxYear, c.Year)}
	}
	if c.Name == "" {
		return &ConfigError{Field: "name", Reason: "must not be empty"}
	}
	if len(c.Vehicles) == 0 {
		return &ConfigError{Field: "vehicles", Reason: "at least one vehicle is required"}
	}
	for i, v := range c.Vehicles {
		if err := v.Validate(); err != nil {
			return PrefixField(err, fmt.Sprintf("vehicles[%d]", i))
		}
	}
	return nil
}

// Instances returns the total number of simulated vehicle copies.
func (c ClusterConfig) Instances() int {
	n := 0
	for _, v := range c.Vehicles {
		n += v.Count
	}
	return n
}

// Hours returns the number of hourly samples of the configured year.
func (c ClusterConfig) Hours() int { return HoursInYear(c.Year) }

// Validate checks that the vehicle configuration is sound.
func (v VehicleSpec) Validate() error {
	if v.Count <= 0 {
		return &ConfigError{Field: "count", Reason: fmt.Sprintf("must be positive, got %d", v.Count)}
	}
	if v.BatteryKWh <= 0 {
		return &ConfigError{Field: "battery_capacity_kwh", Reason: fmt.Sprintf("must be positive, got %g", v.BatteryKWh)}
	}
	if v.ConsumptionKWhPerKm <= 0 {
		return &ConfigError{Field: "consumption_kwh_per_km", Reason: fmt.Sprintf("must be positive, got %g", v.ConsumptionKWhPerKm)}
	}
	if err := v.Distortion.Validate(); err != nil {
		return PrefixField(err, "distortion")
	}
	if err := v.WeeklyPlan.Validate(); err != nil {
		return PrefixField(err, "weekly_plan")
	}
	return nil
}

// TourEnergyKWh returns the energy needed to drive km kilometres.
func (v VehicleSpec) TourEnergyKWh(km float64) float64 {
	return km * v.ConsumptionKWhPerKm
}

// YearStart returns midnight of January 1st in UTC. The series is computed on
// UTC wall time so every year has exactly 8760 or 8784 hours.
func YearStart(year int) time.Time {
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
}

// DaysInYear returns 365 or 366.
func DaysInYear(year int) int {
	return int(YearStart(year+1).Sub(YearStart(year)).Hours() / 24)
}

// HoursInYear returns 8760 or 8784.
func HoursInYear(year int) int { return DaysInYear(year) * 24 }
