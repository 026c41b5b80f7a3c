package config

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/emobts/core/model"
)

const depotCluster = `{
  "cluster_name": "depot_nord",
  "fahrzeuge": [
    {
      "name": "Transporter",
      "anzahl": 16,
      "akku_kapazitaet_kwh": 90,
      "verbrauch_kwh_pro_km": 0.25,
      "zeitverzerrung": {"typ": "normal", "stddev_minuten": 15, "seed": 42},
      "wochenplan": {
        "Mo": {"tour": {"km": 120, "abfahrt": "07:30", "rueckkehr": "16:15"}},
        "Di": {"tour": {"km": 80, "abfahrt": "22:00", "rueckkehr": "05:00"}},
        "Mi": {"steht": true},
        "Fr": {"mehrtagstour": {"km": 300, "abfahrt": "18:00", "rueckkehr_uhr": "06:00", "tage_später": 3}},
        "Sa": {"nicht_verfügbar": true}
      }
    },
    {
      "name": "LKW",
      "anzahl": 2,
      "akku_kapazitaet_kwh": 600,
      "verbrauch_kwh_pro_km": 1.2,
      "zeitverzerrung": {"typ": "uniform"},
      "wochenplan": {"Thu": {"tour": {"km": 250, "abfahrt": "06:00", "rueckkehr": "15:00"}}}
    }
  ]
}`

func TestLoadCluster(t *testing.T) {
	path := writeFile(t, t.TempDir(), "cluster_depot.json", depotCluster)
	cfg, err := LoadCluster(path, 2025)
	require.NoError(t, err)

	assert.Equal(t, "depot_nord", cfg.Name)
	assert.Equal(t, 2025, cfg.Year)
	require.Len(t, cfg.Vehicles, 2)
	assert.Equal(t, 18, cfg.Instances())

	van := cfg.Vehicles[0]
	assert.Equal(t, "Transporter", van.Name)
	assert.Equal(t, 16, van.Count)
	assert.Equal(t, 90.0, van.BatteryKWh)
	assert.Equal(t, 0.25, van.ConsumptionKWhPerKm)
	assert.Equal(t, model.DistortionNormal, van.Distortion.Kind)
	assert.Equal(t, 15.0, van.Distortion.Stddev())
	assert.Equal(t, float64(DefaultNormalMaxDeviation), van.Distortion.MaxDeviationMinutes)
	assert.Equal(t, int64(42), van.Distortion.Seed)

	assert.Equal(t, model.Tour{DistanceKm: 120, Departure: model.Clock(7, 30), Return: model.Clock(16, 15)}, van.WeeklyPlan[time.Monday])
	assert.Equal(t, model.Tour{DistanceKm: 80, Departure: model.Clock(22, 0), Return: model.Clock(5, 0)}, van.WeeklyPlan[time.Tuesday])
	assert.Equal(t, model.Parked{}, van.WeeklyPlan[time.Wednesday])
	assert.Equal(t, model.Parked{}, van.WeeklyPlan[time.Thursday])
	assert.Equal(t, model.MultiDayTour{DistanceKm: 300, DepartureTime: model.Clock(18, 0), ReturnDayOffset: 3, ReturnTime: model.Clock(6, 0)}, van.WeeklyPlan[time.Friday])
	assert.Equal(t, model.Unavailable{}, van.WeeklyPlan[time.Saturday])
	assert.Equal(t, model.Parked{}, van.WeeklyPlan[time.Sunday])

	lkw := cfg.Vehicles[1]
	assert.Equal(t, model.DistortionUniform, lkw.Distortion.Kind)
	assert.Equal(t, float64(DefaultUniformMaxDeviation), lkw.Distortion.MaxDeviationMinutes)
	assert.Equal(t, model.Tour{DistanceKm: 250, Departure: model.Clock(6, 0), Return: model.Clock(15, 0)}, lkw.WeeklyPlan[time.Thursday])
}

func TestLoadClusterYAMLAndJahr(t *testing.T) {
	path := writeFile(t, t.TempDir(), "cluster_bus.yaml", `cluster_name: bus
jahr: 2024
fahrzeuge:
  - name: Reisebus
    anzahl: 1
    akku_kapazitaet_kwh: 400
    verbrauch_kwh_pro_km: 1
    zeitverzerrung: {}
    wochenplan:
      So:
        mehrtagstour: {km: 50, abfahrt: "20:00", rueckkehr_uhr: "08:00"}
      Mo:
        mehrtagstour: {km: 50, abfahrt: "09:00", rueckkehr_uhr: "17:00"}
`)
	cfg, err := LoadCluster(path, 2025)
	require.NoError(t, err)
	assert.Equal(t, 2024, cfg.Year)

	bus := cfg.Vehicles[0]
	assert.NoError(t, bus.WeeklyPlan.Validate())
	assert.Equal(t, model.DistortionNormal, bus.Distortion.Kind)
	assert.Equal(t, float64(DefaultStddevMinutes), bus.Distortion.Stddev())
	assert.Equal(t, float64(DefaultNormalMaxDeviation), bus.Distortion.MaxDeviationMinutes)
	assert.Equal(t, 1, bus.WeeklyPlan[time.Sunday].(model.MultiDayTour).ReturnDayOffset)
	assert.Equal(t, 0, bus.WeeklyPlan[time.Monday].(model.MultiDayTour).ReturnDayOffset)
}

func TestLoadClusterDefaultDistortion(t *testing.T) {
	path := writeFile(t, t.TempDir(), "cluster_x.json", `{"cluster_name": "x", "fahrzeuge": [
	  {"name": "a", "anzahl": 1, "akku_kapazitaet_kwh": 50, "verbrauch_kwh_pro_km": 0.2, "wochenplan": {}}]}`)
	cfg, err := LoadCluster(path, 2025)
	require.NoError(t, err)
	dist := cfg.Vehicles[0].Distortion
	assert.Equal(t, model.DistortionNormal, dist.Kind)
	assert.Equal(t, float64(DefaultStddevMinutes), dist.Stddev())
	assert.Equal(t, float64(DefaultNormalMaxDeviation), dist.MaxDeviationMinutes)
	assert.Zero(t, dist.Seed)
	for _, wd := range model.Weekdays {
		assert.Equal(t, model.Parked{}, cfg.Vehicles[0].WeeklyPlan[wd])
	}
}

func TestLoadClusterErrors(t *testing.T) {
	vehicle := func(extra string) string {
		return `{"cluster_name": "c", "fahrzeuge": [{"name": "v", "anzahl": 1, "akku_kapazitaet_kwh": 50,
		  "verbrauch_kwh_pro_km": 0.2` + extra + `}]}`
	}
	tests := []struct {
		name       string
		data       string
		field      string
		distortion bool
	}{
		{"no name", `{"fahrzeuge": []}`, "cluster_name", false},
		{"no vehicles", `{"cluster_name": "c", "fahrzeuge": []}`, "fahrzeuge", false},
		{"fractional count", `{"cluster_name": "c", "fahrzeuge": [{"name": "v", "anzahl": 1.5}]}`, "fahrzeuge[0].anzahl", false},
		{"unknown weekday", vehicle(`, "wochenplan": {"Xy": {"steht": true}}`), "fahrzeuge[0].wochenplan.Xy", false},
		{"duplicate weekday", vehicle(`, "wochenplan": {"Mo": {"steht": true}, "Mon": {"steht": true}}`), "fahrzeuge[0].wochenplan.Mon", false},
		{"two modes", vehicle(`, "wochenplan": {"Di": {"steht": true, "nicht_verfügbar": true}}`), "fahrzeuge[0].wochenplan.Di", false},
		{"no mode", vehicle(`, "wochenplan": {"Di": {}}`), "fahrzeuge[0].wochenplan.Di", false},
		{"steht false", vehicle(`, "wochenplan": {"Mi": {"steht": false}}`), "fahrzeuge[0].wochenplan.Mi.steht", false},
		{"negative km", vehicle(`, "wochenplan": {"Do": {"tour": {"km": -1, "abfahrt": "08:00", "rueckkehr": "09:00"}}}`), "fahrzeuge[0].wochenplan.Do.tour.km", false},
		{"missing km", vehicle(`, "wochenplan": {"Do": {"tour": {"abfahrt": "08:00", "rueckkehr": "09:00"}}}`), "fahrzeuge[0].wochenplan.Do.tour.km", false},
		{"bad time", vehicle(`, "wochenplan": {"Fr": {"tour": {"km": 1, "abfahrt": "25:00", "rueckkehr": "09:00"}}}`), "fahrzeuge[0].wochenplan.Fr.tour.abfahrt", false},
		{"bad offset", vehicle(`, "wochenplan": {"Sa": {"mehrtagstour": {"km": 1, "abfahrt": "08:00", "rueckkehr_uhr": "09:00", "tage_später": -2}}}`), "fahrzeuge[0].wochenplan.Sa.mehrtagstour.tage_später", false},
		{"zero battery", `{"cluster_name": "c", "fahrzeuge": [{"name": "v", "anzahl": 1, "verbrauch_kwh_pro_km": 1, "wochenplan": {}}]}`, "vehicles[0].battery_capacity_kwh", false},
		{"unknown typ", vehicle(`, "zeitverzerrung": {"typ": "poisson"}, "wochenplan": {}`), "fahrzeuge[0].zeitverzerrung.typ", true},
		{"normal without stddev", vehicle(`, "zeitverzerrung": {"typ": "normal"}, "wochenplan": {}`), "fahrzeuge[0].zeitverzerrung.stddev_minutes", true},
		{"negative max", vehicle(`, "zeitverzerrung": {"typ": "uniform", "max_abweichung_minuten": -5}, "wochenplan": {}`), "fahrzeuge[0].zeitverzerrung.max_deviation_minutes", true},
	}
	dir := t.TempDir()
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, "cluster_"+string(rune('a'+i))+".json", tt.data)
			_, err := LoadCluster(path, 2025)
			require.Error(t, err)
			if tt.distortion {
				var de *model.DistortionError
				require.True(t, errors.As(err, &de), "got %v", err)
				assert.ErrorIs(t, err, model.ErrDistortion)
				assert.Equal(t, tt.field, de.Field)
				return
			}
			var ce *model.ConfigError
			require.True(t, errors.As(err, &ce), "got %v", err)
			assert.ErrorIs(t, err, model.ErrConfig)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestDiscoverClusters(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"cluster_b.json", "cluster_a.json", "config.json", "2025_a_emob_timeseries.csv"} {
		writeFile(t, dir, name, "{}")
	}
	files, err := DiscoverClusters(dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "cluster_a.json"), filepath.Join(dir, "cluster_b.json")}, files)

	files, err = DiscoverClusters(dir, "*.csv")
	require.NoError(t, err)
	assert.Len(t, files, 1)

	_, err = DiscoverClusters(dir, "[")
	require.ErrorIs(t, err, model.ErrConfig)
}
