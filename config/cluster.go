package config

import (
	"fmt"
	"math"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/emobts/core/factory"
	"github.com/kilianp07/emobts/core/model"
)

// Day entry modes of a cluster file.
const (
	modeParked      = "steht"
	modeTour        = "tour"
	modeMultiDay    = "mehrtagstour"
	modeUnavailable = "nicht_verfügbar"
)

// Distortion defaults applied when a cluster file leaves them out.
const (
	DefaultStddevMinutes       = 10
	DefaultNormalMaxDeviation  = 30
	DefaultUniformMaxDeviation = 15
	defaultDistortionKind      = "normal"
)

var weekdayKeys = map[string]time.Weekday{
	"Mo": time.Monday, "Di": time.Tuesday, "Mi": time.Wednesday, "Do": time.Thursday,
	"Fr": time.Friday, "Sa": time.Saturday, "So": time.Sunday,
}

func init() {
	for _, wd := range model.Weekdays {
		weekdayKeys[model.WeekdayKey(wd)] = wd
	}
}

type clusterFile struct {
	ClusterName string        `json:"cluster_name"`
	Jahr        int           `json:"jahr"`
	Fahrzeuge   []vehicleFile `json:"fahrzeuge"`
}

type vehicleFile struct {
	Name           string                    `json:"name"`
	Anzahl         float64                   `json:"anzahl"`
	Akku           float64                   `json:"akku_kapazitaet_kwh"`
	Verbrauch      float64                   `json:"verbrauch_kwh_pro_km"`
	Zeitverzerrung map[string]any            `json:"zeitverzerrung"`
	Wochenplan     map[string]map[string]any `json:"wochenplan"`
}

type distortionFile struct {
	Typ          *string  `json:"typ"`
	Stddev       *float64 `json:"stddev_minuten"`
	MaxDeviation *float64 `json:"max_abweichung_minuten"`
	Seed         int64    `json:"seed"`
}

type tourFile struct {
	Km        *float64 `json:"km"`
	Abfahrt   string   `json:"abfahrt"`
	Rueckkehr string   `json:"rueckkehr"`
}

type multiDayFile struct {
	Km                 *float64 `json:"km"`
	Abfahrt            string   `json:"abfahrt"`
	RueckkehrUhr       string   `json:"rueckkehr_uhr"`
	TageSpaeter        float64  `json:"tage_später"`
	AbfahrtTageSpaeter float64  `json:"abfahrt_tage_später"`
}

// LoadCluster reads a cluster file and converts it to a ClusterConfig for
// year. A jahr key in the file overrides year. Weekdays missing from a
// vehicle plan are parked.
func LoadCluster(path string, year int) (model.ClusterConfig, error) {
	parser, err := parserFor(path)
	if err != nil {
		return model.ClusterConfig{}, err
	}
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), parser); err != nil {
		return model.ClusterConfig{}, fmt.Errorf("load %s: %w", path, err)
	}
	var raw clusterFile
	if err := k.UnmarshalWithConf("", &raw, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return model.ClusterConfig{}, &model.ConfigError{Field: filepath.Base(path), Reason: err.Error()}
	}
	cfg, err := raw.toModel(year)
	if err != nil {
		return model.ClusterConfig{}, err
	}
	if err := cfg.Validate(); err != nil {
		return model.ClusterConfig{}, err
	}
	return cfg, nil
}

func (f clusterFile) toModel(year int) (model.ClusterConfig, error) {
	name := strings.TrimSpace(f.ClusterName)
	if name == "" {
		return model.ClusterConfig{}, &model.ConfigError{Field: "cluster_name", Reason: "must be a non-empty string"}
	}
	if f.Jahr != 0 {
		year = f.Jahr
	}
	cfg := model.ClusterConfig{Year: year, Name: name, Vehicles: make([]model.VehicleSpec, 0, len(f.Fahrzeuge))}
	if len(f.Fahrzeuge) == 0 {
		return model.ClusterConfig{}, &model.ConfigError{Field: "fahrzeuge", Reason: "at least one vehicle is required"}
	}
	for i, v := range f.Fahrzeuge {
		spec, err := v.toModel()
		if err != nil {
			return model.ClusterConfig{}, model.PrefixField(err, fmt.Sprintf("fahrzeuge[%d]", i))
		}
		cfg.Vehicles = append(cfg.Vehicles, spec)
	}
	return cfg, nil
}

func (v vehicleFile) toModel() (model.VehicleSpec, error) {
	if v.Name == "" {
		return model.VehicleSpec{}, &model.ConfigError{Field: "name", Reason: "required"}
	}
	if v.Anzahl != math.Trunc(v.Anzahl) || v.Anzahl <= 0 {
		return model.VehicleSpec{}, &model.ConfigError{Field: "anzahl", Reason: fmt.Sprintf("must be a positive integer, got %g", v.Anzahl)}
	}
	dist, err := distortion(v.Zeitverzerrung)
	if err != nil {
		return model.VehicleSpec{}, model.PrefixField(err, "zeitverzerrung")
	}
	plan, err := weeklyPlan(v.Wochenplan)
	if err != nil {
		return model.VehicleSpec{}, model.PrefixField(err, "wochenplan")
	}
	return model.VehicleSpec{
		Name:                v.Name,
		Count:               int(v.Anzahl),
		BatteryKWh:          v.Akku,
		ConsumptionKWhPerKm: v.Verbrauch,
		Distortion:          dist,
		WeeklyPlan:          plan,
	}, nil
}

// distortion maps a zeitverzerrung block. A missing block counts as an empty
// one. Without typ the block is a normal distortion with a 10 minute standard
// deviation unless stddev_minuten says otherwise. The seed defaults to 0.
func distortion(raw map[string]any) (model.DistortionSpec, error) {
	if raw == nil {
		raw = map[string]any{}
	}
	var f distortionFile
	if err := factory.Decode(raw, &f); err != nil {
		return model.DistortionSpec{}, &model.DistortionError{Reason: err.Error()}
	}
	typ := defaultDistortionKind
	if f.Typ != nil {
		typ = *f.Typ
		if typ != "normal" && typ != "uniform" {
			return model.DistortionSpec{}, &model.DistortionError{Field: "typ", Reason: fmt.Sprintf("must be normal or uniform, got %q", typ)}
		}
	}
	kind, err := model.ParseDistortionKind(typ)
	if err != nil {
		return model.DistortionSpec{}, err
	}
	spec := model.DistortionSpec{Kind: kind, StddevMinutes: f.Stddev, Seed: f.Seed}
	if kind == model.DistortionNormal && f.Typ == nil && f.Stddev == nil {
		sd := float64(DefaultStddevMinutes)
		spec.StddevMinutes = &sd
	}
	switch {
	case f.MaxDeviation != nil:
		spec.MaxDeviationMinutes = *f.MaxDeviation
	case kind == model.DistortionUniform:
		spec.MaxDeviationMinutes = DefaultUniformMaxDeviation
	default:
		spec.MaxDeviationMinutes = DefaultNormalMaxDeviation
	}
	if err := spec.Validate(); err != nil {
		return model.DistortionSpec{}, err
	}
	return spec, nil
}

func weeklyPlan(raw map[string]map[string]any) (model.WeeklyPlan, error) {
	plan := model.WeeklyPlan{}
	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		wd, ok := weekdayKeys[key]
		if !ok {
			return nil, &model.ConfigError{Field: key, Reason: "unknown weekday"}
		}
		if _, dup := plan[wd]; dup {
			return nil, &model.ConfigError{Field: key, Reason: fmt.Sprintf("%s given twice", wd)}
		}
		prog, err := dayProgram(raw[key])
		if err != nil {
			return nil, model.PrefixField(err, key)
		}
		plan[wd] = prog
	}
	for _, wd := range model.Weekdays {
		if _, ok := plan[wd]; !ok {
			plan[wd] = model.Parked{}
		}
	}
	return plan, nil
}

func dayProgram(entry map[string]any) (model.DayProgram, error) {
	var found []string
	for _, m := range []string{modeParked, modeTour, modeMultiDay, modeUnavailable} {
		if _, ok := entry[m]; ok {
			found = append(found, m)
		}
	}
	if len(found) != 1 || len(entry) != 1 {
		return nil, &model.ConfigError{Reason: fmt.Sprintf("exactly one of %s, %s, %s or %s must be set", modeParked, modeTour, modeMultiDay, modeUnavailable)}
	}
	mode := found[0]
	val := entry[mode]
	switch mode {
	case modeParked, modeUnavailable:
		if b, ok := val.(bool); !ok || !b {
			return nil, &model.ConfigError{Field: mode, Reason: "must be true"}
		}
		if mode == modeParked {
			return model.Parked{}, nil
		}
		return model.Unavailable{}, nil
	case modeTour:
		return tour(val)
	default:
		return multiDayTour(val)
	}
}

func tour(val any) (model.DayProgram, error) {
	raw, ok := val.(map[string]any)
	if !ok {
		return nil, &model.ConfigError{Field: modeTour, Reason: "must be an object"}
	}
	var f tourFile
	if err := factory.Decode(raw, &f); err != nil {
		return nil, &model.ConfigError{Field: modeTour, Reason: err.Error()}
	}
	km, err := distance(f.Km)
	if err != nil {
		return nil, model.PrefixField(err, modeTour)
	}
	dep, err := clock("abfahrt", f.Abfahrt)
	if err != nil {
		return nil, model.PrefixField(err, modeTour)
	}
	ret, err := clock("rueckkehr", f.Rueckkehr)
	if err != nil {
		return nil, model.PrefixField(err, modeTour)
	}
	return model.Tour{DistanceKm: km, Departure: dep, Return: ret}, nil
}

// multiDayTour maps a mehrtagstour entry. Without tage_später the vehicle
// returns on the same day, or the next one when the return time is not after
// the departure time.
func multiDayTour(val any) (model.DayProgram, error) {
	raw, ok := val.(map[string]any)
	if !ok {
		return nil, &model.ConfigError{Field: modeMultiDay, Reason: "must be an object"}
	}
	var f multiDayFile
	if err := factory.Decode(raw, &f); err != nil {
		return nil, &model.ConfigError{Field: modeMultiDay, Reason: err.Error()}
	}
	km, err := distance(f.Km)
	if err != nil {
		return nil, model.PrefixField(err, modeMultiDay)
	}
	dep, err := clock("abfahrt", f.Abfahrt)
	if err != nil {
		return nil, model.PrefixField(err, modeMultiDay)
	}
	ret, err := clock("rueckkehr_uhr", f.RueckkehrUhr)
	if err != nil {
		return nil, model.PrefixField(err, modeMultiDay)
	}
	later, err := dayOffset("tage_später", f.TageSpaeter)
	if err != nil {
		return nil, model.PrefixField(err, modeMultiDay)
	}
	depLater, err := dayOffset("abfahrt_tage_später", f.AbfahrtTageSpaeter)
	if err != nil {
		return nil, model.PrefixField(err, modeMultiDay)
	}
	if later == depLater && ret <= dep {
		later++
	}
	return model.MultiDayTour{
		DistanceKm:         km,
		DepartureDayOffset: depLater,
		DepartureTime:      dep,
		ReturnDayOffset:    later,
		ReturnTime:         ret,
	}, nil
}

func distance(km *float64) (float64, error) {
	if km == nil {
		return 0, &model.ConfigError{Field: "km", Reason: "required"}
	}
	if *km < 0 {
		return 0, &model.ConfigError{Field: "km", Reason: fmt.Sprintf("must be >= 0, got %g", *km)}
	}
	return *km, nil
}

func clock(field, s string) (model.ClockTime, error) {
	if s == "" {
		return 0, &model.ConfigError{Field: field, Reason: "required"}
	}
	c, err := model.ParseClock(s)
	if err != nil {
		return 0, &model.ConfigError{Field: field, Reason: err.Error()}
	}
	return c, nil
}

func dayOffset(field string, v float64) (int, error) {
	if v < 0 || v != math.Trunc(v) {
		return 0, &model.ConfigError{Field: field, Reason: fmt.Sprintf("must be an integer >= 0, got %g", v)}
	}
	return int(v), nil
}

// DiscoverClusters returns the files in dir matching pattern, sorted by name.
func DiscoverClusters(dir, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = DefaultClusterPattern
	}
	files, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, &model.ConfigError{Field: "clusters.pattern", Reason: err.Error()}
	}
	slices.Sort(files)
	return files, nil
}
