package model

import (
	"fmt"
	"time"
)

// MaxMultiDaySpan bounds the length of a multi-day tour.
const MaxMultiDaySpan = 14 * 24 * time.Hour

// Mode identifies the kind of a DayProgram.
type Mode int

const (
	ModeParked Mode = iota
	ModeTour
	ModeMultiDayTour
	ModeUnavailable
)

// String returns a human-readable representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModeParked:
		return "parked"
	case ModeTour:
		return "tour"
	case ModeMultiDayTour:
		return "multi_day_tour"
	case ModeUnavailable:
		return "unavailable"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// DayProgram is what a vehicle does on one weekday. The set of
// implementations is closed: Parked, Tour, MultiDayTour and Unavailable.
type DayProgram interface {
	Mode() Mode
	validate() error
}

// Parked keeps the vehicle at the depot with a full battery all day.
type Parked struct{}

// Unavailable removes the vehicle from planning for the whole day.
type Unavailable struct{}

// Tour is a single absence window starting and ending on the clock times
// given. A return at or before the departure time means the next day.
type Tour struct {
	DistanceKm float64
	Departure  ClockTime
	Return     ClockTime
}

// MultiDayTour is an absence window spanning more than one calendar day.
// Day offsets are relative to the weekday the tour is planned on.
type MultiDayTour struct {
	DistanceKm         float64
	DepartureDayOffset int
	DepartureTime      ClockTime
	ReturnDayOffset    int
	ReturnTime         ClockTime
}

func (Parked) Mode() Mode       { return ModeParked }
func (Unavailable) Mode() Mode  { return ModeUnavailable }
func (Tour) Mode() Mode         { return ModeTour }
func (MultiDayTour) Mode() Mode { return ModeMultiDayTour }

func (Parked) validate() error      { return nil }
func (Unavailable) validate() error { return nil }

func (t Tour) validate() error {
	if t.DistanceKm < 0 {
		return &ConfigError{Field: "km", Reason: fmt.Sprintf("must be >= 0, got %g", t.DistanceKm)}
	}
	if !t.Departure.Valid() {
		return &ConfigError{Field: "departure", Reason: fmt.Sprintf("invalid clock time %d", int(t.Departure))}
	}
	if !t.Return.Valid() {
		return &ConfigError{Field: "return", Reason: fmt.Sprintf("invalid clock time %d", int(t.Return))}
	}
	return nil
}

// Duration returns the scheduled length of the tour.
func (t Tour) Duration() time.Duration {
	d := t.Return.Sub(t.Departure)
	if d <= 0 {
		d += 24 * time.Hour
	}
	return d
}

func (m MultiDayTour) validate() error {
	if m.DistanceKm < 0 {
		return &ConfigError{Field: "km", Reason: fmt.Sprintf("must be >= 0, got %g", m.DistanceKm)}
	}
	if m.DepartureDayOffset < 0 {
		return &ConfigError{Field: "departure_day_offset", Reason: "must be >= 0"}
	}
	if !m.DepartureTime.Valid() {
		return &ConfigError{Field: "departure", Reason: fmt.Sprintf("invalid clock time %d", int(m.DepartureTime))}
	}
	if !m.ReturnTime.Valid() {
		return &ConfigError{Field: "return", Reason: fmt.Sprintf("invalid clock time %d", int(m.ReturnTime))}
	}
	span := m.Span()
	if span <= 0 {
		return &ConfigError{Field: "span", Reason: fmt.Sprintf("return must be after departure, span is %s", span)}
	}
	if span > MaxMultiDaySpan {
		return &ConfigError{Field: "span", Reason: fmt.Sprintf("exceeds %s, got %s", MaxMultiDaySpan, span)}
	}
	return nil
}

// DepartureOffset is the scheduled departure relative to midnight of the
// planned day.
func (m MultiDayTour) DepartureOffset() time.Duration {
	return time.Duration(m.DepartureDayOffset)*24*time.Hour + m.DepartureTime.Duration()
}

// ReturnOffset is the scheduled return relative to midnight of the planned day.
func (m MultiDayTour) ReturnOffset() time.Duration {
	return time.Duration(m.ReturnDayOffset)*24*time.Hour + m.ReturnTime.Duration()
}

// Span is the scheduled length of the absence window.
func (m MultiDayTour) Span() time.Duration {
	return m.ReturnOffset() - m.DepartureOffset()
}

// WeeklyPlan maps every weekday to its program.
type WeeklyPlan map[time.Weekday]DayProgram

// Weekdays lists the days of a plan Monday first.
var Weekdays = [7]time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// Validate requires all seven weekdays and checks each program.
func (p WeeklyPlan) Validate() error {
	for _, wd := range Weekdays {
		prog, ok := p[wd]
		if !ok || prog == nil {
			return &ConfigError{Field: WeekdayKey(wd), Reason: "weekday missing from weekly plan"}
		}
		if err := prog.validate(); err != nil {
			return PrefixField(err, WeekdayKey(wd))
		}
	}
	return nil
}

// WeekdayKey returns the short key used for a weekday in configuration files.
func WeekdayKey(wd time.Weekday) string {
	return wd.String()[:3]
}
