// Package schedule expands a weekly template into the concrete day programs
// of one calendar year.
package schedule

import (
	"time"

	"github.com/kilianp07/emobts/core/model"
)

const day = 24 * time.Hour

// DaySlot is one calendar day of the expanded year.
type DaySlot struct {
	Index   int       // day of year, 0-based
	Date    time.Time // midnight UTC
	Program model.DayProgram
	// OccupiedBy is the Index of the multi-day tour whose window covers this
	// day, or -1. An occupied day does not run its own program.
	OccupiedBy int
}

const unoccupied = -1

// Occupied reports whether an earlier multi-day tour covers the day.
func (s DaySlot) Occupied() bool { return s.OccupiedBy != unoccupied }

// Active returns the program to apply for the day, nil when occupied.
func (s DaySlot) Active() model.DayProgram {
	if s.Occupied() {
		return nil
	}
	return s.Program
}

// Expand cycles plan over every day of year. Multi-day tours mark each
// further day their scheduled window touches as occupied; windows are clipped
// at the end of the year and a tour planned on an already occupied day is
// dropped in favour of the earlier one. Windows planned before January 1
// are not part of the result; see LeadIn.
func Expand(plan model.WeeklyPlan, year int) ([]DaySlot, error) {
	if err := plan.Validate(); err != nil {
		return nil, model.PrefixField(err, "weekly_plan")
	}
	n := model.DaysInYear(year)
	start := model.YearStart(year)
	slots := make([]DaySlot, n)
	for i := range slots {
		date := start.AddDate(0, 0, i)
		slots[i] = DaySlot{Index: i, Date: date, Program: plan[date.Weekday()], OccupiedBy: unoccupied}
	}
	occupy(slots)
	return slots, nil
}

// LeadIn returns the days before January 1 of year whose scheduled windows
// reach into year, oldest first. Index counts back from January 1, so
// December 31 is -1. Lead-in multi-day tours occupy later lead-in days but
// never days of year; overlaps with the year's own windows are left to the
// timeline, where the earlier window keeps its hours.
func LeadIn(plan model.WeeklyPlan, year int) []DaySlot {
	look := 1
	for _, p := range plan {
		if m, ok := p.(model.MultiDayTour); ok {
			_, last := CoveredDays(m)
			look = max(look, last)
		}
	}
	start := model.YearStart(year)
	days := make([]DaySlot, look)
	for k := range days {
		date := start.AddDate(0, 0, k-look)
		days[k] = DaySlot{Index: k - look, Date: date, Program: plan[date.Weekday()], OccupiedBy: unoccupied}
	}
	occupy(days)
	var out []DaySlot
	for _, s := range days {
		if end, ok := scheduledEnd(s.Active()); ok && s.Date.Add(end).After(start) {
			out = append(out, s)
		}
	}
	return out
}

// occupy marks the days covered by each multi-day tour of slots. The
// occupying tour is always earlier than the last slot, so a lead-in Index
// of -1 never ends up in OccupiedBy.
func occupy(slots []DaySlot) {
	for i := range slots {
		if slots[i].Occupied() {
			continue
		}
		m, ok := slots[i].Program.(model.MultiDayTour)
		if !ok {
			continue
		}
		first, last := CoveredDays(m)
		for d := i + first; d <= i+last && d < len(slots); d++ {
			if d == i || slots[d].Occupied() {
				continue
			}
			slots[d].OccupiedBy = slots[i].Index
		}
	}
}

func scheduledEnd(p model.DayProgram) (time.Duration, bool) {
	switch p := p.(type) {
	case model.Tour:
		return p.Departure.Duration() + p.Duration(), true
	case model.MultiDayTour:
		return p.ReturnOffset(), true
	}
	return 0, false
}

// CoveredDays returns the day offsets, relative to the planned day, of the
// first and last calendar day the tour's scheduled window touches.
func CoveredDays(m model.MultiDayTour) (first, last int) {
	first = int(m.DepartureOffset() / day)
	last = int((m.ReturnOffset() - time.Nanosecond) / day)
	return first, last
}
