// Package timeline turns the expanded day programs of one vehicle instance
// into its hourly available battery capacity.
package timeline

import (
	"math"
	"slices"
	"sort"
	"time"

	"github.com/kilianp07/emobts/core/jitter"
	"github.com/kilianp07/emobts/core/model"
	"github.com/kilianp07/emobts/core/schedule"
)

// NoWindow marks an hour that no absence window owns.
const NoWindow = -1

// Timeline is the hourly capacity of one vehicle instance over a year.
type Timeline struct {
	Start      time.Time
	BatteryKWh float64
	Capacity   []float64
	// Window holds, per hour, the index into Windows of the absence window
	// owning the hour, or NoWindow.
	Window  []int
	Windows []Window
}

// Hours returns the number of samples.
func (t Timeline) Hours() int { return len(t.Capacity) }

// Window is one absence of the vehicle, scheduled and jittered.
type Window struct {
	Day            int // planned day of year, negative before January 1
	Mode           model.Mode
	ScheduledStart time.Time
	ScheduledEnd   time.Time
	Start          time.Time
	End            time.Time
	EnergyKWh      float64
}

// Input carries the per-instance parameters of a build.
type Input struct {
	BatteryKWh          float64
	ConsumptionKWhPerKm float64
	Distortion          model.DistortionSpec
	Vehicle             int // index of the spec within its cluster
	Instance            int // copy number within the vehicle's Count
	// LeadIn holds the days before the year whose windows reach into it. They
	// shape capacity only; energy over the first days is dropped anyway.
	LeadIn []schedule.DaySlot
}

// Build computes the hourly capacity for slots. Unavailable days are forced
// to zero, absence windows decline linearly from the full battery toward
// battery minus tour energy and override any other state. Where windows
// overlap the earlier one keeps its hours.
func Build(slots []schedule.DaySlot, in Input) Timeline {
	hours := len(slots) * 24
	tl := Timeline{
		BatteryKWh: in.BatteryKWh,
		Capacity:   make([]float64, hours),
		Window:     make([]int, hours),
	}
	if hours == 0 {
		return tl
	}
	tl.Start = slots[0].Date
	for h := range tl.Capacity {
		tl.Capacity[h] = in.BatteryKWh
		tl.Window[h] = NoWindow
	}
	for _, s := range slots {
		if _, ok := s.Active().(model.Unavailable); ok {
			for h := s.Index * 24; h < (s.Index+1)*24; h++ {
				tl.Capacity[h] = 0
			}
		}
	}
	tl.Windows = Windows(slots, in)
	for k, w := range tl.Windows {
		apply(&tl, k, w)
	}
	return tl
}

// Windows returns the jittered absence windows of in.LeadIn and slots ordered
// by start.
func Windows(slots []schedule.DaySlot, in Input) []Window {
	var out []Window
	for _, s := range slices.Concat(in.LeadIn, slots) {
		var (
			dep, ret time.Duration
			km       float64
		)
		switch p := s.Active().(type) {
		case model.Tour:
			dep = p.Departure.Duration()
			ret = dep + p.Duration()
			km = p.DistanceKm
		case model.MultiDayTour:
			dep = p.DepartureOffset()
			ret = p.ReturnOffset()
			km = p.DistanceKm
		default:
			continue
		}
		w := Window{
			Day:            s.Index,
			Mode:           s.Program.Mode(),
			ScheduledStart: s.Date.Add(dep),
			ScheduledEnd:   s.Date.Add(ret),
			EnergyKWh:      km * in.ConsumptionKWhPerKm,
		}
		key := jitter.EventKey{Vehicle: in.Vehicle, Instance: in.Instance, Day: s.Index}
		key.Kind = jitter.Departure
		w.Start = w.ScheduledStart.Add(jitter.Duration(jitter.Offset(in.Distortion, key)))
		key.Kind = jitter.Return
		w.End = w.ScheduledEnd.Add(jitter.Duration(jitter.Offset(in.Distortion, key)))
		if !w.End.After(w.Start) {
			w.Start, w.End = w.ScheduledStart, w.ScheduledEnd
		}
		out = append(out, w)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

// apply writes window k into the timeline. An hour belongs to the window when
// its midpoint lies inside [Start, End); a window too short to contain any
// midpoint claims the hour of its departure.
func apply(tl *Timeline, k int, w Window) {
	s := w.Start.Sub(tl.Start)
	e := w.End.Sub(tl.Start)
	first := ceilDiv(s-time.Hour/2, time.Hour)
	last := ceilDiv(e-time.Hour/2, time.Hour) - 1
	if last < first {
		first = floorDiv(s, time.Hour)
		last = first
	}
	span := float64(e - s)
	for h := max(first, 0); h <= last && h < tl.Hours(); h++ {
		if tl.Window[h] != NoWindow {
			continue
		}
		progress := 1.0
		if h < last {
			progress = math.Min(1, float64(time.Duration(h+1)*time.Hour-s)/span)
		}
		tl.Capacity[h] = math.Max(0, tl.BatteryKWh-w.EnergyKWh*progress)
		tl.Window[h] = k
	}
}

func floorDiv(a, b time.Duration) int {
	q := a / b
	if a%b != 0 && a < 0 {
		q--
	}
	return int(q)
}

func ceilDiv(a, b time.Duration) int {
	q := a / b
	if a%b != 0 && a > 0 {
		q++
	}
	return int(q)
}
