package timeline

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/emobts/core/model"
	"github.com/kilianp07/emobts/core/schedule"
)

func expand(t *testing.T, year int, overrides map[time.Weekday]model.DayProgram) []schedule.DaySlot {
	t.Helper()
	p := model.WeeklyPlan{}
	for _, wd := range model.Weekdays {
		p[wd] = model.Parked{}
	}
	for wd, prog := range overrides {
		p[wd] = prog
	}
	slots, err := schedule.Expand(p, year)
	require.NoError(t, err)
	return slots
}

func hourOf(day, hour int) int { return day*24 + hour }

func TestBuildParked(t *testing.T) {
	tl := Build(expand(t, 2023, nil), Input{BatteryKWh: 100, ConsumptionKWhPerKm: 1})
	require.Equal(t, 8760, tl.Hours())
	for h, c := range tl.Capacity {
		require.Equal(t, 100.0, c, "hour %d", h)
		require.Equal(t, NoWindow, tl.Window[h])
	}
	assert.Empty(t, tl.Windows)
}

func TestBuildSingleTourLinearDecline(t *testing.T) {
	slots := expand(t, 2024, map[time.Weekday]model.DayProgram{
		time.Monday: model.Tour{DistanceKm: 300, Departure: model.Clock(8, 0), Return: model.Clock(17, 0)},
	})
	tl := Build(slots, Input{BatteryKWh: 600, ConsumptionKWhPerKm: 1})
	// 2024-01-08 is the second Monday.
	d := 7
	assert.Equal(t, 600.0, tl.Capacity[hourOf(d, 7)])
	prev := 600.0
	for h := 8; h <= 16; h++ {
		c := tl.Capacity[hourOf(d, h)]
		require.Less(t, c, prev, "hour %d", h)
		prev = c
	}
	assert.InDelta(t, 600-300.0/9, tl.Capacity[hourOf(d, 8)], 1e-9)
	assert.Equal(t, 300.0, tl.Capacity[hourOf(d, 16)])
	assert.Equal(t, 600.0, tl.Capacity[hourOf(d, 17)])
}

func TestBuildClampsInfeasibleTour(t *testing.T) {
	slots := expand(t, 2025, map[time.Weekday]model.DayProgram{
		time.Tuesday: model.Tour{DistanceKm: 1000, Departure: model.Clock(6, 0), Return: model.Clock(18, 0)},
	})
	tl := Build(slots, Input{BatteryKWh: 600, ConsumptionKWhPerKm: 1})
	zero := false
	for _, c := range tl.Capacity {
		require.GreaterOrEqual(t, c, 0.0)
		require.LessOrEqual(t, c, 600.0)
		if c == 0 {
			zero = true
		}
	}
	assert.True(t, zero)
}

func TestBuildUnavailableDay(t *testing.T) {
	slots := expand(t, 2025, map[time.Weekday]model.DayProgram{time.Thursday: model.Unavailable{}})
	tl := Build(slots, Input{BatteryKWh: 50, ConsumptionKWhPerKm: 0.2})
	// 2025-01-02 is a Thursday.
	for h := 0; h < 24; h++ {
		assert.Zero(t, tl.Capacity[hourOf(1, h)])
	}
	assert.Equal(t, 50.0, tl.Capacity[hourOf(2, 0)])
}

func TestBuildOvernightTour(t *testing.T) {
	slots := expand(t, 2025, map[time.Weekday]model.DayProgram{
		time.Wednesday: model.Tour{DistanceKm: 80, Departure: model.Clock(22, 0), Return: model.Clock(6, 0)},
	})
	tl := Build(slots, Input{BatteryKWh: 100, ConsumptionKWhPerKm: 1})
	// 2025-01-08 is a Wednesday.
	d := 7
	assert.Equal(t, 100.0, tl.Capacity[hourOf(d, 21)])
	assert.Less(t, tl.Capacity[hourOf(d, 22)], 100.0)
	assert.Equal(t, 20.0, tl.Capacity[hourOf(d+1, 5)])
	assert.Equal(t, 100.0, tl.Capacity[hourOf(d+1, 6)])
	assert.Equal(t, tl.Window[hourOf(d, 23)], tl.Window[hourOf(d+1, 0)])
}

func TestBuildMultiDayWeekend(t *testing.T) {
	slots := expand(t, 2025, map[time.Weekday]model.DayProgram{
		time.Friday: model.MultiDayTour{DistanceKm: 200, DepartureTime: model.Clock(18, 0), ReturnDayOffset: 3, ReturnTime: model.Clock(6, 0)},
	})
	tl := Build(slots, Input{BatteryKWh: 300, ConsumptionKWhPerKm: 1})
	// 2025-01-10 is a Friday; Saturday and Sunday stay reduced.
	fri := 9
	for h := hourOf(fri, 18); h < hourOf(fri+3, 6); h++ {
		require.Less(t, tl.Capacity[h], 300.0, "hour %d", h)
		require.NotEqual(t, NoWindow, tl.Window[h])
	}
	assert.Equal(t, 100.0, tl.Capacity[hourOf(fri+3, 5)])
	assert.Equal(t, 300.0, tl.Capacity[hourOf(fri+3, 6)])
}

func TestBuildShortTourClaimsDepartureHour(t *testing.T) {
	slots := expand(t, 2025, map[time.Weekday]model.DayProgram{
		time.Monday: model.Tour{DistanceKm: 10, Departure: model.Clock(8, 5), Return: model.Clock(8, 25)},
	})
	tl := Build(slots, Input{BatteryKWh: 40, ConsumptionKWhPerKm: 1})
	// 2025-01-06 is a Monday.
	assert.Equal(t, 30.0, tl.Capacity[hourOf(5, 8)])
	assert.Equal(t, 40.0, tl.Capacity[hourOf(5, 9)])
}

func TestBuildTourOverridesUnavailable(t *testing.T) {
	slots := expand(t, 2025, map[time.Weekday]model.DayProgram{
		time.Monday:  model.Tour{DistanceKm: 40, Departure: model.Clock(20, 0), Return: model.Clock(4, 0)},
		time.Tuesday: model.Unavailable{},
	})
	tl := Build(slots, Input{BatteryKWh: 100, ConsumptionKWhPerKm: 1})
	// Monday 2025-01-06 tour runs into the unavailable Tuesday.
	assert.Equal(t, 60.0, tl.Capacity[hourOf(6, 3)])
	assert.Zero(t, tl.Capacity[hourOf(6, 4)])
}

func TestBuildLeadInWindow(t *testing.T) {
	overnight := model.Tour{DistanceKm: 40, Departure: model.Clock(22, 0), Return: model.Clock(6, 0)}
	p := model.WeeklyPlan{}
	for _, wd := range model.Weekdays {
		p[wd] = model.Parked{}
	}
	p[time.Sunday] = overnight
	slots := expand(t, 2024, map[time.Weekday]model.DayProgram{time.Sunday: overnight})

	// 2023-12-31 is a Sunday; its tour returns on 2024-01-01 at 06:00.
	tl := Build(slots, Input{BatteryKWh: 100, ConsumptionKWhPerKm: 1, LeadIn: schedule.LeadIn(p, 2024)})
	assert.Equal(t, 85.0, tl.Capacity[0])
	assert.Equal(t, 60.0, tl.Capacity[5])
	assert.Equal(t, 100.0, tl.Capacity[6])
	require.NotEmpty(t, tl.Windows)
	assert.Equal(t, -1, tl.Windows[0].Day)
	assert.Equal(t, tl.Window[0], tl.Window[5])

	plain := Build(slots, Input{BatteryKWh: 100, ConsumptionKWhPerKm: 1})
	assert.Equal(t, 100.0, plain.Capacity[0])
}

func TestWindowsJitterBounded(t *testing.T) {
	sd := 40.0
	dist := model.DistortionSpec{Kind: model.DistortionNormal, StddevMinutes: &sd, MaxDeviationMinutes: 25, Seed: 11}
	slots := expand(t, 2024, map[time.Weekday]model.DayProgram{
		time.Monday:    model.Tour{DistanceKm: 100, Departure: model.Clock(7, 0), Return: model.Clock(15, 0)},
		time.Wednesday: model.Tour{DistanceKm: 20, Departure: model.Clock(9, 0), Return: model.Clock(9, 30)},
		time.Friday:    model.MultiDayTour{DistanceKm: 300, DepartureTime: model.Clock(16, 0), ReturnDayOffset: 2, ReturnTime: model.Clock(12, 0)},
	})
	in := Input{BatteryKWh: 120, ConsumptionKWhPerKm: 0.5, Distortion: dist, Instance: 3}
	ws := Windows(slots, in)
	require.NotEmpty(t, ws)
	limit := time.Duration(dist.MaxDeviationMinutes) * time.Minute
	jittered := 0
	for _, w := range ws {
		require.True(t, w.End.After(w.Start))
		require.LessOrEqual(t, absDur(w.Start.Sub(w.ScheduledStart)), limit)
		require.LessOrEqual(t, absDur(w.End.Sub(w.ScheduledEnd)), limit)
		if !w.Start.Equal(w.ScheduledStart) {
			jittered++
		}
	}
	assert.Greater(t, jittered, len(ws)/2)
	tl := Build(slots, in)
	for _, c := range tl.Capacity {
		require.False(t, math.IsNaN(c))
		require.GreaterOrEqual(t, c, 0.0)
		require.LessOrEqual(t, c, 120.0)
	}
}

func TestBuildDeterministicPerInstance(t *testing.T) {
	sd := 15.0
	dist := model.DistortionSpec{Kind: model.DistortionNormal, StddevMinutes: &sd, MaxDeviationMinutes: 30, Seed: 5}
	slots := expand(t, 2025, map[time.Weekday]model.DayProgram{
		time.Thursday: model.Tour{DistanceKm: 60, Departure: model.Clock(10, 0), Return: model.Clock(14, 0)},
	})
	a := Build(slots, Input{BatteryKWh: 80, ConsumptionKWhPerKm: 0.3, Distortion: dist, Instance: 0})
	b := Build(slots, Input{BatteryKWh: 80, ConsumptionKWhPerKm: 0.3, Distortion: dist, Instance: 0})
	c := Build(slots, Input{BatteryKWh: 80, ConsumptionKWhPerKm: 0.3, Distortion: dist, Instance: 1})
	assert.Equal(t, a.Capacity, b.Capacity)
	assert.NotEqual(t, a.Windows, c.Windows)
}

func absDur(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
