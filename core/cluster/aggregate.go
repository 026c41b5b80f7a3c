package cluster

import (
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/kilianp07/emobts/core/energy"
	"github.com/kilianp07/emobts/core/model"
	"github.com/kilianp07/emobts/core/timeline"
)

// Aggregate sums the instance timelines and their energy columns hour by hour
// into the cluster series starting at start. timelines and energies are
// parallel slices; they are added in slice order so repeated runs produce
// identical floating point results.
func Aggregate(start time.Time, timelines []timeline.Timeline, energies [][]energy.Energy) []model.HourlyRow {
	hours := 0
	if len(timelines) > 0 {
		hours = timelines[0].Hours()
	}
	capacity := make([]float64, hours)
	demand := make([]float64, hours)
	rest := make([]float64, hours)
	d := make([]float64, hours)
	r := make([]float64, hours)
	for k, tl := range timelines {
		floats.Add(capacity, tl.Capacity)
		for h, e := range energies[k] {
			d[h] = e.DemandKWh
			r[h] = e.RestKWh
		}
		floats.Add(demand, d)
		floats.Add(rest, r)
	}
	rows := make([]model.HourlyRow, hours)
	for h := range rows {
		rows[h] = model.HourlyRow{
			Time:                 start.Add(time.Duration(h) * time.Hour),
			AvailableCapacityKWh: capacity[h],
			EnergyDemandKWh:      demand[h],
			RestEnergyKWh:        rest[h],
		}
	}
	return rows
}
