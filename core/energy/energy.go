// Package energy derives the energy demand and rest energy columns from a
// vehicle timeline.
package energy

import "github.com/kilianp07/emobts/core/timeline"

// EdgeDays is the number of calendar days at each end of the year whose
// energy columns are forced to zero.
const EdgeDays = 2

// Energy holds the derived columns of one hour.
type Energy struct {
	DemandKWh float64
	RestKWh   float64
}

// Derive returns one Energy per timeline hour. A capacity block is a maximal
// run of hours owned by the same absence window over which capacity strictly
// decreases, and it starts with the window's first hour. Every window
// declines from the full battery, so the block's first hour carries the
// battery capacity as rest energy and its last hour the capacity consumed
// over the block as demand. Unavailable days are not windows and never form
// blocks. A block reaching into the first or last EdgeDays days is dropped
// whole, leaving both columns zero there.
func Derive(tl timeline.Timeline) []Energy {
	n := tl.Hours()
	out := make([]Energy, n)
	edge := EdgeDays * 24
	for h := 0; h < n; h++ {
		w := tl.Window[h]
		if w == timeline.NoWindow || (h > 0 && tl.Window[h-1] == w) || tl.Capacity[h] >= tl.BatteryKWh {
			continue
		}
		start := h
		for h+1 < n && tl.Window[h+1] == w && tl.Capacity[h+1] < tl.Capacity[h] {
			h++
		}
		if start < edge || h >= n-edge {
			continue
		}
		out[start].RestKWh = tl.BatteryKWh
		out[h].DemandKWh = tl.BatteryKWh - tl.Capacity[h]
	}
	return out
}
