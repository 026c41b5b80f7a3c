package model

import "time"

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
)

// HourlyRow is one hour of the cluster series. EnergyDemandKWh and
// RestEnergyKWh are non-zero only at capacity block boundaries.
type HourlyRow struct {
	Time                 time.Time `json:"time"`
	AvailableCapacityKWh float64   `json:"available_capacity_kWh"`
	EnergyDemandKWh      float64   `json:"energy_demand_kWh"`
	RestEnergyKWh        float64   `json:"rest_energy_kWh"`
}

// Date formats the row date as YYYY-MM-DD.
func (r HourlyRow) Date() string { return r.Time.Format(dateLayout) }

// Clock formats the row hour as HH:MM.
func (r HourlyRow) Clock() string { return r.Time.Format(clockLayout) }
