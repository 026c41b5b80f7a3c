package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/kilianp07/emobts/core/model"
)

// Header is the column contract of the persisted series.
var Header = []string{"Date", "Time", "available_capacity_kWh", "energy_demand_kWh", "rest_energy_kWh"}

// CSVOptions controls the number and field formatting of WriteCSV.
type CSVOptions struct {
	Delimiter rune   // field separator, ';' when zero
	Decimal   string // decimal separator, "," when empty
}

// DefaultCSVOptions matches the format spreadsheet tools in German locales
// read without conversion.
var DefaultCSVOptions = CSVOptions{Delimiter: ';', Decimal: ","}

func (o CSVOptions) withDefaults() CSVOptions {
	if o.Delimiter == 0 {
		o.Delimiter = DefaultCSVOptions.Delimiter
	}
	if o.Decimal == "" {
		o.Decimal = DefaultCSVOptions.Decimal
	}
	return o
}

// WriteCSV writes rows to w with a header line.
func WriteCSV(w io.Writer, rows []model.HourlyRow, opts CSVOptions) error {
	opts = opts.withDefaults()
	cw := csv.NewWriter(w)
	cw.Comma = opts.Delimiter
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			r.Date(),
			r.Clock(),
			formatFloat(r.AvailableCapacityKWh, opts.Decimal),
			formatFloat(r.EnergyDemandKWh, opts.Decimal),
			formatFloat(r.RestEnergyKWh, opts.Decimal),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64, decimal string) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if decimal != "." {
		s = strings.Replace(s, ".", decimal, 1)
	}
	return s
}

// Document is the JSON representation of a series.
type Document struct {
	RunID   string            `json:"run_id,omitempty"`
	Cluster string            `json:"cluster"`
	Year    int               `json:"year"`
	Rows    []model.HourlyRow `json:"rows"`
}

// WriteJSON writes doc to w in JSON format.
func WriteJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	return enc.Encode(doc)
}
