package types

import (
	"fmt"
	"sort"
	"strings"
)

// Pollutant is the column name of a measured concentration (µg/m³).
type Pollutant string

const (
	PM25 Pollutant = "PM2.5"
	PM10 Pollutant = "PM10"
	NO2  Pollutant = "NO2"
	SO2  Pollutant = "SO2"
)

// Pollutants is the fixed pollutant set in display order.
var Pollutants = []Pollutant{PM25, PM10, NO2, SO2}

// ParsePollutant resolves a pollutant name case-insensitively.
func ParsePollutant(s string) (Pollutant, error) {
	s = strings.TrimSpace(s)
	for _, p := range Pollutants {
		if strings.EqualFold(string(p), s) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPollutant, s)
}

// Valid reports whether p is one of Pollutants.
func (p Pollutant) Valid() bool {
	for _, known := range Pollutants {
		if p == known {
			return true
		}
	}
	return false
}

// Reading is one row of the source table. A pollutant absent from Values is a
// missing measurement.
type Reading struct {
	Station string                `json:"station"`
	Year    int                   `json:"year"`
	Month   int                   `json:"month"`
	Values  map[Pollutant]float64 `json:"values"`
}

// Value returns the measurement for p and whether it is present.
func (r Reading) Value(p Pollutant) (float64, bool) {
	v, ok := r.Values[p]
	return v, ok
}

// Table is an ordered, read-only sequence of readings.
type Table struct {
	Readings []Reading
}

func (t Table) Len() int { return len(t.Readings) }

func (t Table) Empty() bool { return len(t.Readings) == 0 }

// YearMonth is the (year, month) grouping key.
type YearMonth struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%d-%d", ym.Year, ym.Month)
}

// Extremum selects the minimum (cleanest) or maximum (dirtiest) group.
type Extremum int

const (
	Min Extremum = iota + 1
	Max
)

func (e Extremum) String() string {
	switch e {
	case Min:
		return "min"
	case Max:
		return "max"
	default:
		return fmt.Sprintf("extremum(%d)", int(e))
	}
}

// ExtremumMonth is the winning (year, month) group and its mean value.
type ExtremumMonth struct {
	YearMonth
	Value float64 `json:"value"`
}

// YearlyAverages maps year -> pollutant -> mean concentration.
type YearlyAverages map[int]map[Pollutant]float64

// Years returns the years present in ascending order.
func (y YearlyAverages) Years() []int {
	years := make([]int, 0, len(y))
	for year := range y {
		years = append(years, year)
	}
	sort.Ints(years)
	return years
}

// StationResult holds the cleanest and dirtiest month of one station.
type StationResult struct {
	Station string        `json:"station"`
	Best    ExtremumMonth `json:"best"`
	Worst   ExtremumMonth `json:"worst"`
}

// StationWarning names a station skipped during a comparison and why.
type StationWarning struct {
	Station string `json:"station"`
	Reason  string `json:"reason"`
}

// Comparison is the cross-station result: successes in caller order plus
// the stations that were skipped.
type Comparison struct {
	Results  []StationResult  `json:"results"`
	Warnings []StationWarning `json:"warnings"`
}

// ByStation indexes Results by station name.
func (c Comparison) ByStation() map[string]StationResult {
	out := make(map[string]StationResult, len(c.Results))
	for _, r := range c.Results {
		out[r.Station] = r
	}
	return out
}

// YearRange is an inclusive year interval.
type YearRange struct {
	From int `json:"from"`
	To   int `json:"to"`
}

func (r YearRange) Contains(year int) bool {
	return year >= r.From && year <= r.To
}
