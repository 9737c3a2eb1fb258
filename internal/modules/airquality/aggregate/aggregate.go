// Package aggregate turns a loaded table into the numbers the dashboard shows:
// yearly means per station, the cleanest and dirtiest month, and the
// cross-station comparison. Every function is pure; the input table is never
// modified.
package aggregate

import (
	"fmt"

	"airq-dashboard/internal/modules/airquality/types"
)

// AllStations as a station filter matches every row.
const AllStations = ""

type accumulator struct {
	sum   float64
	count int
}

func (a *accumulator) add(v float64) {
	a.sum += v
	a.count++
}

func (a accumulator) mean() float64 {
	return a.sum / float64(a.count)
}

// FilterByYearRange returns the rows with minYear <= year <= maxYear, in
// table order. An empty result is not an error.
func FilterByYearRange(table types.Table, minYear, maxYear int) types.Table {
	out := make([]types.Reading, 0, len(table.Readings))
	for _, r := range table.Readings {
		if r.Year >= minYear && r.Year <= maxYear {
			out = append(out, r)
		}
	}
	return types.Table{Readings: out}
}

// FilterByStation returns the rows of one station, in table order.
// AllStations returns the table unchanged.
func FilterByStation(table types.Table, station string) types.Table {
	if station == AllStations {
		return table
	}
	out := make([]types.Reading, 0)
	for _, r := range table.Readings {
		if r.Station == station {
			out = append(out, r)
		}
	}
	return types.Table{Readings: out}
}

// ComputeYearlyAverage averages every requested pollutant per year for one
// station, or for every station with AllStations. A nil pollutant list means
// all pollutants. Years and pollutants
// without a single contributing value are left out of the result.
func ComputeYearlyAverage(table types.Table, station string, pollutants []types.Pollutant) (types.YearlyAverages, error) {
	if pollutants == nil {
		pollutants = types.Pollutants
	}
	for _, p := range pollutants {
		if !p.Valid() {
			return nil, fmt.Errorf("%w: %q", types.ErrUnknownPollutant, string(p))
		}
	}

	matched := 0
	acc := make(map[int]map[types.Pollutant]*accumulator)
	for _, r := range table.Readings {
		if station != AllStations && r.Station != station {
			continue
		}
		matched++
		for _, p := range pollutants {
			v, ok := r.Value(p)
			if !ok {
				continue
			}
			byPollutant, ok := acc[r.Year]
			if !ok {
				byPollutant = make(map[types.Pollutant]*accumulator)
				acc[r.Year] = byPollutant
			}
			a, ok := byPollutant[p]
			if !ok {
				a = &accumulator{}
				byPollutant[p] = a
			}
			a.add(v)
		}
	}
	if matched == 0 {
		return nil, fmt.Errorf("%w: %q", types.ErrEmptyResult, station)
	}

	out := make(types.YearlyAverages, len(acc))
	for year, byPollutant := range acc {
		means := make(map[types.Pollutant]float64, len(byPollutant))
		for p, a := range byPollutant {
			means[p] = a.mean()
		}
		out[year] = means
	}
	return out, nil
}

// FindExtremumMonth groups the rows matching stationFilter by (year, month),
// averages pollutant per group and returns the group with the lowest (Min) or
// highest (Max) mean. Ties go to the group encountered first in table order.
func FindExtremumMonth(table types.Table, stationFilter string, pollutant types.Pollutant, extremum types.Extremum) (types.ExtremumMonth, error) {
	if !pollutant.Valid() {
		return types.ExtremumMonth{}, fmt.Errorf("%w: %q", types.ErrUnknownPollutant, string(pollutant))
	}
	if extremum != types.Min && extremum != types.Max {
		return types.ExtremumMonth{}, fmt.Errorf("%w: %s", types.ErrInvalidExtremum, extremum)
	}

	var order []types.YearMonth
	groups := make(map[types.YearMonth]*accumulator)
	matched := 0
	for _, r := range table.Readings {
		if stationFilter != AllStations && r.Station != stationFilter {
			continue
		}
		matched++
		key := types.YearMonth{Year: r.Year, Month: r.Month}
		a, ok := groups[key]
		if !ok {
			a = &accumulator{}
			groups[key] = a
			order = append(order, key)
		}
		if v, ok := r.Value(pollutant); ok {
			a.add(v)
		}
	}
	if matched == 0 {
		return types.ExtremumMonth{}, fmt.Errorf("%w: no rows match station %q", types.ErrInsufficientData, stationFilter)
	}

	var (
		best  types.ExtremumMonth
		found bool
	)
	for _, key := range order {
		a := groups[key]
		if a.count == 0 {
			continue
		}
		m := a.mean()
		if !found || better(m, best.Value, extremum) {
			best = types.ExtremumMonth{YearMonth: key, Value: m}
			found = true
		}
	}
	if !found {
		return types.ExtremumMonth{}, fmt.Errorf("%w: every row lacks %s", types.ErrInsufficientData, pollutant)
	}
	return best, nil
}

// better is strict so that earlier groups win ties.
func better(candidate, current float64, extremum types.Extremum) bool {
	if extremum == types.Min {
		return candidate < current
	}
	return candidate > current
}

// CompareStations computes the cleanest and dirtiest month of each station
// independently. A station that cannot be evaluated is reported in Warnings
// and does not affect the others.
func CompareStations(table types.Table, stations []string, pollutant types.Pollutant) types.Comparison {
	out := types.Comparison{
		Results:  make([]types.StationResult, 0, len(stations)),
		Warnings: make([]types.StationWarning, 0),
	}
	for _, station := range stations {
		res, err := compareStation(table, station, pollutant)
		if err != nil {
			out.Warnings = append(out.Warnings, types.StationWarning{Station: station, Reason: err.Error()})
			continue
		}
		out.Results = append(out.Results, res)
	}
	return out
}

func compareStation(table types.Table, station string, pollutant types.Pollutant) (types.StationResult, error) {
	best, err := FindExtremumMonth(table, station, pollutant, types.Min)
	if err != nil {
		return types.StationResult{}, err
	}
	worst, err := FindExtremumMonth(table, station, pollutant, types.Max)
	if err != nil {
		return types.StationResult{}, err
	}
	return types.StationResult{Station: station, Best: best, Worst: worst}, nil
}

// Stations lists the distinct station names in first-seen order.
func Stations(table types.Table) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range table.Readings {
		if seen[r.Station] {
			continue
		}
		seen[r.Station] = true
		out = append(out, r.Station)
	}
	return out
}

// YearBounds returns the smallest and largest year observed for station
// (AllStations for the whole table). ok is false when no row matches.
func YearBounds(table types.Table, station string) (bounds types.YearRange, ok bool) {
	for _, r := range table.Readings {
		if station != AllStations && r.Station != station {
			continue
		}
		if !ok {
			bounds = types.YearRange{From: r.Year, To: r.Year}
			ok = true
			continue
		}
		if r.Year < bounds.From {
			bounds.From = r.Year
		}
		if r.Year > bounds.To {
			bounds.To = r.Year
		}
	}
	return bounds, ok
}
