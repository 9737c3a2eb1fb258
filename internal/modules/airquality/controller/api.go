package controller

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"airq-dashboard/internal/modules/airquality/aggregate"
	"airq-dashboard/internal/modules/airquality/store"
	"airq-dashboard/internal/modules/airquality/types"
	"airq-dashboard/internal/utils"
)

type stationSummary struct {
	Name    string `json:"name"`
	MinYear int    `json:"minYear"`
	MaxYear int    `json:"maxYear"`
	Rows    int    `json:"rows"`
}

type yearValues struct {
	Year   int                         `json:"year"`
	Values map[types.Pollutant]float64 `json:"values"`
}

type yearlyResponse struct {
	Station string          `json:"station"`
	Range   types.YearRange `json:"range"`
	Years   []yearValues    `json:"years"`
}

type extremesResponse struct {
	Station   string              `json:"station,omitempty"`
	Pollutant types.Pollutant     `json:"pollutant"`
	Range     types.YearRange     `json:"range"`
	Best      types.ExtremumMonth `json:"best"`
	Worst     types.ExtremumMonth `json:"worst"`
}

type loadProblem struct {
	Source  string `json:"source"`
	Message string `json:"message"`
}

type reloadResponse struct {
	Source     string        `json:"source"`
	Generation int           `json:"generation"`
	Rows       int           `json:"rows"`
	LoadedAt   time.Time     `json:"loadedAt"`
	Problems   []loadProblem `json:"problems"`
	Error      string        `json:"error,omitempty"`
}

func hasData(snap *store.Snapshot) bool {
	return snap != nil && !snap.Table.Empty()
}

func noDataMessage(snap *store.Snapshot) string {
	if snap != nil && snap.Err != nil {
		return snap.Err.Error()
	}
	return types.ErrNoDataFound.Error()
}

func (c *airQualityControllerImpl) handleStations(w http.ResponseWriter, r *http.Request) {
	snap := c.service.Snapshot()
	if !hasData(snap) {
		utils.WriteError(w, http.StatusServiceUnavailable, noDataMessage(snap))
		return
	}

	rows := make(map[string]int)
	for _, rec := range snap.Table.Readings {
		rows[rec.Station]++
	}
	stations := aggregate.Stations(snap.Table)
	out := make([]stationSummary, 0, len(stations))
	for _, name := range stations {
		bounds, _ := aggregate.YearBounds(snap.Table, name)
		out = append(out, stationSummary{Name: name, MinYear: bounds.From, MaxYear: bounds.To, Rows: rows[name]})
	}
	utils.WriteJSON(w, http.StatusOK, out)
}

// stationRows resolves the station path value and year range query. ok is
// false when an error response has been written.
func (c *airQualityControllerImpl) stationRows(w http.ResponseWriter, r *http.Request) (station string, rng types.YearRange, rows types.Table, ok bool) {
	snap := c.service.Snapshot()
	if !hasData(snap) {
		utils.WriteError(w, http.StatusServiceUnavailable, noDataMessage(snap))
		return "", rng, rows, false
	}
	station = r.PathValue("station")
	bounds, found := aggregate.YearBounds(snap.Table, station)
	if station == "" || !found {
		utils.WriteError(w, http.StatusNotFound, "unknown station")
		return "", rng, rows, false
	}
	rng, err := parseYearRange(r, bounds)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return "", rng, rows, false
	}
	rows = aggregate.FilterByYearRange(aggregate.FilterByStation(snap.Table, station), rng.From, rng.To)
	if rows.Empty() {
		utils.WriteError(w, http.StatusNotFound, types.ErrEmptyRange.Error())
		return "", rng, rows, false
	}
	return station, rng, rows, true
}

func (c *airQualityControllerImpl) handleYearly(w http.ResponseWriter, r *http.Request) {
	pollutants, err := parsePollutants(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	station, rng, rows, ok := c.stationRows(w, r)
	if !ok {
		return
	}

	yearly, err := aggregate.ComputeYearlyAverage(rows, station, pollutants)
	if err != nil {
		slog.Error("yearly average failed", "station", station, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := yearlyResponse{Station: station, Range: rng, Years: make([]yearValues, 0, len(yearly))}
	for _, y := range yearly.Years() {
		resp.Years = append(resp.Years, yearValues{Year: y, Values: yearly[y]})
	}
	utils.WriteJSON(w, http.StatusOK, resp)
}

func (c *airQualityControllerImpl) handleStationExtremes(w http.ResponseWriter, r *http.Request) {
	pollutant, err := parsePollutant(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	station, rng, rows, ok := c.stationRows(w, r)
	if !ok {
		return
	}
	writeExtremes(w, rows, station, pollutant, rng)
}

func (c *airQualityControllerImpl) handleAllExtremes(w http.ResponseWriter, r *http.Request) {
	pollutant, err := parsePollutant(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	snap := c.service.Snapshot()
	if !hasData(snap) {
		utils.WriteError(w, http.StatusServiceUnavailable, noDataMessage(snap))
		return
	}
	bounds, _ := aggregate.YearBounds(snap.Table, aggregate.AllStations)
	rng, err := parseYearRange(r, bounds)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	rows := aggregate.FilterByYearRange(snap.Table, rng.From, rng.To)
	if rows.Empty() {
		utils.WriteError(w, http.StatusNotFound, types.ErrEmptyRange.Error())
		return
	}
	writeExtremes(w, rows, aggregate.AllStations, pollutant, rng)
}

func writeExtremes(w http.ResponseWriter, rows types.Table, station string, pollutant types.Pollutant, rng types.YearRange) {
	best, err := aggregate.FindExtremumMonth(rows, station, pollutant, types.Min)
	if err == nil {
		var worst types.ExtremumMonth
		worst, err = aggregate.FindExtremumMonth(rows, station, pollutant, types.Max)
		if err == nil {
			utils.WriteJSON(w, http.StatusOK, extremesResponse{
				Station:   station,
				Pollutant: pollutant,
				Range:     rng,
				Best:      best,
				Worst:     worst,
			})
			return
		}
	}
	if errors.Is(err, types.ErrInsufficientData) {
		utils.WriteError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	slog.Error("extremum month failed", "station", station, "pollutant", pollutant, "error", err)
	utils.WriteError(w, http.StatusInternalServerError, err.Error())
}

func (c *airQualityControllerImpl) handleCompare(w http.ResponseWriter, r *http.Request) {
	pollutant, err := parsePollutant(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	snap := c.service.Snapshot()
	if !hasData(snap) {
		utils.WriteError(w, http.StatusServiceUnavailable, noDataMessage(snap))
		return
	}
	stations := parseStations(r)
	if len(stations) == 0 {
		stations = aggregate.Stations(snap.Table)
	}
	utils.WriteJSON(w, http.StatusOK, aggregate.CompareStations(snap.Table, stations, pollutant))
}

func (c *airQualityControllerImpl) handleReload(w http.ResponseWriter, r *http.Request) {
	snap, err := c.service.Reload(r.Context())
	if err != nil {
		slog.Error("reload via api failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := reloadResponse{
		Source:     snap.Source,
		Generation: snap.Generation,
		Rows:       snap.Table.Len(),
		LoadedAt:   snap.LoadedAt,
		Problems:   make([]loadProblem, 0, len(snap.Problems)),
	}
	for _, p := range snap.Problems {
		resp.Problems = append(resp.Problems, loadProblem{Source: p.Source, Message: p.Message()})
	}
	if snap.Err != nil {
		resp.Error = snap.Err.Error()
	}
	utils.WriteJSON(w, http.StatusOK, resp)
}
