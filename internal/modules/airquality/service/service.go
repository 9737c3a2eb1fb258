package service

import (
	"context"
	"fmt"
	"log/slog"

	"airq-dashboard/internal/modules/airquality/aggregate"
	"airq-dashboard/internal/modules/airquality/store"
	"airq-dashboard/internal/modules/airquality/types"
	"airq-dashboard/internal/mqtt"
)

// ComparisonPollutant is the pollutant used for best/worst month and the
// cross-station comparison.
const ComparisonPollutant = types.PM25

// Reloader is the part of store.Store the service drives.
type Reloader interface {
	Snapshot() *store.Snapshot
	Reload(ctx context.Context) (*store.Snapshot, error)
}

type Service struct {
	store  Reloader
	logger *slog.Logger
}

func NewService(store Reloader, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// Register attaches the reload handler to the subscriber.
func (s *Service) Register(subscriber mqtt.MQTTSubscriber) {
	registerMQTTHandler(subscriber, s.store, s.logger)
}

// Dashboard builds the view against the current snapshot.
func (s *Service) Dashboard(req Request) DashboardView {
	return BuildDashboard(s.store.Snapshot(), req)
}

func (s *Service) Snapshot() *store.Snapshot {
	return s.store.Snapshot()
}

func (s *Service) Reload(ctx context.Context) (*store.Snapshot, error) {
	return s.store.Reload(ctx)
}

type NoticeKind string

const (
	NoticeNoData         NoticeKind = "no_data"
	NoticeMissingColumns NoticeKind = "missing_columns"
	NoticeLoadProblem    NoticeKind = "load_problem"
	NoticeUnknownStation NoticeKind = "unknown_station"
	NoticeEmptyRange     NoticeKind = "empty_range"
	NoticeStationData    NoticeKind = "insufficient_station_data"
)

// Notice is a non-fatal condition shown in place of the chart it affects.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
	Source  string     `json:"source,omitempty"`
	Station string     `json:"station,omitempty"`
	Columns []string   `json:"columns,omitempty"`
}

// Request is the state of the dashboard controls. Empty Station selects the
// first station; a nil bound defaults to the station's first or last year.
// RangeFor names the station the bounds were picked for. When it is set and
// differs from the selected station the bounds are dropped, so switching
// stations starts from the new station's full range.
type Request struct {
	Station  string
	From     *int
	To       *int
	RangeFor string
}

type TrendPoint struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
}

type TrendSeries struct {
	Pollutant types.Pollutant `json:"pollutant"`
	Points    []TrendPoint    `json:"points"`
}

// DashboardView is everything one render of the dashboard needs.
type DashboardView struct {
	Source          string               `json:"source"`
	Stations        []string             `json:"stations"`
	SelectedStation string               `json:"selectedStation"`
	Bounds          types.YearRange      `json:"bounds"`
	Range           types.YearRange      `json:"range"`
	Rows            int                  `json:"rows"`
	Trend           []TrendSeries        `json:"trend,omitempty"`
	Best            *types.ExtremumMonth `json:"best,omitempty"`
	Worst           *types.ExtremumMonth `json:"worst,omitempty"`
	Comparison      *types.Comparison    `json:"comparison,omitempty"`
	Notices         []Notice             `json:"notices"`
}

// HasStation reports whether a station could be selected at all.
func (v DashboardView) HasStation() bool {
	return v.SelectedStation != ""
}

// BuildDashboard computes the view for one render cycle. It never fails:
// every problem becomes a Notice and the affected part is left empty.
func BuildDashboard(snap *store.Snapshot, req Request) DashboardView {
	view := DashboardView{Notices: []Notice{}}
	if snap == nil {
		view.Notices = append(view.Notices, Notice{Kind: NoticeNoData, Message: "no data has been loaded yet"})
		return view
	}
	view.Source = snap.Source
	if snap.Err != nil {
		view.Notices = append(view.Notices, Notice{Kind: NoticeNoData, Message: snap.Err.Error()})
	}
	view.Notices = append(view.Notices, problemNotices(snap.Problems)...)

	table := snap.Table
	view.Stations = aggregate.Stations(table)
	if len(view.Stations) == 0 {
		if snap.Err == nil && len(snap.Problems) == 0 {
			view.Notices = append(view.Notices, Notice{Kind: NoticeNoData, Message: "the loaded data contains no rows"})
		}
		return view
	}

	view.SelectedStation = view.Stations[0]
	if req.Station != "" {
		if contains(view.Stations, req.Station) {
			view.SelectedStation = req.Station
		} else {
			view.Notices = append(view.Notices, Notice{
				Kind:    NoticeUnknownStation,
				Station: req.Station,
				Message: fmt.Sprintf("unknown station %q, showing %q", req.Station, view.SelectedStation),
			})
		}
	}

	view.Bounds, _ = aggregate.YearBounds(table, view.SelectedStation)
	view.Range = view.Bounds
	if req.RangeFor == "" || req.RangeFor == view.SelectedStation {
		if req.From != nil {
			view.Range.From = *req.From
		}
		if req.To != nil {
			view.Range.To = *req.To
		}
	}

	rows := aggregate.FilterByYearRange(aggregate.FilterByStation(table, view.SelectedStation), view.Range.From, view.Range.To)
	view.Rows = rows.Len()
	if rows.Empty() {
		view.Notices = append(view.Notices, Notice{
			Kind:    NoticeEmptyRange,
			Station: view.SelectedStation,
			Message: fmt.Sprintf("%s: %d-%d", types.ErrEmptyRange, view.Range.From, view.Range.To),
		})
		return view
	}

	if yearly, err := aggregate.ComputeYearlyAverage(rows, view.SelectedStation, types.Pollutants); err == nil {
		view.Trend = TrendFromYearly(yearly)
	}

	best, bestErr := aggregate.FindExtremumMonth(rows, view.SelectedStation, ComparisonPollutant, types.Min)
	worst, worstErr := aggregate.FindExtremumMonth(rows, view.SelectedStation, ComparisonPollutant, types.Max)
	err := bestErr
	if err == nil {
		err = worstErr
	}
	if err != nil {
		view.Notices = append(view.Notices, Notice{Kind: NoticeStationData, Station: view.SelectedStation, Message: err.Error()})
	} else {
		view.Best, view.Worst = &best, &worst
	}

	comparison := aggregate.CompareStations(table, view.Stations, ComparisonPollutant)
	view.Comparison = &comparison
	for _, w := range comparison.Warnings {
		view.Notices = append(view.Notices, Notice{Kind: NoticeStationData, Station: w.Station, Message: w.Reason})
	}
	return view
}

// TrendFromYearly orders yearly means into one series per pollutant. A
// pollutant with no value in any year gets no series.
func TrendFromYearly(yearly types.YearlyAverages) []TrendSeries {
	years := yearly.Years()
	var out []TrendSeries
	for _, p := range types.Pollutants {
		s := TrendSeries{Pollutant: p}
		for _, y := range years {
			if v, ok := yearly[y][p]; ok {
				s.Points = append(s.Points, TrendPoint{Year: y, Value: v})
			}
		}
		if len(s.Points) > 0 {
			out = append(out, s)
		}
	}
	return out
}

func problemNotices(problems []types.LoadProblem) []Notice {
	out := make([]Notice, 0, len(problems))
	for _, p := range problems {
		if cols, ok := p.MissingColumns(); ok {
			out = append(out, Notice{Kind: NoticeMissingColumns, Source: p.Source, Columns: cols, Message: p.Message()})
			continue
		}
		out = append(out, Notice{Kind: NoticeLoadProblem, Source: p.Source, Message: p.Message()})
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
