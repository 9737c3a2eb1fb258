// Package charts renders the dashboard PNGs with go-chart.
package charts

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"airq-dashboard/internal/modules/airquality/service"
	"airq-dashboard/internal/modules/airquality/types"
)

// ErrNothingToRender is returned for a chart without a single data point.
var ErrNothingToRender = errors.New("nothing to render")

const (
	trendWidth  = 960
	trendHeight = 420

	barWidth    = 48
	barSpacing  = 24
	barHeight   = 420
	minBarWidth = 480
)

// Kind selects the comparison chart.
type Kind string

const (
	KindBest  Kind = "best"
	KindWorst Kind = "worst"
)

func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindBest, KindWorst:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("invalid chart kind %q (allowed: best, worst)", s)
	}
}

var pollutantColors = map[types.Pollutant]drawing.Color{
	types.PM25: chart.ColorBlue,
	types.PM10: chart.ColorOrange,
	types.NO2:  chart.ColorGreen,
	types.SO2:  chart.ColorRed,
}

func lineStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeColor: col,
		StrokeWidth: 2,
		DotColor:    col,
		DotWidth:    4,
	}
}

// RenderTrend draws one line per pollutant over the yearly means of station.
func RenderTrend(w io.Writer, station string, trend []service.TrendSeries) error {
	var (
		series           []chart.Series
		minYear, maxYear = math.MaxInt, math.MinInt
		maxValue         float64
	)
	for _, s := range trend {
		if len(s.Points) == 0 {
			continue
		}
		xs := make([]float64, 0, len(s.Points))
		ys := make([]float64, 0, len(s.Points))
		for _, p := range s.Points {
			xs = append(xs, float64(p.Year))
			ys = append(ys, p.Value)
			minYear = min(minYear, p.Year)
			maxYear = max(maxYear, p.Year)
			maxValue = max(maxValue, p.Value)
		}
		col, ok := pollutantColors[s.Pollutant]
		if !ok {
			col = chart.ColorAlternateGray
		}
		series = append(series, chart.ContinuousSeries{
			Name:    string(s.Pollutant),
			XValues: xs,
			YValues: ys,
			Style:   lineStyle(col),
		})
	}
	if len(series) == 0 {
		return ErrNothingToRender
	}

	ch := chart.Chart{
		Title:      fmt.Sprintf("Yearly average concentration, %s", station),
		Width:      trendWidth,
		Height:     trendHeight,
		Background: chart.Style{Padding: chart.Box{Top: 48, Left: 16, Right: 16, Bottom: 16}},
		XAxis: chart.XAxis{
			Name:  "Year",
			Range: yearRange(minYear, maxYear),
			Ticks: yearTicks(minYear, maxYear),
		},
		YAxis: chart.YAxis{
			Name:  "µg/m³",
			Range: &chart.ContinuousRange{Min: 0, Max: niceMax(maxValue)},
		},
		Series: series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render trend chart: %w", err)
	}
	return nil
}

// RenderComparison draws one bar per station: the mean PM2.5 of its cleanest
// month for KindBest, of its dirtiest month for KindWorst.
func RenderComparison(w io.Writer, kind Kind, results []types.StationResult) error {
	if len(results) == 0 {
		return ErrNothingToRender
	}

	var (
		title string
		col   drawing.Color
		pick  func(types.StationResult) types.ExtremumMonth
	)
	switch kind {
	case KindBest:
		title, col = "Best-case month per station (PM2.5)", chart.ColorBlue
		pick = func(r types.StationResult) types.ExtremumMonth { return r.Best }
	case KindWorst:
		title, col = "Worst-case month per station (PM2.5)", chart.ColorRed
		pick = func(r types.StationResult) types.ExtremumMonth { return r.Worst }
	default:
		return fmt.Errorf("invalid chart kind %q", kind)
	}

	bars := make([]chart.Value, 0, len(results))
	var maxValue float64
	for _, r := range results {
		m := pick(r)
		maxValue = max(maxValue, m.Value)
		bars = append(bars, chart.Value{
			Label: r.Station,
			Value: m.Value,
			Style: chart.Style{FillColor: col, StrokeColor: col, StrokeWidth: 1},
		})
	}

	bc := chart.BarChart{
		Title:      title,
		Width:      max(minBarWidth, len(bars)*(barWidth+barSpacing)+160),
		Height:     barHeight,
		BarWidth:   barWidth,
		BarSpacing: barSpacing,
		Background: chart.Style{Padding: chart.Box{Top: 48, Left: 16, Right: 16, Bottom: 16}},
		YAxis: chart.YAxis{
			Name:  "µg/m³",
			Range: &chart.ContinuousRange{Min: 0, Max: niceMax(maxValue)},
		},
		Bars: bars,
	}
	if err := bc.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render %s comparison chart: %w", kind, err)
	}
	return nil
}

// yearRange pads the axis half a year on each side; a single year would
// otherwise give a zero-width range, which go-chart rejects.
func yearRange(from, to int) *chart.ContinuousRange {
	return &chart.ContinuousRange{Min: float64(from) - 0.5, Max: float64(to) + 0.5}
}

// yearTicks labels every year. go-chart derives the axis range from explicit
// ticks, so the padded edges get unlabeled ticks too.
func yearTicks(from, to int) []chart.Tick {
	r := yearRange(from, to)
	ticks := make([]chart.Tick, 0, to-from+3)
	ticks = append(ticks, chart.Tick{Value: r.Min})
	for y := from; y <= to; y++ {
		ticks = append(ticks, chart.Tick{Value: float64(y), Label: strconv.Itoa(y)})
	}
	return append(ticks, chart.Tick{Value: r.Max})
}

// niceMax rounds v up to 1, 2 or 5 times a power of ten, with headroom.
func niceMax(v float64) float64 {
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 1
	}
	v *= 1.1
	mag := math.Pow(10, math.Floor(math.Log10(v)))
	for _, step := range []float64{1, 2, 5, 10} {
		if step*mag >= v {
			return step * mag
		}
	}
	return 10 * mag
}
