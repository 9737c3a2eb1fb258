// Package loader reads air-quality CSV files into a types.Table.
//
// Two layouts are supported: a single merged file carrying a station column,
// or a directory holding one file per station where the station name is the
// file name without its extension. Required columns are checked once per
// file; a file that fails is reported as a types.LoadProblem and skipped.
package loader

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"airq-dashboard/internal/modules/airquality/types"
)

type Mode string

const (
	ModeMerged     Mode = "merged"
	ModePerStation Mode = "per-station"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeMerged:
		return ModeMerged, nil
	case ModePerStation:
		return ModePerStation, nil
	default:
		return "", fmt.Errorf("invalid data mode %q (allowed: merged, per-station)", s)
	}
}

const (
	ColumnYear    = "year"
	ColumnMonth   = "month"
	ColumnStation = "station"
)

var missingMarkers = []string{"", "NA", "NaN", "nan", "null", "<nil>"}

// Result is the outcome of loading one or more files.
type Result struct {
	Table    types.Table
	Files    []string
	Problems []types.LoadProblem
}

// RequiredColumns lists the columns a file must carry. withStation adds the
// station column needed by merged files.
func RequiredColumns(withStation bool) []string {
	cols := []string{ColumnYear, ColumnMonth}
	if withStation {
		cols = append(cols, ColumnStation)
	}
	for _, p := range types.Pollutants {
		cols = append(cols, string(p))
	}
	return cols
}

// Load dispatches on mode. For ModeMerged path is a file, for ModePerStation
// a directory.
func Load(ctx context.Context, mode Mode, path string) (Result, error) {
	switch mode {
	case ModeMerged:
		return LoadMerged(ctx, path)
	case ModePerStation:
		return LoadPerStation(ctx, path)
	default:
		return Result{}, fmt.Errorf("invalid data mode %q", mode)
	}
}

// LoadMerged loads one file with an explicit station column.
func LoadMerged(ctx context.Context, path string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	table, err := loadFile(path, "")
	if err != nil {
		if os.IsNotExist(err) {
			return Result{}, fmt.Errorf("%w: %s", types.ErrNoDataFound, path)
		}
		return Result{Files: []string{path}, Problems: []types.LoadProblem{{Source: path, Err: err}}}, nil
	}
	return Result{Table: table, Files: []string{path}}, nil
}

// LoadPerStation loads every *.csv file in dir, naming each station after its
// file. Files are read in lexical order.
func LoadPerStation(ctx context.Context, dir string) (Result, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return Result{}, fmt.Errorf("glob %s: %w", dir, err)
	}
	if len(files) == 0 {
		return Result{}, fmt.Errorf("%w: no *.csv files in %s", types.ErrNoDataFound, dir)
	}
	sort.Strings(files)

	var res Result
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		res.Files = append(res.Files, f)
		station := StationFromFilename(f)
		table, err := loadFile(f, station)
		if err != nil {
			slog.Warn("skipping data file", "file", f, "station", station, "error", err)
			res.Problems = append(res.Problems, types.LoadProblem{Source: f, Err: err})
			continue
		}
		res.Table.Readings = append(res.Table.Readings, table.Readings...)
	}
	return res, nil
}

// StationFromFilename strips directory and extension: "data/Dongsi.csv" -> "Dongsi".
func StationFromFilename(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func loadFile(path, station string) (types.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.Table{}, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.Error("close data file", "file", path, "error", err)
		}
	}()
	return ReadCSV(f, path, station)
}

// ReadCSV parses one CSV stream. An empty station means the rows carry their
// own station column; otherwise every row is assigned station and any station
// column is ignored. source names the stream in errors.
func ReadCSV(r io.Reader, source string, station string) (types.Table, error) {
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(missingMarkers),
	)
	if df.Err != nil {
		return types.Table{}, fmt.Errorf("%s: read csv: %w", source, df.Err)
	}

	// Column lookups are by exact name, so "year, month" headers are trimmed
	// before anything else reads them.
	names := df.Names()
	for i, n := range names {
		names[i] = strings.TrimSpace(n)
	}
	if err := df.SetNames(names...); err != nil {
		return types.Table{}, fmt.Errorf("%s: header: %w", source, err)
	}

	if missing := missingColumns(names, RequiredColumns(station == "")); len(missing) > 0 {
		return types.Table{}, &types.MissingColumnsError{Source: source, Columns: missing}
	}

	years := typedColumn(df, ColumnYear, series.Int)
	months := typedColumn(df, ColumnMonth, series.Int)
	var stations series.Series
	if station == "" {
		stations = typedColumn(df, ColumnStation, series.String)
	}
	values := make(map[types.Pollutant]series.Series, len(types.Pollutants))
	for _, p := range types.Pollutants {
		values[p] = typedColumn(df, string(p), series.Float)
	}

	n := df.Nrow()
	out := make([]types.Reading, 0, n)
	for i := 0; i < n; i++ {
		// line numbers are 1-based and include the header
		line := i + 2
		year, err := intAt(years, i)
		if err != nil {
			return types.Table{}, fmt.Errorf("%s: line %d: year: %w", source, line, err)
		}
		month, err := intAt(months, i)
		if err != nil {
			return types.Table{}, fmt.Errorf("%s: line %d: month: %w", source, line, err)
		}
		if month < 1 || month > 12 {
			return types.Table{}, fmt.Errorf("%s: line %d: month %d out of range 1-12", source, line, month)
		}
		name := station
		if name == "" {
			name = strings.TrimSpace(stations.Elem(i).String())
			if name == "" || stations.Elem(i).IsNA() {
				return types.Table{}, fmt.Errorf("%s: line %d: empty station", source, line)
			}
		}

		rv := make(map[types.Pollutant]float64, len(types.Pollutants))
		for _, p := range types.Pollutants {
			e := values[p].Elem(i)
			if e.IsNA() {
				continue
			}
			rv[p] = e.Float()
		}
		out = append(out, types.Reading{Station: name, Year: year, Month: month, Values: rv})
	}
	return types.Table{Readings: out}, nil
}

// typedColumn converts a string column to t. Cells are trimmed first; a
// missing marker or a cell that does not parse becomes NaN.
func typedColumn(df dataframe.DataFrame, name string, t series.Type) series.Series {
	records := df.Col(name).Records()
	for i, v := range records {
		v = strings.TrimSpace(v)
		if slices.Contains(missingMarkers, v) {
			v = "NaN"
		}
		records[i] = v
	}
	return series.New(records, t, name)
}

func intAt(s series.Series, i int) (int, error) {
	e := s.Elem(i)
	if e.IsNA() {
		return 0, fmt.Errorf("missing or non-integer value")
	}
	return e.Int()
}

func missingColumns(have, required []string) []string {
	present := make(map[string]bool, len(have))
	for _, h := range have {
		present[h] = true
	}
	var missing []string
	for _, c := range required {
		if !present[c] {
			missing = append(missing, c)
		}
	}
	return missing
}
