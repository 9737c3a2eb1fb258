package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"

	"airq-dashboard/internal/modules/airquality/types"
)

//go:embed sql/get-readings.sql
var getReadingsSQL string

//go:embed sql/get-readings-count.sql
var getReadingsCountSQL string

//go:embed sql/upsert-station.sql
var upsertStationSQL string

//go:embed sql/insert-reading.sql
var insertReadingSQL string

//go:embed sql/insert-import.sql
var insertImportSQL string

// AirQualityRepository reads and writes the SQLite form of the table.
type AirQualityRepository interface {
	LoadTable(ctx context.Context) (types.Table, error)
	CountReadings(ctx context.Context) (int, error)
	InsertReadings(ctx context.Context, source string, readings []types.Reading) (int, error)
}

type repositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) AirQualityRepository {
	return &repositoryImpl{db: db}
}

// LoadTable returns every reading in insertion order. NULL pollutant columns
// become missing values.
func (r *repositoryImpl) LoadTable(ctx context.Context) (types.Table, error) {
	rows, err := r.db.QueryContext(ctx, getReadingsSQL)
	if err != nil {
		return types.Table{}, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close readings rows", "error", err)
		}
	}()

	var out []types.Reading
	for rows.Next() {
		var (
			rec                  types.Reading
			pm25, pm10, no2, so2 sql.NullFloat64
		)
		if err := rows.Scan(&rec.Station, &rec.Year, &rec.Month, &pm25, &pm10, &no2, &so2); err != nil {
			return types.Table{}, err
		}
		rec.Values = make(map[types.Pollutant]float64, len(types.Pollutants))
		for p, v := range map[types.Pollutant]sql.NullFloat64{types.PM25: pm25, types.PM10: pm10, types.NO2: no2, types.SO2: so2} {
			if v.Valid {
				rec.Values[p] = v.Float64
			}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return types.Table{}, err
	}
	return types.Table{Readings: out}, nil
}

func (r *repositoryImpl) CountReadings(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, getReadingsCountSQL).Scan(&n)
	return n, err
}

// InsertReadings stores readings in one transaction, creating stations on
// first use, and records the import under source.
func (r *repositoryImpl) InsertReadings(ctx context.Context, source string, readings []types.Reading) (n int, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				slog.Error("rollback import", "source", source, "error", rbErr)
			}
		}
	}()

	stmt, err := tx.PrepareContext(ctx, insertReadingSQL)
	if err != nil {
		return 0, fmt.Errorf("prepare insert reading: %w", err)
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			slog.Error("close insert statement", "error", err)
		}
	}()

	stationIDs := make(map[string]int64)
	for i, rec := range readings {
		if rec.Month < 1 || rec.Month > 12 {
			return 0, fmt.Errorf("reading %d: month %d out of range 1-12", i, rec.Month)
		}
		id, ok := stationIDs[rec.Station]
		if !ok {
			if err = tx.QueryRowContext(ctx, upsertStationSQL, rec.Station).Scan(&id); err != nil {
				return 0, fmt.Errorf("upsert station %q: %w", rec.Station, err)
			}
			stationIDs[rec.Station] = id
		}
		if _, err = stmt.ExecContext(ctx, id, rec.Year, rec.Month,
			nullable(rec, types.PM25),
			nullable(rec, types.PM10),
			nullable(rec, types.NO2),
			nullable(rec, types.SO2),
		); err != nil {
			return 0, fmt.Errorf("insert reading %d: %w", i, err)
		}
	}

	if _, err = tx.ExecContext(ctx, insertImportSQL, source, len(readings)); err != nil {
		return 0, fmt.Errorf("record import: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(readings), nil
}

func nullable(rec types.Reading, p types.Pollutant) any {
	if v, ok := rec.Value(p); ok {
		return v
	}
	return nil
}
