// Package store keeps the currently loaded table. Readers get an immutable
// snapshot; Reload builds a new snapshot off-lock and swaps it in, so a view
// is never computed against a half-loaded table.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"airq-dashboard/internal/modules/airquality/loader"
	"airq-dashboard/internal/modules/airquality/repository"
	"airq-dashboard/internal/modules/airquality/types"
)

// Source produces a fresh table on every call.
type Source interface {
	Describe() string
	Load(ctx context.Context) (loader.Result, error)
}

// Snapshot is one loaded generation of the table. It must not be modified.
type Snapshot struct {
	Table    types.Table
	Problems []types.LoadProblem
	Source   string
	LoadedAt time.Time
	// Err is set when the load failed outright (e.g. no data found).
	Err        error
	Generation int
}

type Store struct {
	source Source
	logger *slog.Logger
	now    func() time.Time

	mu       sync.RWMutex
	current  *Snapshot
	reloadMu sync.Mutex
}

func New(source Source, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{source: source, logger: logger, now: time.Now}
}

// Snapshot returns the current snapshot or nil before the first Reload.
func (s *Store) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Reload loads the source and publishes the result. A load that fails with
// ErrNoDataFound is published as an empty snapshot carrying the error, since
// the dashboard must report it. Any other failure keeps the previous snapshot.
func (s *Store) Reload(ctx context.Context) (*Snapshot, error) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	start := s.now()
	res, err := s.source.Load(ctx)
	if err != nil && !errors.Is(err, types.ErrNoDataFound) {
		s.logger.Error("reload failed, keeping previous data", "source", s.source.Describe(), "error", err)
		return s.Snapshot(), fmt.Errorf("reload %s: %w", s.source.Describe(), err)
	}

	next := &Snapshot{
		Table:    res.Table,
		Problems: res.Problems,
		Source:   s.source.Describe(),
		LoadedAt: s.now(),
		Err:      err,
	}

	s.mu.Lock()
	if s.current != nil {
		next.Generation = s.current.Generation + 1
	}
	s.current = next
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("no data found", "source", next.Source, "error", err)
	}
	for _, p := range next.Problems {
		s.logger.Warn("data source problem", "source", p.Source, "error", p.Err)
	}
	s.logger.Info("data loaded",
		"source", next.Source,
		"rows", next.Table.Len(),
		"problems", len(next.Problems),
		"generation", next.Generation,
		"duration_ms", s.now().Sub(start).Milliseconds(),
	)
	return next, nil
}

// CSVSource reads CSV files through the loader package.
type CSVSource struct {
	Mode loader.Mode
	Path string
}

func (c CSVSource) Describe() string {
	return fmt.Sprintf("csv:%s:%s", c.Mode, c.Path)
}

func (c CSVSource) Load(ctx context.Context) (loader.Result, error) {
	return loader.Load(ctx, c.Mode, c.Path)
}

// SQLiteSource reads the readings table of an SQLite database.
type SQLiteSource struct {
	Repository repository.AirQualityRepository
	Path       string
}

func (s SQLiteSource) Describe() string {
	return "sqlite:" + s.Path
}

func (s SQLiteSource) Load(ctx context.Context) (loader.Result, error) {
	table, err := s.Repository.LoadTable(ctx)
	if err != nil {
		return loader.Result{}, err
	}
	if table.Empty() {
		return loader.Result{}, fmt.Errorf("%w: readings table is empty", types.ErrNoDataFound)
	}
	return loader.Result{Table: table, Files: []string{s.Path}}, nil
}
