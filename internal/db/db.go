package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"airq-dashboard/internal/config"

	_ "github.com/mattn/go-sqlite3"
)

// dsnParams are appended to every file-backed DSN. WAL and busy_timeout let
// the dashboard read while airq-tools imports.
var dsnParams = []string{
	"_foreign_keys=on",
	"_busy_timeout=5000",
	"_journal_mode=WAL",
}

// Open opens and pings the SQLite database described by cfg. Statements go
// through a logging connector when debug logging or slow statement
// reporting is on.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (*sql.DB, error) {
	dsn, err := buildDSN(cfg)
	if err != nil {
		return nil, err
	}

	var conn *sql.DB
	if cfg.SQLiteDriver == "sqlite3" && (cfg.LogLevel <= slog.LevelDebug || cfg.SQLiteSlowQuery > 0) {
		conn = sql.OpenDB(NewLoggingConnector(dsn, logger, cfg.SQLiteSlowQuery))
	} else {
		conn, err = sql.Open(cfg.SQLiteDriver, dsn)
		if err != nil {
			return nil, fmt.Errorf("db open: %w", err)
		}
	}

	if cfg.SQLiteMaxOpenConns > 0 {
		conn.SetMaxOpenConns(cfg.SQLiteMaxOpenConns)
	}
	if cfg.SQLiteMaxIdleConns >= 0 {
		conn.SetMaxIdleConns(cfg.SQLiteMaxIdleConns)
	}
	if cfg.SQLiteConnMaxLifetime > 0 {
		conn.SetConnMaxLifetime(cfg.SQLiteConnMaxLifetime)
	}

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("db ping %s: %w", cfg.SQLitePath, err)
	}
	return conn, nil
}

func Close(db *sql.DB) error {
	if db == nil {
		return nil
	}
	return db.Close()
}

func buildDSN(cfg config.Config) (string, error) {
	if cfg.SQLiteDSN != "" {
		return cfg.SQLiteDSN, nil
	}

	path := cfg.SQLitePath
	if dir := filepath.Dir(strings.TrimPrefix(path, "file:")); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	params := strings.Join(dsnParams, "&")
	if !strings.HasPrefix(path, "file:") {
		return "file:" + path + "?" + params, nil
	}
	if strings.Contains(path, "?") {
		return path + "&" + params, nil
	}
	return path + "?" + params, nil
}
