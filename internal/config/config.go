package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DataSourceCSV    = "csv"
	DataSourceSQLite = "sqlite"

	DataModeMerged     = "merged"
	DataModePerStation = "per-station"
)

type Config struct {
	AppEnv   string
	LogLevel slog.Level
	HTTPAddr string

	// DataSource selects where the table is read from: csv or sqlite.
	DataSource string
	// DataMode is merged (DataPath is one file with a station column) or
	// per-station (DataPath is a directory of <station>.csv files).
	DataMode string
	DataPath string

	SQLiteDriver          string
	SQLiteDSN             string
	SQLitePath            string
	SQLiteMaxOpenConns    int
	SQLiteMaxIdleConns    int
	SQLiteConnMaxLifetime time.Duration
	// SQLiteSlowQuery logs statements at or above it as warnings; 0 disables.
	SQLiteSlowQuery time.Duration

	// MQTTBroker empty disables reload notifications.
	MQTTBroker   string
	MQTTPort     int
	MQTTTopic    string
	MQTTClientID string
}

func LoadFromEnv() (Config, error) {
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	logLevelStr := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if logLevelStr == "" {
		logLevelStr = "info"
	}
	level, err := parseLogLevel(logLevelStr)
	if err != nil {
		return Config{}, err
	}

	httpAddr := strings.TrimSpace(os.Getenv("HTTP_ADDR"))
	if httpAddr == "" {
		httpAddr = ":8080"
	}

	dataSource := strings.ToLower(strings.TrimSpace(os.Getenv("DATA_SOURCE")))
	if dataSource == "" {
		dataSource = DataSourceCSV
	}
	switch dataSource {
	case DataSourceCSV, DataSourceSQLite:
	default:
		return Config{}, fmt.Errorf("invalid DATA_SOURCE %q (allowed: csv, sqlite)", dataSource)
	}

	dataMode := strings.ToLower(strings.TrimSpace(os.Getenv("DATA_MODE")))
	if dataMode == "" {
		dataMode = DataModeMerged
	}
	switch dataMode {
	case DataModeMerged, DataModePerStation:
	default:
		return Config{}, fmt.Errorf("invalid DATA_MODE %q (allowed: merged, per-station)", dataMode)
	}

	dataPath := strings.TrimSpace(os.Getenv("DATA_PATH"))
	if dataPath == "" {
		if dataMode == DataModePerStation {
			dataPath = "data"
		} else {
			dataPath = "merged_air_quality.csv"
		}
	}

	driver := strings.TrimSpace(os.Getenv("DB_DRIVER"))
	if driver == "" {
		driver = "sqlite3"
	}
	dsn := strings.TrimSpace(os.Getenv("DB_DSN"))
	path := strings.TrimSpace(os.Getenv("SQLITE_PATH"))
	if path == "" {
		path = "data/airquality.db"
	}

	maxOpenConns, err := intFromEnv("DB_MAX_OPEN_CONNS", 1)
	if err != nil {
		return Config{}, err
	}
	maxIdleConns, err := intFromEnv("DB_MAX_IDLE_CONNS", 1)
	if err != nil {
		return Config{}, err
	}

	connMaxLifetime, err := durationFromEnv("DB_CONN_MAX_LIFETIME", 0)
	if err != nil {
		return Config{}, err
	}
	slowQuery, err := durationFromEnv("DB_SLOW_QUERY", 250*time.Millisecond)
	if err != nil {
		return Config{}, err
	}

	mqttPort, err := intFromEnv("MQTT_PORT", 1883)
	if err != nil {
		return Config{}, err
	}
	if mqttPort <= 0 || mqttPort > 65535 {
		return Config{}, fmt.Errorf("invalid MQTT_PORT %d (must be 1-65535)", mqttPort)
	}
	mqttTopic := strings.TrimSpace(os.Getenv("MQTT_TOPIC"))
	if mqttTopic == "" {
		mqttTopic = "airq/reload"
	}
	mqttClientID := strings.TrimSpace(os.Getenv("MQTT_CLIENT_ID"))
	if mqttClientID == "" {
		mqttClientID = "airq-dashboard"
	}

	return Config{
		AppEnv:                appEnv,
		LogLevel:              level,
		HTTPAddr:              httpAddr,
		DataSource:            dataSource,
		DataMode:              dataMode,
		DataPath:              dataPath,
		SQLiteDriver:          driver,
		SQLiteDSN:             dsn,
		SQLitePath:            path,
		SQLiteMaxOpenConns:    maxOpenConns,
		SQLiteMaxIdleConns:    maxIdleConns,
		SQLiteConnMaxLifetime: connMaxLifetime,
		SQLiteSlowQuery:       slowQuery,
		MQTTBroker:            strings.TrimSpace(os.Getenv("MQTT_BROKER")),
		MQTTPort:              mqttPort,
		MQTTTopic:             mqttTopic,
		MQTTClientID:          mqttClientID,
	}, nil
}

func intFromEnv(key string, def int) (int, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return n, nil
}

func durationFromEnv(key string, def time.Duration) (time.Duration, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s %q (must not be negative)", key, s)
	}
	return d, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
