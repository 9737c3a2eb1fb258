package config

import (
	"log/slog"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV", "LOG_LEVEL", "HTTP_ADDR",
		"DATA_SOURCE", "DATA_MODE", "DATA_PATH",
		"DB_DRIVER", "DB_DSN", "SQLITE_PATH",
		"DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS", "DB_CONN_MAX_LIFETIME", "DB_SLOW_QUERY",
		"MQTT_BROKER", "MQTT_PORT", "MQTT_TOPIC", "MQTT_CLIENT_ID",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	got, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v, want nil", err)
	}

	want := Config{
		AppEnv:             "dev",
		LogLevel:           slog.LevelInfo,
		HTTPAddr:           ":8080",
		DataSource:         DataSourceCSV,
		DataMode:           DataModeMerged,
		DataPath:           "merged_air_quality.csv",
		SQLiteDriver:       "sqlite3",
		SQLitePath:         "data/airquality.db",
		SQLiteMaxOpenConns: 1,
		SQLiteMaxIdleConns: 1,
		SQLiteSlowQuery:    250 * time.Millisecond,
		MQTTPort:           1883,
		MQTTTopic:          "airq/reload",
		MQTTClientID:       "airq-dashboard",
	}
	if got != want {
		t.Errorf("LoadFromEnv() =\n%+v\nwant\n%+v", got, want)
	}
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	tests := []struct {
		name  string
		env   map[string]string
		check func(t *testing.T, c Config)
	}{
		{
			name: "per-station mode defaults to data dir",
			env:  map[string]string{"DATA_MODE": " Per-Station "},
			check: func(t *testing.T, c Config) {
				if c.DataMode != DataModePerStation || c.DataPath != "data" {
					t.Errorf("DataMode/DataPath = %q/%q, want per-station/data", c.DataMode, c.DataPath)
				}
			},
		},
		{
			name: "sqlite source with explicit path",
			env:  map[string]string{"DATA_SOURCE": "SQLite", "SQLITE_PATH": "/tmp/aq.db"},
			check: func(t *testing.T, c Config) {
				if c.DataSource != DataSourceSQLite || c.SQLitePath != "/tmp/aq.db" {
					t.Errorf("DataSource/SQLitePath = %q/%q", c.DataSource, c.SQLitePath)
				}
			},
		},
		{
			name: "prod with whitespace and debug level",
			env:  map[string]string{"APP_ENV": "\nprod\t", "LOG_LEVEL": "DeBuG"},
			check: func(t *testing.T, c Config) {
				if c.AppEnv != "prod" || c.LogLevel != slog.LevelDebug {
					t.Errorf("AppEnv/LogLevel = %q/%v, want prod/DEBUG", c.AppEnv, c.LogLevel)
				}
			},
		},
		{
			name: "http addr trimmed",
			env:  map[string]string{"HTTP_ADDR": "  127.0.0.1:9090  "},
			check: func(t *testing.T, c Config) {
				if c.HTTPAddr != "127.0.0.1:9090" {
					t.Errorf("HTTPAddr = %q, want 127.0.0.1:9090", c.HTTPAddr)
				}
			},
		},
		{
			name: "slow query logging disabled",
			env:  map[string]string{"DB_SLOW_QUERY": "0s", "DB_CONN_MAX_LIFETIME": "5m"},
			check: func(t *testing.T, c Config) {
				if c.SQLiteSlowQuery != 0 || c.SQLiteConnMaxLifetime != 5*time.Minute {
					t.Errorf("SlowQuery/ConnMaxLifetime = %v/%v, want 0s/5m", c.SQLiteSlowQuery, c.SQLiteConnMaxLifetime)
				}
			},
		},
		{
			name: "mqtt broker enables reload notifications",
			env:  map[string]string{"MQTT_BROKER": "broker.local", "MQTT_TOPIC": "aq/reload"},
			check: func(t *testing.T, c Config) {
				if c.MQTTBroker != "broker.local" || c.MQTTTopic != "aq/reload" {
					t.Errorf("MQTTBroker/MQTTTopic = %q/%q", c.MQTTBroker, c.MQTTTopic)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			got, err := LoadFromEnv()
			if err != nil {
				t.Fatalf("LoadFromEnv() error = %v, want nil", err)
			}
			tt.check(t, got)
		})
	}
}

func TestLoadFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{name: "app env", key: "APP_ENV", value: "staging"},
		{name: "app env is case sensitive", key: "APP_ENV", value: "DEV"},
		{name: "log level", key: "LOG_LEVEL", value: "loud"},
		{name: "data source", key: "DATA_SOURCE", value: "postgres"},
		{name: "data mode", key: "DATA_MODE", value: "split"},
		{name: "max open conns", key: "DB_MAX_OPEN_CONNS", value: "many"},
		{name: "conn lifetime", key: "DB_CONN_MAX_LIFETIME", value: "forever"},
		{name: "negative slow query", key: "DB_SLOW_QUERY", value: "-1s"},
		{name: "mqtt port not a number", key: "MQTT_PORT", value: "abc"},
		{name: "mqtt port out of range", key: "MQTT_PORT", value: "70000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			if _, err := LoadFromEnv(); err == nil {
				t.Fatalf("LoadFromEnv() with %s=%q error = nil, want non-nil", tt.key, tt.value)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "info", want: slog.LevelInfo},
		{in: "warning", want: slog.LevelWarn},
		{in: "  warn \n", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "", want: slog.LevelInfo, wantErr: true},
		{in: "warns", want: slog.LevelInfo, wantErr: true},
		{in: "1", want: slog.LevelInfo, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseLogLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseLogLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
