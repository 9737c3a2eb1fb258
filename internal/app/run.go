package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"airq-dashboard/internal/config"
	"airq-dashboard/internal/db"
	"airq-dashboard/internal/db/migrate"
	"airq-dashboard/internal/httpapi"
	"airq-dashboard/internal/modules/airquality"
	"airq-dashboard/internal/modules/airquality/loader"
	"airq-dashboard/internal/modules/airquality/repository"
	"airq-dashboard/internal/modules/airquality/store"
	aqviews "airq-dashboard/internal/modules/airquality/views"
	"airq-dashboard/internal/mqtt"
)

func Run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"dataSource", cfg.DataSource,
		"dataMode", cfg.DataMode,
		"dataPath", cfg.DataPath,
		"sqliteDriver", cfg.SQLiteDriver,
		"sqlitePath", cfg.SQLitePath,
		"mqttBroker", cfg.MQTTBroker,
		"mqttPort", cfg.MQTTPort,
		"mqttTopic", cfg.MQTTTopic,
	)

	source, closeSource, err := newSource(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSource()

	st := store.New(source, logger)
	// A failed initial load is not fatal: the dashboard reports it and a
	// later reload can recover.
	if _, err := st.Reload(ctx); err != nil {
		logger.Error("initial data load failed", "error", err)
	}

	if err := aqviews.LoadTemplates(); err != nil {
		return err
	}

	// Interfaces stay nil when MQTT is disabled so no nil *Subscriber leaks
	// into them.
	var (
		subscriber *mqtt.Subscriber
		handlerSub mqtt.MQTTSubscriber
		connStatus httpapi.ConnectionStatus
	)
	if cfg.MQTTBroker != "" {
		subscriber = mqtt.NewSubscriber(cfg, logger)
		handlerSub, connStatus = subscriber, subscriber
	}

	mux := httpapi.NewMux(st, connStatus)
	// Register the handler before Connect; the subscription is made on connect.
	airquality.RegisterFeature(mux, st, handlerSub, logger)

	if subscriber != nil {
		// Short timeout so startup does not block when the broker is down.
		connectCtx, connectCancel := context.WithTimeout(ctx, 5*time.Second)
		err = subscriber.Connect(connectCtx)
		connectCancel()
		if err != nil {
			logger.Warn("mqtt connection failed (continuing without mqtt)", "error", err)
		}
	}

	srv := httpapi.NewServer(cfg, mux, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if subscriber != nil {
		logger.Info("mqtt disconnecting")
		subscriber.Disconnect()
	}

	logger.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err = <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}

// newSource builds the configured data source. The returned func releases
// its resources.
func newSource(ctx context.Context, cfg config.Config, logger *slog.Logger) (store.Source, func(), error) {
	switch cfg.DataSource {
	case config.DataSourceSQLite:
		conn, err := db.Open(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		closeDB := func() {
			if closeErr := db.Close(conn); closeErr != nil {
				logger.Error("db close", "error", closeErr)
			}
		}
		applied, err := migrate.Run(ctx, conn)
		if err != nil {
			closeDB()
			return nil, nil, err
		}
		logger.Info("database ready", "path", cfg.SQLitePath, "migrationsApplied", applied)
		return store.SQLiteSource{Repository: repository.NewRepository(conn), Path: cfg.SQLitePath}, closeDB, nil

	case config.DataSourceCSV, "":
		mode, err := loader.ParseMode(cfg.DataMode)
		if err != nil {
			return nil, nil, err
		}
		return store.CSVSource{Mode: mode, Path: cfg.DataPath}, func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unsupported data source %q", cfg.DataSource)
	}
}
