package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"airq-dashboard/internal/app"
	"airq-dashboard/internal/config"
	"airq-dashboard/internal/logging"
)

const appName = "airq-dashboard"

// Default version is "dev" if not set with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	// The only argument is an optional data path overriding DATA_PATH.
	if len(os.Args) > 2 {
		fmt.Fprintf(os.Stderr, "usage: %s [data-path]\n", os.Args[0])
		os.Exit(2)
	}
	if len(os.Args) == 2 {
		if p := strings.TrimSpace(os.Args[1]); p != "" {
			cfg.DataPath = p
		}
	}

	logger := logging.New(cfg, version, appName)
	slog.SetDefault(logger)

	slog.Info("starting",
		"app", appName,
		"version", version,
		"env", cfg.AppEnv,
		"log_level", cfg.LogLevel.String(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run failed", "err", err)
		os.Exit(1)
	}

	slog.Info("shutting down")
}
