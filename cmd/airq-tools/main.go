package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"airq-dashboard/internal/config"
	"airq-dashboard/internal/db"
	"airq-dashboard/internal/db/migrate"
	"airq-dashboard/internal/logging"
	"airq-dashboard/internal/modules/airquality/loader"
	"airq-dashboard/internal/modules/airquality/repository"
	"airq-dashboard/internal/mqtt"
)

const usage = `usage: %s <command>
  migrate                         apply pending schema migrations to SQLITE_PATH
  import <path> [merged|per-station]
                                  load CSV data into SQLITE_PATH and, when
                                  MQTT_BROKER is set, tell running servers to reload
`

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg, "dev", "airq-tools")
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		if _, ok := err.(usageError); ok {
			fmt.Fprintf(os.Stderr, usage, os.Args[0])
		}
		os.Exit(1)
	}
}

type usageError string

func (e usageError) Error() string { return string(e) }

func run(ctx context.Context, cfg config.Config, logger *slog.Logger, args []string, out io.Writer) error {
	if len(args) < 1 {
		return usageError("missing command")
	}

	switch args[0] {
	case "migrate":
		if len(args) != 1 {
			return usageError("migrate takes no arguments")
		}
	case "import":
		if len(args) < 2 || len(args) > 3 {
			return usageError("import needs a path and an optional mode")
		}
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}

	conn, err := db.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(conn); closeErr != nil {
			logger.Error("db close", "err", closeErr)
		}
	}()

	applied, err := migrate.Run(ctx, conn)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if args[0] == "migrate" {
		fmt.Fprintf(out, "%d migrations applied\n", applied)
		return nil
	}

	mode := loader.ModeMerged
	if len(args) == 3 {
		if mode, err = loader.ParseMode(args[2]); err != nil {
			return err
		}
	}
	res, err := loader.Load(ctx, mode, args[1])
	if err != nil {
		return fmt.Errorf("load %s: %w", args[1], err)
	}
	for _, p := range res.Problems {
		fmt.Fprintf(out, "skipped %s: %s\n", p.Source, p.Message())
	}

	n, err := repository.NewRepository(conn).InsertReadings(ctx, args[1], res.Table.Readings)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}
	fmt.Fprintf(out, "imported %d readings from %d files\n", n, len(res.Files)-len(res.Problems))

	if cfg.MQTTBroker != "" {
		notifyReload(ctx, cfg, logger, out, n)
	}
	return nil
}

// notifyReload failures are reported but do not fail the import; the data
// is already committed.
func notifyReload(ctx context.Context, cfg config.Config, logger *slog.Logger, out io.Writer, imported int) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	note := mqtt.ReloadNotification{Source: "airq-tools", Reason: fmt.Sprintf("imported %d readings", imported)}
	if err := mqtt.NewPublisher(cfg, logger).Notify(ctx, note); err != nil {
		logger.Warn("reload notification failed", "broker", cfg.MQTTBroker, "error", err)
		fmt.Fprintf(out, "reload notification failed: %v\n", err)
		return
	}
	fmt.Fprintf(out, "notified %s\n", cfg.MQTTTopic)
}
