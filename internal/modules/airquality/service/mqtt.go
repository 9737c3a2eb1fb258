package service

import (
	"context"
	"log/slog"
	"time"

	"airq-dashboard/internal/mqtt"
)

const reloadTimeout = 2 * time.Minute

// registerMQTTHandler reloads the store on every reload notification.
func registerMQTTHandler(subscriber mqtt.MQTTSubscriber, reloader Reloader, logger *slog.Logger) {
	subscriber.SetMessageHandler(func(n mqtt.ReloadNotification) error {
		logger.Info("reload requested",
			"source", n.Source,
			"reason", n.Reason,
		)

		ctx, cancel := context.WithTimeout(context.Background(), reloadTimeout)
		defer cancel()

		snap, err := reloader.Reload(ctx)
		if err != nil {
			logger.Error("failed to reload data", "source", n.Source, "error", err)
			return err
		}

		logger.Debug("reload finished", "generation", snap.Generation, "rows", snap.Table.Len())
		return nil
	})
}
