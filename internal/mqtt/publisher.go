package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"airq-dashboard/internal/config"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Publisher sends one-off reload notifications, e.g. after an import. It
// uses its own client ID so it never kicks a running server off the broker.
type Publisher struct {
	client mqtt.Client
	topic  string
	logger *slog.Logger
}

func NewPublisher(cfg config.Config, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	clientID := fmt.Sprintf("%s-notify-%d", cfg.MQTTClientID, os.Getpid())
	return &Publisher{
		client: mqtt.NewClient(baseOptions(cfg, clientID)),
		topic:  cfg.MQTTTopic,
		logger: logger.With("component", "mqtt"),
	}
}

// Notify connects, publishes n and disconnects.
func (p *Publisher) Notify(ctx context.Context, n ReloadNotification) error {
	if err := n.validate(); err != nil {
		return err
	}
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	if err := waitToken(ctx, p.client.Connect(), nil); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	defer p.client.Disconnect(250)

	if err := waitToken(ctx, p.client.Publish(p.topic, reloadQoS, false, payload), nil); err != nil {
		return fmt.Errorf("publish to %s: %w", p.topic, err)
	}
	p.logger.Info("reload notification sent", "topic", p.topic, "source", n.Source, "reason", n.Reason)
	return nil
}
