// Package mqtt carries reload notifications between the dashboard server
// and whatever updates its data source.
package mqtt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"airq-dashboard/internal/config"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	maxFieldLen = 256
	// QoS 1: a reload may be delivered twice, which is harmless.
	reloadQoS = byte(1)
)

var errStopped = errors.New("mqtt: stopped")

// ReloadNotification asks the server to reload its data source. Both fields
// are informational; an empty payload is a valid notification.
type ReloadNotification struct {
	Source string `json:"source,omitempty"`
	Reason string `json:"reason,omitempty"`
}

func (n ReloadNotification) validate() error {
	if len(n.Source) > maxFieldLen {
		return fmt.Errorf("source too long: %d bytes (max %d)", len(n.Source), maxFieldLen)
	}
	if len(n.Reason) > maxFieldLen {
		return fmt.Errorf("reason too long: %d bytes (max %d)", len(n.Reason), maxFieldLen)
	}
	return nil
}

func parseNotification(payload []byte) (ReloadNotification, error) {
	var n ReloadNotification
	if len(bytes.TrimSpace(payload)) == 0 {
		return n, nil
	}
	if err := json.Unmarshal(payload, &n); err != nil {
		return ReloadNotification{}, fmt.Errorf("parse payload: %w", err)
	}
	if err := n.validate(); err != nil {
		return ReloadNotification{}, err
	}
	return n, nil
}

func baseOptions(cfg config.Config, clientID string) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.MQTTBroker, cfg.MQTTPort))
	opts.SetClientID(clientID)
	opts.SetCleanSession(true)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	return opts
}

// waitToken blocks until token completes, ctx ends or stop is closed. A nil
// stop channel never fires.
func waitToken(ctx context.Context, token mqtt.Token, stop <-chan struct{}) error {
	const poll = 200 * time.Millisecond
	for !token.WaitTimeout(poll) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return errStopped
		default:
		}
	}
	return token.Error()
}
