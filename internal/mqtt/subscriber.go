package mqtt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"airq-dashboard/internal/config"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTSubscriber interface for attaching message handlers
type MQTTSubscriber interface {
	SetMessageHandler(handler func(n ReloadNotification) error)
}

type Subscriber struct {
	client    mqtt.Client
	cfg       config.Config
	logger    *slog.Logger
	mu        sync.RWMutex
	connected bool

	stopCh   chan struct{}
	stopOnce sync.Once

	handlerMu sync.RWMutex
	handler   func(n ReloadNotification) error
}

// SetMessageHandler sets the handler for reload notifications
func (s *Subscriber) SetMessageHandler(handler func(n ReloadNotification) error) {
	s.handlerMu.Lock()
	s.handler = handler
	s.handlerMu.Unlock()
}

func NewSubscriber(cfg config.Config, logger *slog.Logger) *Subscriber {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Subscriber{
		cfg:    cfg,
		logger: logger.With("component", "mqtt"),
		stopCh: make(chan struct{}),
	}

	opts := baseOptions(cfg, cfg.MQTTClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)

	// Clean sessions drop subscriptions, so subscribe on every (re)connect.
	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		s.setConnected(true)
		s.logger.Info("mqtt connected", "broker", cfg.MQTTBroker, "port", cfg.MQTTPort)
		if err := s.subscribe(); err != nil {
			s.logger.Error("mqtt subscribe failed", "topic", cfg.MQTTTopic, "error", err)
		}
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		s.setConnected(false)
		s.logger.Warn("mqtt connection lost", "error", err)
	})

	s.client = mqtt.NewClient(opts)
	return s
}

// Connect waits for the first connection to the broker. The subscription is
// made by the connect handler.
func (s *Subscriber) Connect(ctx context.Context) error {
	select {
	case <-s.stopCh:
		return errStopped
	default:
	}
	if s.IsConnected() {
		return nil
	}

	if err := waitToken(ctx, s.client.Connect(), s.stopCh); err != nil {
		s.client.Disconnect(0)
		if errors.Is(err, errStopped) {
			return err
		}
		return fmt.Errorf("mqtt connect: %w", err)
	}
	return nil
}

func (s *Subscriber) subscribe() error {
	topic := s.cfg.MQTTTopic
	token := s.client.Subscribe(topic, reloadQoS, func(_ mqtt.Client, msg mqtt.Message) {
		s.handleMessage(msg.Topic(), msg.Payload())
	})
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("subscribe timeout for topic %s", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe to %s: %w", topic, err)
	}

	s.logger.Info("subscribed to mqtt topic", "topic", topic, "qos", reloadQoS)
	return nil
}

func (s *Subscriber) handleMessage(topic string, payload []byte) {
	s.logger.Debug("received mqtt message", "topic", topic, "size", len(payload))

	n, err := parseNotification(payload)
	if err != nil {
		s.logger.Warn("invalid reload notification", "topic", topic, "error", err, "payload", string(payload))
		return
	}

	s.handlerMu.RLock()
	handler := s.handler
	s.handlerMu.RUnlock()
	if handler == nil {
		s.logger.Debug("no reload handler registered", "topic", topic)
		return
	}
	if err := handler(n); err != nil {
		s.logger.Error("reload handler failed", "topic", topic, "source", n.Source, "error", err)
		return
	}
	s.logger.Debug("processed reload notification", "source", n.Source, "reason", n.Reason)
}

func (s *Subscriber) IsConnected() bool {
	s.mu.RLock()
	connected := s.connected
	s.mu.RUnlock()
	return connected && s.client.IsConnected()
}

// Disconnect stops the subscriber and closes the connection. Safe to call
// more than once.
func (s *Subscriber) Disconnect() {
	s.stopOnce.Do(func() { close(s.stopCh) })

	if s.IsConnected() {
		s.client.Unsubscribe(s.cfg.MQTTTopic).WaitTimeout(2 * time.Second)
	}
	s.client.Disconnect(250)
	s.setConnected(false)
	s.logger.Info("mqtt subscriber disconnected")
}

func (s *Subscriber) setConnected(v bool) {
	s.mu.Lock()
	s.connected = v
	s.mu.Unlock()
}
