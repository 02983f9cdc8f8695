package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/domain"
)

const (
	mqttPublishTimeout = 10 * time.Second
	mqttConnectTimeout = 30 * time.Second
)

type MQTTConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
	Topic    string
}

// MQTT publishes events as JSON to a broker topic with QoS 0.
type MQTT struct {
	client mqtt.Client
	topic  string
	logger *slog.Logger
}

// DialMQTT connects to the broker. The client reconnects on its own after a
// lost connection.
func DialMQTT(cfg MQTTConfig, logger *slog.Logger) (*MQTT, error) {
	logger = logger.With("component", "mqtt", "broker", cfg.Broker)

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetOnConnectHandler(func(mqtt.Client) { logger.Info("mqtt connected") })
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("mqtt connection lost", "error", err)
	})

	client := mqtt.NewClient(opts)
	if err := connectMQTT(client, mqttConnectTimeout); err != nil {
		return nil, err
	}
	return NewMQTT(client, cfg.Topic, logger), nil
}

// connectMQTT waits for the first connection. On failure the client is
// disconnected so its retry loop stops.
func connectMQTT(client mqtt.Client, timeout time.Duration) error {
	token := client.Connect()
	if !token.WaitTimeout(timeout) {
		client.Disconnect(0)
		return errors.New("mqtt connection timeout")
	}
	if err := token.Error(); err != nil {
		client.Disconnect(0)
		return fmt.Errorf("mqtt connect: %w", err)
	}
	return nil
}

func NewMQTT(client mqtt.Client, topic string, logger *slog.Logger) *MQTT {
	return &MQTT{client: client, topic: topic, logger: logger}
}

func (m *MQTT) Publish(ctx context.Context, event domain.DetectionEvent) error {
	if !m.client.IsConnected() {
		return errors.New("mqtt: not connected")
	}
	payload, err := encode(event)
	if err != nil {
		return err
	}
	token := m.client.Publish(m.topic, 0, false, payload)

	timeout := mqttPublishTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = min(timeout, time.Until(deadline))
	}
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("mqtt: publish to %s timed out", m.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt: publish to %s: %w", m.topic, err)
	}
	m.logger.Debug("event published", "topic", m.topic, "id", event.ID)
	return nil
}

func (m *MQTT) Close() {
	m.client.Disconnect(250)
}
