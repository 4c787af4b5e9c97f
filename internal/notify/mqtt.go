package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/raainshe/homepanel/internal/config"
	"github.com/raainshe/homepanel/internal/logging"
)

// Publisher is the part of a paho client used to publish alerts.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Message is the JSON payload published for each notification.
type Message struct {
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// MQTT publishes notifications to a topic with QoS 1.
type MQTT struct {
	client Publisher
	topic  string
	now    func() time.Time
}

// NewMQTT wraps an already connected publisher.
func NewMQTT(client Publisher, topic string) *MQTT {
	return &MQTT{client: client, topic: topic, now: time.Now}
}

// Notify implements Notifier.
func (m *MQTT) Notify(ctx context.Context, text string) error {
	payload, err := json.Marshal(Message{Text: text, At: m.now().UTC()})
	if err != nil {
		return err
	}

	token := m.client.Publish(m.topic, 1, false, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return fmt.Errorf("mqtt publish to %s: %w", m.topic, ctx.Err())
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish to %s: %w", m.topic, err)
	}
	return nil
}

// ConnectMQTT connects a paho client with auto-reconnect enabled.
func ConnectMQTT(cfg config.MQTTConfig, logger *logging.Logger) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)

	// Set keep alive and timeouts
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetConnectTimeout(10 * time.Second)

	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(1 * time.Minute)

	opts.SetOnConnectHandler(func(mqtt.Client) {
		logger.WithField("broker", cfg.Broker).Info("Connected to MQTT broker")
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.WithError(err).Warn("MQTT connection lost, will attempt to reconnect")
	})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker %s: %w", cfg.Broker, token.Error())
	}
	return client, nil
}
