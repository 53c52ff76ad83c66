// Package mqtt publishes device state snapshots to an MQTT broker.
package mqtt

import (
	"crypto/tls"
	"fmt"
	"os"
	"strings"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/joshp123/findmy/internal/config"
)

const (
	defaultConnectTimeout    = 10 * time.Second
	defaultPublishTimeout    = 5 * time.Second
	defaultDisconnectQuiesce = 1000 // milliseconds
	maxPayloadSize           = 1 << 20
)

type tokenPublisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token
}

// Publisher sends retained device state messages.
type Publisher struct {
	client pahomqtt.Client
	pub    tokenPublisher
	qos    byte
	prefix string
	id     string
}

// Connect dials the broker and announces the publisher as online.
func Connect(cfg config.MQTTConfig) (*Publisher, error) {
	opts, err := buildClientOptions(cfg)
	if err != nil {
		return nil, err
	}

	client := pahomqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(defaultConnectTimeout) {
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, defaultConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	p := newPublisher(client, cfg)
	p.client = client
	if err := p.Publish(StatusTopic(p.prefix), []byte(statusPayload(p.id, "online")), true); err != nil {
		client.Disconnect(defaultDisconnectQuiesce)
		return nil, err
	}
	return p, nil
}

func newPublisher(pub tokenPublisher, cfg config.MQTTConfig) *Publisher {
	return &Publisher{
		pub:    pub,
		qos:    byte(cfg.QoS),
		prefix: cfg.TopicPrefix,
		id:     cfg.Broker.ClientID,
	}
}

// Publish sends payload to topic and waits for the broker acknowledgment.
func (p *Publisher) Publish(topic string, payload []byte, retained bool) error {
	if !validTopic(topic) {
		return fmt.Errorf("%w: %q", ErrInvalidTopic, topic)
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}

	token := p.pub.Publish(topic, p.qos, retained, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return nil
}

// PublishDeviceState publishes a retained state snapshot for one device.
func (p *Publisher) PublishDeviceState(deviceID string, payload []byte) error {
	return p.Publish(DeviceStateTopic(p.prefix, deviceID), payload, true)
}

// Close announces a graceful offline status and disconnects.
func (p *Publisher) Close() {
	if p.client == nil {
		return
	}
	if p.client.IsConnected() {
		_ = p.Publish(StatusTopic(p.prefix), []byte(statusPayload(p.id, "offline")), true)
	}
	p.client.Disconnect(defaultDisconnectQuiesce)
}

func buildClientOptions(cfg config.MQTTConfig) (*pahomqtt.ClientOptions, error) {
	opts := pahomqtt.NewClientOptions()

	scheme := "tcp"
	if cfg.Broker.TLS {
		scheme = "ssl"
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}
	opts.AddBroker(fmt.Sprintf("%s://%s:%d", scheme, cfg.Broker.Host, cfg.Broker.Port))
	opts.SetClientID(cfg.Broker.ClientID)

	if cfg.Auth.Username != "" {
		data, err := os.ReadFile(cfg.Auth.PasswordFile)
		if err != nil {
			return nil, fmt.Errorf("read mqtt password file: %w", err)
		}
		opts.SetUsername(cfg.Auth.Username)
		opts.SetPassword(strings.TrimSpace(string(data)))
	}

	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(defaultConnectTimeout)
	opts.SetWill(StatusTopic(cfg.TopicPrefix), statusPayload(cfg.Broker.ClientID, "offline"), 1, true)
	return opts, nil
}

func statusPayload(clientID, status string) string {
	return fmt.Sprintf(
		`{"status":%q,"client_id":%q,"timestamp":%q}`,
		status,
		clientID,
		time.Now().UTC().Format(time.RFC3339),
	)
}
