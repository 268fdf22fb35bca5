// Package mqtt pushes notification events to the broker. This is the only
// push channel in the system and it is strictly best effort.
package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/greenroute/dispatch/core/logger"
	"github.com/greenroute/dispatch/core/notify"
)

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Broker      string `json:"broker"`
	ClientID    string `json:"client_id"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	TopicPrefix string `json:"topic_prefix"`
	QoS         byte   `json:"qos"`
	ConnectSecs int    `json:"connect_timeout_seconds"`
}

// SetDefaults applies the topic prefix and timeout defaults.
func (c *Config) SetDefaults() {
	if c.TopicPrefix == "" {
		c.TopicPrefix = "greenroute"
	}
	if c.ClientID == "" {
		c.ClientID = "greenroute-dispatch"
	}
	if c.ConnectSecs == 0 {
		c.ConnectSecs = 5
	}
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// NotificationPublisher implements notify.Publisher over MQTT.
type NotificationPublisher struct {
	cli    pahoClient
	prefix string
	qos    byte
	log    logger.Logger
}

// NewNotificationPublisher connects to the broker.
func NewNotificationPublisher(cfg Config, log logger.Logger) (*NotificationPublisher, error) {
	cfg.SetDefaults()
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	opts.ConnectTimeout = time.Duration(cfg.ConnectSecs) * time.Second
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.OnConnect = func(paho.Client) { log.Infof("MQTT connected") }
	opts.OnConnectionLost = func(_ paho.Client, err error) { log.Errorf("connection lost: %v", err) }
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return &NotificationPublisher{cli: c, prefix: cfg.TopicPrefix, qos: cfg.QoS, log: log}, nil
}

// Publish sends the event to users/<id>/notifications/<category> under the
// configured prefix. Errors are returned but callers only log them.
func (p *NotificationPublisher) Publish(ev notify.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	topic := fmt.Sprintf("%s/users/%s/notifications/%s", p.prefix, ev.UserID, ev.Category)
	token := p.cli.Publish(topic, p.qos, false, payload)
	if token.Wait() && token.Error() != nil {
		return token.Error()
	}
	return nil
}

// Close disconnects from the broker.
func (p *NotificationPublisher) Close() {
	p.cli.Disconnect(250)
}
