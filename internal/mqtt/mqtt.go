// Package mqtt adapts the MQTT bus for the hub, with abstraction for testing.
//
// Incoming messages are delivered in arrival order on a channel instead of
// through callbacks. Subscriptions are declared once and re-issued on every
// (re)connect, after which the registered connect hook runs.
package mqtt

import (
	"errors"
	"time"
)

// Message is one delivered (topic, payload) pair.
type Message struct {
	Topic   string
	Payload []byte
}

// Publisher sends messages to the broker. Publishes are fire-and-forget:
// a nil error means the message was handed to the client, not that the
// broker acknowledged it.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// Bus is the hub's view of the broker.
type Bus interface {
	Publisher
	ConnectionStatus

	// Messages returns the channel of delivered messages.
	Messages() <-chan Message

	// OnConnect registers fn to run after every successful (re)connect,
	// once subscriptions have been re-issued. Must be called before Connect.
	OnConnect(fn func(Publisher))

	// Close disconnects from the broker.
	Close() error
}

// Config is the bus connection configuration.
type Config struct {
	Broker   string
	ClientID string
	Username string
	Password string

	// Subscriptions are the topic filters issued on every connect.
	Subscriptions []string
	QoS           byte

	// Buffer is the capacity of the message channel. A full channel blocks
	// delivery, which applies backpressure to the broker.
	Buffer int

	ConnectTimeout time.Duration
	RetryInterval  time.Duration
}

// Defaults for Config zero values.
const (
	DefaultBuffer         = 64
	DefaultConnectTimeout = 10 * time.Second
	DefaultRetryInterval  = 5 * time.Second

	subscribeTimeout  = 5 * time.Second
	disconnectQuiesce = 1000 // milliseconds
	maxQoS            = 2
)

// Errors returned by bus operations. Use errors.Is to check for them.
var (
	ErrNotConnected     = errors.New("mqtt: client not connected")
	ErrConnectionFailed = errors.New("mqtt: connection failed")
	ErrInvalidTopic     = errors.New("mqtt: topic cannot be empty")
	ErrInvalidQoS       = errors.New("mqtt: invalid QoS level (must be 0, 1, or 2)")
)

func validatePublish(topic string, qos byte) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	return nil
}
