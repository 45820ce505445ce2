package mqtt

import (
	"context"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

// RealBus connects to an actual MQTT broker through paho.
type RealBus struct {
	client paho.Client
	cfg    Config
	msgs   chan Message
	done   chan struct{}

	hookMu    sync.RWMutex
	onConnect func(Publisher)

	closeOnce sync.Once
}

// NewRealBus creates an unconnected bus. Call OnConnect, then Connect.
func NewRealBus(cfg Config) *RealBus {
	return newRealBus(cfg, paho.NewClient)
}

func newRealBus(cfg Config, newClient func(*paho.ClientOptions) paho.Client) *RealBus {
	if cfg.Buffer <= 0 {
		cfg.Buffer = DefaultBuffer
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = DefaultRetryInterval
	}

	b := &RealBus{
		cfg:  cfg,
		msgs: make(chan Message, cfg.Buffer),
		done: make(chan struct{}),
	}

	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetCleanSession(true).
		SetOrderMatters(true).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(cfg.RetryInterval).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetOnConnectHandler(func(_ paho.Client) { b.handleConnect() }).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Warn().Err(err).Str("broker", cfg.Broker).Msg("mqtt connection lost")
		}).
		SetReconnectingHandler(func(_ paho.Client, _ *paho.ClientOptions) {
			log.Info().Str("broker", cfg.Broker).Msg("mqtt reconnecting")
		})

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	b.client = newClient(opts)
	return b
}

// OnConnect registers the connect hook.
func (b *RealBus) OnConnect(fn func(Publisher)) {
	b.hookMu.Lock()
	b.onConnect = fn
	b.hookMu.Unlock()
}

// Connect starts the connection. If the broker is unreachable within the
// connect timeout the client keeps retrying in the background and Connect
// returns nil; the connect hook runs once it succeeds.
func (b *RealBus) Connect(ctx context.Context) error {
	token := b.client.Connect()
	select {
	case <-token.Done():
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrConnectionFailed, ctx.Err())
	case <-time.After(b.cfg.ConnectTimeout):
		log.Warn().
			Str("broker", b.cfg.Broker).
			Dur("timeout", b.cfg.ConnectTimeout).
			Msg("mqtt broker not reachable yet, retrying in background")
		return nil
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	return nil
}

// handleConnect runs in its own goroutine on every (re)connect.
func (b *RealBus) handleConnect() {
	log.Info().Str("broker", b.cfg.Broker).Msg("mqtt connected")

	if len(b.cfg.Subscriptions) > 0 {
		filters := make(map[string]byte, len(b.cfg.Subscriptions))
		for _, topic := range b.cfg.Subscriptions {
			filters[topic] = b.cfg.QoS
		}
		token := b.client.SubscribeMultiple(filters, b.deliver)
		if !token.WaitTimeout(subscribeTimeout) {
			log.Error().Int("topics", len(filters)).Msg("mqtt subscribe timeout")
		} else if err := token.Error(); err != nil {
			log.Error().Err(err).Int("topics", len(filters)).Msg("mqtt subscribe failed")
		} else {
			log.Info().Strs("topics", b.cfg.Subscriptions).Msg("mqtt subscribed")
		}
	}

	b.hookMu.RLock()
	hook := b.onConnect
	b.hookMu.RUnlock()
	if hook != nil {
		hook(b)
	}
}

// deliver is the paho message handler. It blocks while the channel is full.
func (b *RealBus) deliver(_ paho.Client, m paho.Message) {
	msg := Message{Topic: m.Topic(), Payload: m.Payload()}
	select {
	case b.msgs <- msg:
	case <-b.done:
	}
}

// Messages returns the delivery channel.
func (b *RealBus) Messages() <-chan Message {
	return b.msgs
}

// Publish hands a message to the client without waiting for the broker.
// Completion errors are logged.
func (b *RealBus) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if err := validatePublish(topic, qos); err != nil {
		return err
	}
	if !b.client.IsConnected() {
		return ErrNotConnected
	}

	token := b.client.Publish(topic, qos, retained, payload)
	go func() {
		<-token.Done()
		if err := token.Error(); err != nil {
			log.Warn().Err(err).Str("topic", topic).Msg("mqtt publish failed")
		}
	}()
	return nil
}

// IsConnected reports the client's connection state.
func (b *RealBus) IsConnected() bool {
	return b.client.IsConnected()
}

// Close disconnects from the broker and unblocks any pending delivery.
func (b *RealBus) Close() error {
	b.closeOnce.Do(func() {
		close(b.done)
		b.client.Disconnect(disconnectQuiesce)
	})
	return nil
}
