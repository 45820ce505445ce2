package mqtt

import "sync"

// Published is a message recorded by FakeBus.
type Published struct {
	Topic    string
	Payload  string
	QoS      byte
	Retained bool
}

// FakeBus records publishes and lets tests inject deliveries and connects.
// Safe for concurrent use.
type FakeBus struct {
	mu sync.Mutex

	published     []Published
	subscriptions []string
	connects      int
	connected     bool
	closed        bool
	publishErr    error
	onConnect     func(Publisher)

	msgs chan Message
}

// NewFakeBus creates a disconnected FakeBus declaring subs.
func NewFakeBus(subs ...string) *FakeBus {
	return &FakeBus{
		subscriptions: subs,
		msgs:          make(chan Message, DefaultBuffer),
	}
}

// Publish records the message.
func (f *FakeBus) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if err := validatePublish(topic, qos); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, Published{
		Topic:    topic,
		Payload:  string(payload),
		QoS:      qos,
		Retained: retained,
	})
	return nil
}

// OnConnect registers the connect hook.
func (f *FakeBus) OnConnect(fn func(Publisher)) {
	f.mu.Lock()
	f.onConnect = fn
	f.mu.Unlock()
}

// SimulateConnect marks the bus connected and runs the connect hook,
// as the real bus does on every (re)connect.
func (f *FakeBus) SimulateConnect() {
	f.mu.Lock()
	f.connected = true
	f.connects++
	hook := f.onConnect
	f.mu.Unlock()
	if hook != nil {
		hook(f)
	}
}

// SimulateDisconnect marks the bus disconnected.
func (f *FakeBus) SimulateDisconnect() {
	f.mu.Lock()
	f.connected = false
	f.mu.Unlock()
}

// Deliver queues a message as if the broker had sent it.
func (f *FakeBus) Deliver(topic, payload string) {
	f.msgs <- Message{Topic: topic, Payload: []byte(payload)}
}

// Messages returns the delivery channel.
func (f *FakeBus) Messages() <-chan Message {
	return f.msgs
}

// IsConnected reports the simulated connection state.
func (f *FakeBus) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

// Close marks the bus closed and disconnected.
func (f *FakeBus) Close() error {
	f.mu.Lock()
	f.closed = true
	f.connected = false
	f.mu.Unlock()
	return nil
}

// SetPublishError makes subsequent publishes fail with err (nil clears it).
func (f *FakeBus) SetPublishError(err error) {
	f.mu.Lock()
	f.publishErr = err
	f.mu.Unlock()
}

// Published returns a copy of every recorded publish.
func (f *FakeBus) Published() []Published {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Published, len(f.published))
	copy(out, f.published)
	return out
}

// Subscriptions returns the declared subscriptions.
func (f *FakeBus) Subscriptions() []string {
	return f.subscriptions
}

// Connects returns how many times SimulateConnect ran.
func (f *FakeBus) Connects() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connects
}

// Closed reports whether Close was called.
func (f *FakeBus) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Reset clears recorded publishes and the publish error.
func (f *FakeBus) Reset() {
	f.mu.Lock()
	f.published = nil
	f.publishErr = nil
	f.mu.Unlock()
}
