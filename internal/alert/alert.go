// Package alert sends critical-event notifications over an authenticated
// mail relay. Delivery is synchronous and attempted once; callers log and
// drop failures.
package alert

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
)

// Notifier delivers one alert.
type Notifier interface {
	Notify(ctx context.Context, subject, body string) error
}

// ErrDisabled is returned by Disabled.
var ErrDisabled = errors.New("alert: notifications disabled")

// Disabled is the notifier used when no relay is configured.
type Disabled struct{}

// Notify logs the alert and reports ErrDisabled.
func (Disabled) Notify(_ context.Context, subject, _ string) error {
	log.Warn().Str("subject", subject).Msg("alert not sent: notifications disabled")
	return ErrDisabled
}

// Sent is an alert recorded by FakeNotifier.
type Sent struct {
	Subject string
	Body    string
}

// FakeNotifier records alerts for test assertions. Safe for concurrent use.
type FakeNotifier struct {
	mu   sync.Mutex
	sent []Sent
	err  error
}

// NewFakeNotifier creates an empty FakeNotifier.
func NewFakeNotifier() *FakeNotifier {
	return &FakeNotifier{}
}

// Notify records the alert, or returns the configured error.
// Failed attempts are recorded too.
func (f *FakeNotifier) Notify(_ context.Context, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, Sent{Subject: subject, Body: body})
	return f.err
}

// SetError makes subsequent alerts fail with err (nil clears it).
func (f *FakeNotifier) SetError(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

// Sent returns a copy of every attempted alert.
func (f *FakeNotifier) Sent() []Sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Sent, len(f.sent))
	copy(out, f.sent)
	return out
}

// Reset clears recorded alerts and the error.
func (f *FakeNotifier) Reset() {
	f.mu.Lock()
	f.sent = nil
	f.err = nil
	f.mu.Unlock()
}
