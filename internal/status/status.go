// Package status provides a thread-safe status tracker for the hub.
// It is written by the hub loops and read by the HTTP handlers.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/diy-hub/internal/actuator"
	"github.com/sweeney/diy-hub/internal/router"
	"github.com/sweeney/diy-hub/internal/schedule"
)

// Config contains hub configuration for display.
type Config struct {
	Broker    string
	Root      string
	Location  string
	Pin       int
	SafeMode  bool
	Policy    string
	DayHour   int
	NightHour int
	HTTPAddr  string
	Peers     int
	Steps     int
	Period    time.Duration
}

// Counts are running totals since start.
type Counts struct {
	Messages      int
	Flashes       int
	Alerts        int
	AlertFailures int
	Announcements int
	Transitions   int
}

// LastMessage is the most recently routed message.
type LastMessage struct {
	Topic   string
	Payload string
	Action  router.Action
	At      time.Time
}

// Snapshot is a point-in-time view of hub state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Actuator      actuator.State
	DayNight      schedule.State
	MQTTConnected bool
	Counts        Counts
	Last          *LastMessage
	StartTime     time.Time
	Now           time.Time
	Config        Config
}

// Uptime returns the duration since the hub started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable hub state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// SetActuator records the latest pulser state. Called on every tick.
func (t *Tracker) SetActuator(s actuator.State) {
	t.mu.Lock()
	t.snap.Actuator = s
	t.mu.Unlock()
}

// SetDayNight records the scheduler state without counting a transition.
func (t *Tracker) SetDayNight(s schedule.State) {
	t.mu.Lock()
	t.snap.DayNight = s
	t.mu.Unlock()
}

// RecordTransition records an applied day/night transition.
func (t *Tracker) RecordTransition(s schedule.State) {
	t.mu.Lock()
	t.snap.DayNight = s
	t.snap.Counts.Transitions++
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// RecordMessage counts one routed message and remembers it as the last.
func (t *Tracker) RecordMessage(res router.Result, payload []byte, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.snap.Counts.Messages++
	if res.Flashed {
		t.snap.Counts.Flashes++
	}
	if res.Alert != "" {
		if res.AlertErr != nil {
			t.snap.Counts.AlertFailures++
		} else {
			t.snap.Counts.Alerts++
		}
	}
	t.snap.Last = &LastMessage{
		Topic:   res.Topic,
		Payload: string(payload),
		Action:  res.Action,
		At:      at,
	}
}

// RecordAnnouncement counts one connect-time announcement.
func (t *Tracker) RecordAnnouncement() {
	t.mu.Lock()
	t.snap.Counts.Announcements++
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the hub state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	if s.Last != nil {
		last := *s.Last
		s.Last = &last
	}
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
