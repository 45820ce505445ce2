// Package schedule forces the hub into a day or night mode at fixed hours.
//
// The scheduler is polled, not timer driven. The target state is a pure
// function of the current hour, so a missed poll corrects itself on the
// next one.
package schedule

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// State is the global lighting/activity mode.
type State int

const (
	Day State = iota
	Night
)

func (s State) String() string {
	if s == Night {
		return "NIGHT"
	}
	return "DAY"
}

// Default boundaries (24-hour clock).
const (
	DefaultDayHour   = 6
	DefaultNightHour = 21
)

// ErrInvalidHours is returned when the boundaries are out of range or out of order.
var ErrInvalidHours = errors.New("schedule: invalid day/night hours")

// ValidateHours checks 0 <= day < night <= 23.
func ValidateHours(day, night int) error {
	if day < 0 || night > 23 || day >= night {
		return fmt.Errorf("%w: day=%d night=%d (need 0 <= day < night <= 23)", ErrInvalidHours, day, night)
	}
	return nil
}

// Action applies a transition. Implementations are the deployment policy.
type Action interface {
	Apply(s State)
}

// Scheduler remembers the last applied state and only acts on a change.
type Scheduler struct {
	dayHour   int
	nightHour int
	action    Action

	mu      sync.Mutex
	current State
}

// New creates a Scheduler that starts out in Day, the state announced
// to every device on connect.
func New(dayHour, nightHour int, action Action) (*Scheduler, error) {
	if err := ValidateHours(dayHour, nightHour); err != nil {
		return nil, err
	}
	return &Scheduler{
		dayHour:   dayHour,
		nightHour: nightHour,
		action:    action,
		current:   Day,
	}, nil
}

// Target returns the state for hour: Night from nightHour onwards, Day
// otherwise. Early morning up to dayHour counts as Day, as does the normal
// daytime window.
func (s *Scheduler) Target(hour int) State {
	if hour >= s.nightHour {
		return Night
	}
	return Day
}

// window names the part of the day hour falls in, for logging.
func (s *Scheduler) window(hour int) string {
	switch {
	case hour <= s.dayHour:
		return "day"
	case hour >= s.nightHour:
		return "night"
	default:
		return "normal"
	}
}

// Check evaluates now and applies a transition if the target differs from
// the remembered state. Returns the current state and whether it changed.
func (s *Scheduler) Check(now time.Time) (State, bool) {
	hour := now.Hour()
	target := s.Target(hour)

	s.mu.Lock()
	defer s.mu.Unlock()
	if target == s.current {
		return s.current, false
	}

	s.action.Apply(target)
	s.current = target

	log.Info().
		Int("hour", hour).
		Str("window", s.window(hour)).
		Str("state", target.String()).
		Msg("day/night transition")
	return target, true
}

// Current returns the remembered state.
func (s *Scheduler) Current() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Assume sets the remembered state without acting. Used after the connect
// announcement has put every device into a known state, so the next Check
// re-applies the target if it differs.
func (s *Scheduler) Assume(state State) {
	s.mu.Lock()
	s.current = state
	s.mu.Unlock()
}
