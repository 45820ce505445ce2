package actuator

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrEmptyWaveform is returned when a waveform has no steps.
	ErrEmptyWaveform = errors.New("actuator: waveform has no steps")

	// ErrInvalidStep is returned when a step has a non-positive duration.
	ErrInvalidStep = errors.New("actuator: waveform step duration must be positive")
)

// Step is one segment of the waveform: hold Level for Duration.
type Step struct {
	Level    bool          `yaml:"level"`
	Duration time.Duration `yaml:"duration"`
}

// Waveform is the ordered, repeating pattern played while the actuator is active.
type Waveform []Step

// DefaultWaveform is the fan light alarm pattern: a burst of short
// flashes, three long ones, another burst and a three second rest.
var DefaultWaveform = pattern(
	200, 200, 200, 200, 200, 1000,
	1000, 200, 1000, 200, 1000, 200,
	200, 200, 200, 200, 200, 3000,
)

// pattern builds a waveform of alternating high/low steps, starting high.
func pattern(ms ...int) Waveform {
	w := make(Waveform, len(ms))
	for i, d := range ms {
		w[i] = Step{Level: i%2 == 0, Duration: time.Duration(d) * time.Millisecond}
	}
	return w
}

// Validate checks that the waveform can be played.
func (w Waveform) Validate() error {
	if len(w) == 0 {
		return ErrEmptyWaveform
	}
	for i, s := range w {
		if s.Duration <= 0 {
			return fmt.Errorf("%w: step %d has %v", ErrInvalidStep, i, s.Duration)
		}
	}
	return nil
}

// Period returns the time taken to play every step once.
func (w Waveform) Period() time.Duration {
	var total time.Duration
	for _, s := range w {
		total += s.Duration
	}
	return total
}
