package actuator

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Timing defaults.
const (
	DefaultIdlePoll      = 1 * time.Second
	DefaultFlashDuration = 200 * time.Millisecond
)

// Mode is the actuator mode set by Control.
type Mode int

const (
	ModeOff Mode = iota
	ModeOn
)

func (m Mode) String() string {
	if m == ModeOn {
		return "ON"
	}
	return "OFF"
}

// Condition is the pulse state derived from mode and silence.
type Condition string

const (
	ConditionIdle     Condition = "IDLE"
	ConditionActive   Condition = "ACTIVE"
	ConditionSilenced Condition = "SILENCED"
)

// State is a point-in-time copy of the pulser.
type State struct {
	Mode   Mode
	Silent bool
	Phase  int
	Faults int64
}

// Condition returns SILENCED whenever silence is set, regardless of mode.
func (s State) Condition() Condition {
	switch {
	case s.Silent:
		return ConditionSilenced
	case s.Mode == ModeOn:
		return ConditionActive
	default:
		return ConditionIdle
	}
}

// Options configures a Pulser. Zero values take the defaults.
type Options struct {
	Waveform      Waveform
	IdlePoll      time.Duration
	FlashDuration time.Duration

	// Sleep holds the flash level. Tests replace it.
	Sleep func(time.Duration)
}

// Pulser is the pulse state machine. Mode, silence and phase are guarded
// by one mutex; the waveform index is read and advanced under it, so a
// concurrent reset can never leave phase out of range.
type Pulser struct {
	driver   *Driver
	waveform Waveform
	idlePoll time.Duration
	flashFor time.Duration
	sleep    func(time.Duration)

	mu     sync.Mutex
	mode   Mode
	silent bool
	phase  int
	gen    uint64 // bumped on every mode or silence change

	// outMu serialises output writes so a flash is never interleaved
	// with a loop write.
	outMu sync.Mutex

	wake chan struct{}
}

// NewPulser creates an idle, unsilenced pulser driving d.
func NewPulser(d *Driver, opts Options) *Pulser {
	p := &Pulser{
		driver:   d,
		waveform: opts.Waveform,
		idlePoll: opts.IdlePoll,
		flashFor: opts.FlashDuration,
		sleep:    opts.Sleep,
		wake:     make(chan struct{}, 1),
	}
	if len(p.waveform) == 0 {
		p.waveform = DefaultWaveform
	}
	if p.idlePoll <= 0 {
		p.idlePoll = DefaultIdlePoll
	}
	if p.flashFor <= 0 {
		p.flashFor = DefaultFlashDuration
	}
	if p.sleep == nil {
		p.sleep = time.Sleep
	}
	return p
}

// Control sets the actuator mode and restarts the waveform from step 0.
func (p *Pulser) Control(on bool) {
	p.mu.Lock()
	if on {
		p.mode = ModeOn
	} else {
		p.mode = ModeOff
	}
	p.phase = 0
	p.gen++
	p.mu.Unlock()

	log.Debug().Bool("on", on).Msg("actuator mode changed")
	p.notify()
}

// SilentMode sets or clears the silence override and restarts the waveform.
func (p *Pulser) SilentMode(on bool) {
	p.mu.Lock()
	p.silent = on
	p.phase = 0
	p.gen++
	p.mu.Unlock()

	log.Debug().Bool("silent", on).Msg("actuator silence changed")
	p.notify()
}

// FlashOnce pulses the output once. It is a no-op while the mode is ON or
// silence is set, so an ephemeral event never disturbs a running waveform.
// Reports whether the flash happened.
//
// Lock order is outMu then mu. The rising edge is written under mu so a
// Control or SilentMode call that has returned is never followed by a flash.
func (p *Pulser) FlashOnce() bool {
	p.outMu.Lock()
	defer p.outMu.Unlock()

	p.mu.Lock()
	if p.mode != ModeOff || p.silent {
		p.mu.Unlock()
		return false
	}
	p.driver.SetLevel(true)
	p.mu.Unlock()

	p.sleep(p.flashFor)
	p.driver.SetLevel(false)
	return true
}

// Step runs one loop iteration and returns how long to hold the result.
// ACTIVE plays the current step and advances the phase; IDLE and SILENCED
// force the output low and return the idle poll interval.
func (p *Pulser) Step() time.Duration {
	d, _ := p.step()
	return d
}

func (p *Pulser) step() (time.Duration, uint64) {
	p.mu.Lock()
	gen := p.gen
	if p.mode != ModeOn || p.silent {
		p.mu.Unlock()
		p.write(false)
		return p.idlePoll, gen
	}
	s := p.waveform[p.phase]
	p.phase = (p.phase + 1) % len(p.waveform)
	p.mu.Unlock()

	p.write(s.Level)
	return s.Duration, gen
}

// Run drives the waveform until ctx is cancelled, then forces the output
// low. A mode or silence change cuts the current wait short.
func (p *Pulser) Run(ctx context.Context) {
	log.Info().
		Int("steps", len(p.waveform)).
		Dur("period", p.waveform.Period()).
		Msg("pulse loop started")

	for {
		d, gen := p.step()
		if !p.wait(ctx, d, gen) {
			p.write(false)
			log.Info().Msg("pulse loop stopped")
			return
		}
	}
}

// wait blocks for d, until the pulser changes from generation gen, or
// until ctx is done. Returns false when ctx is done.
func (p *Pulser) wait(ctx context.Context, d time.Duration, gen uint64) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return false
		case <-t.C:
			return true
		case <-p.wake:
			if p.generation() != gen {
				return true
			}
		}
	}
}

// State returns a snapshot of mode, silence, phase and fault count.
func (p *Pulser) State() State {
	p.mu.Lock()
	s := State{Mode: p.mode, Silent: p.silent, Phase: p.phase}
	p.mu.Unlock()
	s.Faults = p.driver.Faults()
	return s
}

// Waveform returns the configured waveform.
func (p *Pulser) Waveform() Waveform {
	return p.waveform
}

func (p *Pulser) generation() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gen
}

func (p *Pulser) write(level bool) {
	p.outMu.Lock()
	p.driver.SetLevel(level)
	p.outMu.Unlock()
}

func (p *Pulser) notify() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}
