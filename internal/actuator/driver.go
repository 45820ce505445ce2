package actuator

import (
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/sweeney/diy-hub/internal/gpio"
)

// Driver owns one binary output. Writes are best-effort: a failed write is
// logged and counted but never returned, so callers cannot tell success
// from a swallowed fault.
type Driver struct {
	out    gpio.Writer
	pin    int
	faults atomic.Int64
}

// NewDriver wraps out. pin is used for logging only.
func NewDriver(out gpio.Writer, pin int) *Driver {
	return &Driver{out: out, pin: pin}
}

// SetLevel drives the output high or low.
func (d *Driver) SetLevel(level bool) {
	if err := d.out.Write(level); err != nil {
		n := d.faults.Add(1)
		log.Error().
			Err(err).
			Int("pin", d.pin).
			Bool("level", level).
			Int64("faults", n).
			Msg("actuator write failed")
	}
}

// Faults returns the number of swallowed write failures since start.
func (d *Driver) Faults() int64 {
	return d.faults.Load()
}

// Close drives the output low and releases it.
func (d *Driver) Close() error {
	return d.out.Close()
}
