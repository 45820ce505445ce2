//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealWriter drives an output line on actual hardware using the Linux GPIO character device.
type RealWriter struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
	pin  int
}

// NewRealWriter requests pin on the named chip as an output, initially low.
func NewRealWriter(chipName string, pin int) (*RealWriter, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}

	line, err := chip.RequestLine(pin, gpiocdev.AsOutput(0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request output pin %d: %w", pin, err)
	}

	return &RealWriter{
		chip: chip,
		line: line,
		pin:  pin,
	}, nil
}

// Write sets the line level.
func (w *RealWriter) Write(level bool) error {
	if err := w.line.SetValue(value(level)); err != nil {
		return fmt.Errorf("write pin %d: %w", w.pin, err)
	}
	return nil
}

// Close drives the line low, then returns it to input with pull-down
// (the Pi boot default) and releases the chip.
func (w *RealWriter) Close() error {
	var errs []error

	if w.line != nil {
		if err := w.line.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("drive pin %d low: %w", w.pin, err))
		}
		if err := w.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure pin %d: %w", w.pin, err))
		}
		if err := w.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pin %d: %w", w.pin, err))
		}
	}
	if w.chip != nil {
		if err := w.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
