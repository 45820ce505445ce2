// Package gpio provides a binary output line with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Writer drives a single digital output line.
type Writer interface {
	// Write sets the line high (true) or low (false).
	Write(level bool) error

	// Close releases the line. The line is driven low first.
	Close() error
}

// Defaults for the fan light on a Raspberry Pi (BCM numbering).
const (
	DefaultChip = "gpiochip0"
	DefaultPin  = 18 // board pin 12
)

func value(level bool) int {
	if level {
		return 1
	}
	return 0
}
