// Package gpio provides the ultrasonic sensor's digital lines with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Pins drives the trigger line and reads the echo line of an HC-SR04 style sensor.
type Pins interface {
	// SetTrigger drives the trigger line high (true) or low (false).
	SetTrigger(high bool) error

	// ReadEcho returns the current level of the echo line (true = high).
	ReadEcho() (bool, error)

	// Close releases GPIO resources.
	Close() error
}

// Pin definitions (BCM numbering)
const (
	DefaultPinTrigger = 23
	DefaultPinEcho    = 24
)
