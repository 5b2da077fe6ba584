//go:build !linux

package gpio

import "errors"

// RealPins is not available on non-Linux platforms.
type RealPins struct{}

// NewRealPins returns an error on non-Linux platforms.
func NewRealPins(pinTrigger, pinEcho int) (*RealPins, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// SetTrigger is not implemented on non-Linux platforms.
func (p *RealPins) SetTrigger(high bool) error {
	return errors.New("gpio: not supported")
}

// ReadEcho is not implemented on non-Linux platforms.
func (p *RealPins) ReadEcho() (bool, error) {
	return false, errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (p *RealPins) Close() error {
	return nil
}
