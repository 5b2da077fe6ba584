//go:build linux

package gpio

import (
	"errors"
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealPins drives the sensor through the Linux GPIO character device.
type RealPins struct {
	chip    *gpiocdev.Chip
	trigger *gpiocdev.Line
	echo    *gpiocdev.Line
}

// NewRealPins requests the trigger line as an output (initially low) and the
// echo line as a pulled-down input.
func NewRealPins(pinTrigger, pinEcho int) (*RealPins, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	trigger, err := chip.RequestLine(pinTrigger, gpiocdev.AsOutput(0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request trigger pin %d: %w", pinTrigger, err)
	}

	echo, err := chip.RequestLine(pinEcho, gpiocdev.AsInput, gpiocdev.WithPullDown)
	if err != nil {
		trigger.Close()
		chip.Close()
		return nil, fmt.Errorf("request echo pin %d: %w", pinEcho, err)
	}

	return &RealPins{
		chip:    chip,
		trigger: trigger,
		echo:    echo,
	}, nil
}

// SetTrigger drives the trigger line.
func (p *RealPins) SetTrigger(high bool) error {
	v := 0
	if high {
		v = 1
	}
	if err := p.trigger.SetValue(v); err != nil {
		return fmt.Errorf("set trigger pin: %w", err)
	}
	return nil
}

// ReadEcho reads the echo line.
func (p *RealPins) ReadEcho() (bool, error) {
	v, err := p.echo.Value()
	if err != nil {
		return false, fmt.Errorf("read echo pin: %w", err)
	}
	return v == 1, nil
}

// Close releases GPIO resources.
// Both lines are reconfigured to input with pull-down (matching Pi boot
// defaults) before closing so the trigger is never left driven.
func (p *RealPins) Close() error {
	var errs []error

	for _, l := range []struct {
		name string
		line *gpiocdev.Line
	}{{"trigger", p.trigger}, {"echo", p.echo}} {
		if l.line == nil {
			continue
		}
		if err := l.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure %s pin: %w", l.name, err))
		}
		if err := l.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s pin: %w", l.name, err))
		}
	}
	if p.chip != nil {
		if err := p.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %w", errors.Join(errs...))
	}
	return nil
}
