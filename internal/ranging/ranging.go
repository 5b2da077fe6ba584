// Package ranging measures distance with an HC-SR04 style ultrasonic sensor.
package ranging

import (
	"errors"
	"fmt"
	"time"

	"github.com/sweeney/door-counter/internal/gpio"
	"github.com/sweeney/door-counter/internal/logic"
)

// SpeedOfSoundCMPerSec is the speed of sound at room temperature.
const SpeedOfSoundCMPerSec = 34300.0

// TriggerPulse is how long the trigger line is held high to start a ping.
const TriggerPulse = 10 * time.Microsecond

// DefaultEchoTimeout bounds each echo wait; 30ms is roughly a 5m round trip.
const DefaultEchoTimeout = 30 * time.Millisecond

// ErrSensorTimeout is returned when the echo line does not change level
// within the echo timeout.
var ErrSensorTimeout = errors.New("sensor timeout")

// Driver triggers the sensor and times the echo pulse.
type Driver struct {
	pins    gpio.Pins
	timeout time.Duration
	now     func() time.Time
	sleep   func(time.Duration)
}

// Option configures a Driver.
type Option func(*Driver)

// WithTimeout sets the bound on each echo wait.
func WithTimeout(d time.Duration) Option {
	return func(r *Driver) { r.timeout = d }
}

// WithClock replaces time.Now and time.Sleep.
func WithClock(now func() time.Time, sleep func(time.Duration)) Option {
	return func(r *Driver) {
		r.now = now
		r.sleep = sleep
	}
}

// NewDriver creates a Driver over the given pins. The pins are owned by the
// caller and must be closed by it.
func NewDriver(pins gpio.Pins, opts ...Option) *Driver {
	d := &Driver{
		pins:    pins,
		timeout: DefaultEchoTimeout,
		now:     time.Now,
		sleep:   time.Sleep,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Measure sends one ping and returns the distance to the nearest object in cm.
func (d *Driver) Measure() (float64, error) {
	flight, err := d.ping()
	if err != nil {
		return 0, err
	}
	return Centimeters(flight), nil
}

// Sample measures and timestamps the reading with the moment the echo ended.
func (d *Driver) Sample() (logic.Sample, error) {
	flight, err := d.ping()
	if err != nil {
		return logic.Sample{}, err
	}
	return logic.Sample{Timestamp: d.now(), DistanceCM: Centimeters(flight)}, nil
}

// Centimeters converts a round-trip time of flight to a one-way distance.
func Centimeters(flight time.Duration) float64 {
	return flight.Seconds() * SpeedOfSoundCMPerSec / 2
}

func (d *Driver) ping() (time.Duration, error) {
	if err := d.trigger(); err != nil {
		return 0, err
	}

	start, err := d.waitEcho(true)
	if err != nil {
		return 0, fmt.Errorf("wait for echo start: %w", err)
	}
	stop, err := d.waitEcho(false)
	if err != nil {
		return 0, fmt.Errorf("wait for echo end: %w", err)
	}
	return stop.Sub(start), nil
}

// trigger pulses the trigger line. The line is always driven low again once
// it has been raised, including on error.
func (d *Driver) trigger() (err error) {
	if err := d.pins.SetTrigger(true); err != nil {
		// The raise may have half-applied; make sure the line is low.
		d.pins.SetTrigger(false)
		return fmt.Errorf("raise trigger: %w", err)
	}
	defer func() {
		if lerr := d.pins.SetTrigger(false); lerr != nil && err == nil {
			err = fmt.Errorf("lower trigger: %w", lerr)
		}
	}()
	d.sleep(TriggerPulse)
	return nil
}

// waitEcho polls the echo line until it reads level, returning the time of
// that read. It gives up with ErrSensorTimeout after d.timeout.
func (d *Driver) waitEcho(level bool) (time.Time, error) {
	began := d.now()
	for {
		v, err := d.pins.ReadEcho()
		if err != nil {
			return time.Time{}, err
		}
		t := d.now()
		if v == level {
			return t, nil
		}
		if t.Sub(began) >= d.timeout {
			return time.Time{}, fmt.Errorf("%w after %v", ErrSensorTimeout, d.timeout)
		}
	}
}
