package gpio

import "errors"

// FakePins is a test double that returns scripted echo levels.
type FakePins struct {
	// Echo contains scripted echo levels to return.
	// Each call to ReadEcho() consumes the next level.
	Echo []bool

	// index tracks current position in Echo
	index int

	// Triggers records every value passed to SetTrigger, in order.
	Triggers []bool

	// Reads counts ReadEcho calls.
	Reads int

	// OnRead, if set, is called before every ReadEcho returns.
	// Tests use it to advance a fake clock.
	OnRead func()

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by ReadEcho()
	ReadError error

	// TriggerError, if set, will be returned by SetTrigger(true).
	// Driving the trigger low always succeeds so cleanup can be observed.
	TriggerError error
}

// NewFakePins creates FakePins with the given echo levels.
func NewFakePins(echo []bool) *FakePins {
	return &FakePins{Echo: echo}
}

// Pulse builds an echo script: low for before reads, high for width reads,
// then low for after reads.
func Pulse(before, width, after int) []bool {
	out := make([]bool, 0, before+width+after)
	for i := 0; i < before; i++ {
		out = append(out, false)
	}
	for i := 0; i < width; i++ {
		out = append(out, true)
	}
	for i := 0; i < after; i++ {
		out = append(out, false)
	}
	return out
}

// SetTrigger records the trigger level.
func (f *FakePins) SetTrigger(high bool) error {
	if high && f.TriggerError != nil {
		return f.TriggerError
	}
	f.Triggers = append(f.Triggers, high)
	return nil
}

// ReadEcho returns the next scripted level.
// If levels are exhausted, returns the last level repeatedly.
func (f *FakePins) ReadEcho() (bool, error) {
	f.Reads++
	if f.OnRead != nil {
		f.OnRead()
	}

	if f.ReadError != nil {
		return false, f.ReadError
	}

	if len(f.Echo) == 0 {
		return false, errors.New("no echo levels configured")
	}

	level := f.Echo[f.index]
	if f.index < len(f.Echo)-1 {
		f.index++
	}

	return level, nil
}

// TriggerHigh reports whether the last recorded trigger level was high.
func (f *FakePins) TriggerHigh() bool {
	return len(f.Triggers) > 0 && f.Triggers[len(f.Triggers)-1]
}

// Close marks the pins as closed.
func (f *FakePins) Close() error {
	f.Closed = true
	return nil
}

// Reset rewinds the echo script and clears recorded state.
func (f *FakePins) Reset() {
	f.index = 0
	f.Reads = 0
	f.Triggers = nil
	f.Closed = false
}
