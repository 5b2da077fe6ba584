package gpio

import (
	"errors"
	"testing"
)

func TestFakePinsReadEcho(t *testing.T) {
	f := NewFakePins([]bool{false, true, false})

	want := []bool{false, true, false, false} // last level repeats
	for i, w := range want {
		got, err := f.ReadEcho()
		if err != nil {
			t.Fatalf("read %d: unexpected error: %v", i, err)
		}
		if got != w {
			t.Errorf("read %d: expected %v, got %v", i, w, got)
		}
	}
	if f.Reads != 4 {
		t.Errorf("expected 4 reads, got %d", f.Reads)
	}
}

func TestFakePinsNoLevels(t *testing.T) {
	f := NewFakePins(nil)

	_, err := f.ReadEcho()
	if err == nil {
		t.Error("expected error with no echo levels")
	}
}

func TestFakePinsReadError(t *testing.T) {
	f := NewFakePins([]bool{true})
	f.ReadError = errors.New("simulated error")

	_, err := f.ReadEcho()
	if err == nil {
		t.Fatal("expected error to be returned")
	}
	if err.Error() != "simulated error" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFakePinsOnRead(t *testing.T) {
	f := NewFakePins([]bool{false})
	calls := 0
	f.OnRead = func() { calls++ }

	f.ReadEcho()
	f.ReadEcho()

	if calls != 2 {
		t.Errorf("expected OnRead called twice, got %d", calls)
	}
}

func TestFakePinsTrigger(t *testing.T) {
	f := NewFakePins(nil)

	if f.TriggerHigh() {
		t.Error("trigger should start low")
	}
	f.SetTrigger(true)
	if !f.TriggerHigh() {
		t.Error("trigger should be high after SetTrigger(true)")
	}
	f.SetTrigger(false)
	if f.TriggerHigh() {
		t.Error("trigger should be low after SetTrigger(false)")
	}
	if len(f.Triggers) != 2 {
		t.Errorf("expected 2 recorded levels, got %d", len(f.Triggers))
	}
}

func TestFakePinsTriggerError(t *testing.T) {
	f := NewFakePins(nil)
	f.TriggerError = errors.New("stuck")

	if err := f.SetTrigger(true); err == nil {
		t.Error("expected error raising trigger")
	}
	if err := f.SetTrigger(false); err != nil {
		t.Errorf("lowering trigger should succeed, got %v", err)
	}
}

func TestPulse(t *testing.T) {
	got := Pulse(2, 3, 1)
	want := []bool{false, false, true, true, true, false}
	if len(got) != len(want) {
		t.Fatalf("expected %d levels, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("level %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestFakePinsCloseAndReset(t *testing.T) {
	f := NewFakePins([]bool{true, false})
	f.ReadEcho()
	f.SetTrigger(true)

	if err := f.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !f.Closed {
		t.Error("should be closed after Close()")
	}

	f.Reset()
	if f.Closed || f.Reads != 0 || len(f.Triggers) != 0 {
		t.Error("Reset should clear recorded state")
	}
	got, _ := f.ReadEcho()
	if got != true {
		t.Error("after reset: expected first level again")
	}
}
