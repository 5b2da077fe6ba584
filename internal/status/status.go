// Package status provides a thread-safe status tracker for the door-counter daemon.
// It is written by the scheduler loop and read by HTTP handlers and MQTT
// lifecycle events.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/door-counter/internal/logic"
)

// NetworkInfo is the host network state written by pi-helper.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	PollMs        int64
	ThresholdCM   float64
	HoldMs        int64
	WindowMs      int64
	EchoTimeoutMs int64
	HeartbeatMs   int64
	Broker        string
	HTTPAddr      string
	CSVPath       string
	DBPath        string
}

// Diagnostics counts recoverable faults since startup.
type Diagnostics struct {
	SensorTimeouts      int
	ConsecutiveTimeouts int
	SensorErrors        int
	RecordsWritten      int
	LogWriteFailures    int
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	State          logic.State
	Counts         logic.EventCounts
	Window         logic.AggregationWindow
	TotalPeople    int
	LastDistanceCM float64
	LastSampleAt   time.Time
	Diagnostics    Diagnostics
	StartTime      time.Time
	Now            time.Time
	MQTTConnected  bool
	Network        *NetworkInfo
	Config         Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			State:     logic.StateIdle,
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update sets the detector state, its counters and the active window.
// Called from runLoop on every tick.
func (t *Tracker) Update(state logic.State, counts logic.EventCounts, window logic.AggregationWindow, totalPeople int) {
	t.mu.Lock()
	t.snap.State = state
	t.snap.Counts = counts
	t.snap.Window = window
	t.snap.TotalPeople = totalPeople
	t.mu.Unlock()
}

// RecordSample stores the latest distance and ends any timeout streak.
func (t *Tracker) RecordSample(s logic.Sample) {
	t.mu.Lock()
	t.snap.LastDistanceCM = s.DistanceCM
	t.snap.LastSampleAt = s.Timestamp
	t.snap.Diagnostics.ConsecutiveTimeouts = 0
	t.mu.Unlock()
}

// RecordTimeout counts a sensor timeout and returns the current streak length.
func (t *Tracker) RecordTimeout() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.Diagnostics.SensorTimeouts++
	t.snap.Diagnostics.ConsecutiveTimeouts++
	return t.snap.Diagnostics.ConsecutiveTimeouts
}

// RecordSensorError counts a non-timeout sensor failure.
func (t *Tracker) RecordSensorError() {
	t.mu.Lock()
	t.snap.Diagnostics.SensorErrors++
	t.mu.Unlock()
}

// RecordWrite counts a flush attempt.
func (t *Tracker) RecordWrite(ok bool) {
	t.mu.Lock()
	if ok {
		t.snap.Diagnostics.RecordsWritten++
	} else {
		t.snap.Diagnostics.LogWriteFailures++
	}
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
