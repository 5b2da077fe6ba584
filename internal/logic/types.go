// Package logic contains pure business logic for doorway occupancy counting.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import (
	"errors"
	"time"
)

// State represents the occupancy state of the doorway.
type State string

const (
	StateIdle     State = "IDLE"
	StateOccupied State = "OCCUPIED"
)

// Sample is a single distance reading.
type Sample struct {
	Timestamp  time.Time
	DistanceCM float64
}

// DetectionState is the mutable state of the occupancy detector.
type DetectionState struct {
	Occupied bool
	// Timestamp of the most recent in-range sample.
	WindowStart time.Time
}

// DetectionEvent marks the start of one person's presence.
type DetectionEvent struct {
	Timestamp  time.Time
	DistanceCM float64
}

// AggregationWindow accumulates detections for one flush interval.
type AggregationWindow struct {
	Index     int
	StartTime time.Time
	Count     int
}

// LogRecord is one flushed aggregation window.
type LogRecord struct {
	Index     int
	WallClock time.Time
	ElapsedMs int64
	Count     int
}

// ErrLogWriteFailed is returned when a sink rejects a LogRecord.
var ErrLogWriteFailed = errors.New("log write failed")

// Sink persists LogRecords.
type Sink interface {
	// Reset (re)initializes the sink with header-only content.
	Reset(header []string) error

	// Append adds one record.
	Append(record LogRecord) error
}

// Header is the column layout every sink is initialized with.
var Header = []string{"Index", "Date and Time", "Time in Milliseconds", "People Detected"}

// EventCounts tracks detector activity since startup.
type EventCounts struct {
	Entries int
	Exits   int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    EventCounts
}
