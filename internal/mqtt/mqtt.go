// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/door-counter/internal/logic"
)

// Topic is the MQTT topic for detection events.
const Topic = "door/counter/sensor/events"

// TopicRecords is the MQTT topic for flushed aggregation windows.
const TopicRecords = "door/counter/sensor/records"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "door/counter/sensor/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a detection event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event logic.DetectionEvent) error

	// PublishRecord sends a flushed log record to the broker.
	PublishRecord(record logic.LogRecord) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload for a detection.
type Payload struct {
	Detection DetectionPayload `json:"detection"`
}

// DetectionPayload contains the detection details.
type DetectionPayload struct {
	Timestamp  string  `json:"timestamp"`
	Event      string  `json:"event"`
	DistanceCM float64 `json:"distance_cm"`
}

// FormatPayload creates the JSON payload for a detection event.
func FormatPayload(event logic.DetectionEvent) ([]byte, error) {
	payload := Payload{
		Detection: DetectionPayload{
			Timestamp:  event.Timestamp.UTC().Format(time.RFC3339),
			Event:      "PERSON_DETECTED",
			DistanceCM: event.DistanceCM,
		},
	}
	return json.Marshal(payload)
}

// RecordPayload represents the MQTT message payload for a log record.
type RecordPayload struct {
	Record RecordPayloadInner `json:"record"`
}

// RecordPayloadInner mirrors the CSV columns.
type RecordPayloadInner struct {
	Index          int    `json:"index"`
	Timestamp      string `json:"timestamp"`
	ElapsedMs      int64  `json:"elapsed_ms"`
	PeopleDetected int    `json:"people_detected"`
}

// FormatRecordPayload creates the JSON payload for a log record.
func FormatRecordPayload(record logic.LogRecord) ([]byte, error) {
	payload := RecordPayload{
		Record: RecordPayloadInner{
			Index:          record.Index,
			Timestamp:      record.WallClock.UTC().Format(time.RFC3339),
			ElapsedMs:      record.ElapsedMs,
			PeopleDetected: record.Count,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
