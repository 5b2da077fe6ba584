package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sweeney/door-counter/internal/logic"
)

func TestFormatPayload(t *testing.T) {
	event := logic.DetectionEvent{
		Timestamp:  time.Date(2026, 2, 2, 22, 18, 12, 0, time.UTC),
		DistanceCM: 72.5,
	}

	payload, err := FormatPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"detection":{"timestamp":"2026-02-02T22:18:12Z","event":"PERSON_DETECTED","distance_cm":72.5}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", string(payload), expected)
	}
}

func TestFormatPayloadTimezoneConversion(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	event := logic.DetectionEvent{
		Timestamp:  time.Date(2026, 2, 3, 0, 30, 0, 0, loc),
		DistanceCM: 10,
	}

	payload, err := FormatPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed Payload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Detection.Timestamp != "2026-02-02T22:30:00Z" {
		t.Errorf("expected UTC timestamp, got %s", parsed.Detection.Timestamp)
	}
}

func TestFormatRecordPayload(t *testing.T) {
	record := logic.LogRecord{
		Index:     3,
		WallClock: time.Date(2026, 2, 2, 10, 0, 0, 0, time.UTC),
		ElapsedMs: 1800000,
		Count:     14,
	}

	payload, err := FormatRecordPayload(record)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"record":{"index":3,"timestamp":"2026-02-02T10:00:00Z","elapsed_ms":1800000,"people_detected":14}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", string(payload), expected)
	}
}

func TestRecordPayloadRoundTrip(t *testing.T) {
	record := logic.LogRecord{Index: 9, WallClock: time.Now(), ElapsedMs: 1800123, Count: 2}

	payload, err := FormatRecordPayload(record)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var parsed RecordPayload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Record.Index != 9 || parsed.Record.ElapsedMs != 1800123 || parsed.Record.PeopleDetected != 2 {
		t.Errorf("unexpected round trip: %+v", parsed.Record)
	}
}

func TestTopics(t *testing.T) {
	if Topic != "door/counter/sensor/events" {
		t.Errorf("unexpected topic: %s", Topic)
	}
	if TopicRecords != "door/counter/sensor/records" {
		t.Errorf("unexpected records topic: %s", TopicRecords)
	}
	if TopicSystem != "door/counter/sensor/system" {
		t.Errorf("unexpected system topic: %s", TopicSystem)
	}
}

func TestFormatSystemPayload(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 2, 10, 8, 30, 0, 0, time.UTC),
		Event:     "SHUTDOWN",
		Reason:    "SIGTERM",
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"system":{"timestamp":"2026-02-10T08:30:00Z","event":"SHUTDOWN","reason":"SIGTERM"}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", string(payload), expected)
	}
}

func TestFormatSystemPayloadOmitsEmptyReason(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 2, 10, 14, 30, 0, 0, time.UTC),
		Event:     "RECONNECTED",
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"system":{"timestamp":"2026-02-10T14:30:00Z","event":"RECONNECTED"}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", string(payload), expected)
	}
}

func TestFormatSystemPayloadRaw(t *testing.T) {
	raw := []byte(`{"status":{"event":"STARTUP"}}`)
	payload, err := FormatSystemPayload(SystemEvent{Event: "STARTUP", RawPayload: raw})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(payload) != string(raw) {
		t.Errorf("expected raw payload passthrough, got %s", payload)
	}
}

func TestFakePublisher(t *testing.T) {
	f := NewFakePublisher()

	event := logic.DetectionEvent{Timestamp: time.Now(), DistanceCM: 50}
	if err := f.Publish(event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	record := logic.LogRecord{Index: 0, WallClock: time.Now(), ElapsedMs: 1, Count: 1}
	if err := f.PublishRecord(record); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.Events) != 1 || len(f.Payloads) != 1 {
		t.Errorf("expected 1 event and payload, got %d/%d", len(f.Events), len(f.Payloads))
	}
	if len(f.Records) != 1 {
		t.Errorf("expected 1 record, got %d", len(f.Records))
	}
}

func TestFakePublisherError(t *testing.T) {
	f := NewFakePublisher()
	f.PublishError = errors.New("simulated error")

	if err := f.Publish(logic.DetectionEvent{}); err == nil {
		t.Error("expected error")
	}
	if err := f.PublishRecord(logic.LogRecord{}); err == nil {
		t.Error("expected error")
	}
	if len(f.Events) != 0 || len(f.Records) != 0 {
		t.Error("nothing should be recorded on error")
	}
}

func TestFakePublisherPublishSystem(t *testing.T) {
	f := NewFakePublisher()

	if err := f.PublishSystem(SystemEvent{Timestamp: time.Now(), Event: "STARTUP", Retained: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.PublishSystemError = errors.New("down")
	if err := f.PublishSystem(SystemEvent{Event: "HEARTBEAT"}); err == nil {
		t.Error("expected error")
	}

	if len(f.SystemEvents) != 1 || !f.SystemEvents[0].Retained {
		t.Errorf("unexpected system events: %+v", f.SystemEvents)
	}
}

func TestFakePublisherReset(t *testing.T) {
	f := NewFakePublisher()
	f.Publish(logic.DetectionEvent{})
	f.PublishRecord(logic.LogRecord{})
	f.PublishSystem(SystemEvent{Event: "STARTUP"})
	f.Close()
	f.Connected = true

	f.Reset()

	if f.Events != nil || f.Payloads != nil || f.Records != nil || f.SystemEvents != nil || f.SystemPayloads != nil {
		t.Error("expected recorded state cleared")
	}
	if f.Closed || f.Connected {
		t.Error("expected flags cleared")
	}
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	if err := p.Publish(logic.DetectionEvent{}); err != nil {
		t.Error(err)
	}
	if err := p.PublishRecord(logic.LogRecord{}); err != nil {
		t.Error(err)
	}
	if err := p.PublishSystem(SystemEvent{}); err != nil {
		t.Error(err)
	}
	if (NopPublisher{}).IsConnected() {
		t.Error("nop publisher should never report connected")
	}
}
