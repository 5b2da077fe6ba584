package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event          string          `json:"event,omitempty"`
	Reason         string          `json:"reason,omitempty"`
	State          string          `json:"state"`
	UptimeSeconds  int64           `json:"uptime_seconds"`
	StartTime      string          `json:"start_time"`
	Timestamp      string          `json:"timestamp"`
	LastDistanceCM float64         `json:"last_distance_cm"`
	LastSampleAt   string          `json:"last_sample_at,omitempty"`
	TotalPeople    int             `json:"total_people"`
	Window         WindowJSON      `json:"window"`
	Counts         CountsJSON      `json:"event_counts"`
	Diagnostics    DiagnosticsJSON `json:"diagnostics"`
	MQTT           MQTTStatus      `json:"mqtt"`
	Network        *NetworkJSON    `json:"network,omitempty"`
	Config         ConfigJSON      `json:"config"`
}

// WindowJSON describes the aggregation window in progress.
type WindowJSON struct {
	Index     int    `json:"index"`
	StartTime string `json:"start_time"`
	Count     int    `json:"count"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	Entries int `json:"entries"`
	Exits   int `json:"exits"`
}

// DiagnosticsJSON is the JSON representation of fault counters.
type DiagnosticsJSON struct {
	SensorTimeouts      int `json:"sensor_timeouts"`
	ConsecutiveTimeouts int `json:"consecutive_timeouts"`
	SensorErrors        int `json:"sensor_errors"`
	RecordsWritten      int `json:"records_written"`
	LogWriteFailures    int `json:"log_write_failures"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs        int64   `json:"poll_ms"`
	ThresholdCM   float64 `json:"threshold_cm"`
	HoldMs        int64   `json:"hold_ms"`
	WindowMs      int64   `json:"window_ms"`
	EchoTimeoutMs int64   `json:"echo_timeout_ms"`
	HeartbeatMs   int64   `json:"heartbeat_ms"`
	Broker        string  `json:"broker,omitempty"`
	HTTPAddr      string  `json:"http_addr,omitempty"`
	CSVPath       string  `json:"csv_path"`
	DBPath        string  `json:"db_path,omitempty"`
}

func buildInner(snap Snapshot) StatusInner {
	state := string(snap.State)
	if state == "" {
		state = "UNKNOWN"
	}

	inner := StatusInner{
		State:          state,
		UptimeSeconds:  int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:      snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:      snap.Now.UTC().Format(time.RFC3339),
		LastDistanceCM: snap.LastDistanceCM,
		TotalPeople:    snap.TotalPeople,
		Window: WindowJSON{
			Index:     snap.Window.Index,
			StartTime: snap.Window.StartTime.UTC().Format(time.RFC3339),
			Count:     snap.Window.Count,
		},
		Counts: CountsJSON{
			Entries: snap.Counts.Entries,
			Exits:   snap.Counts.Exits,
		},
		Diagnostics: DiagnosticsJSON(snap.Diagnostics),
		MQTT:        MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Config: ConfigJSON{
			PollMs:        snap.Config.PollMs,
			ThresholdCM:   snap.Config.ThresholdCM,
			HoldMs:        snap.Config.HoldMs,
			WindowMs:      snap.Config.WindowMs,
			EchoTimeoutMs: snap.Config.EchoTimeoutMs,
			HeartbeatMs:   snap.Config.HeartbeatMs,
			Broker:        snap.Config.Broker,
			HTTPAddr:      snap.Config.HTTPAddr,
			CSVPath:       snap.Config.CSVPath,
			DBPath:        snap.Config.DBPath,
		},
	}
	if !snap.LastSampleAt.IsZero() {
		inner.LastSampleAt = snap.LastSampleAt.UTC().Format(time.RFC3339)
	}
	return inner
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
