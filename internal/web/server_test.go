package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sweeney/door-counter/internal/logic"
	"github.com/sweeney/door-counter/internal/status"
)

func newTestServer(t *testing.T) (*httptest.Server, *status.Tracker) {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := status.Config{
		PollMs:      50,
		ThresholdCM: 100,
		HoldMs:      700,
		WindowMs:    1800000,
		HeartbeatMs: 900000,
		Broker:      "tcp://192.168.1.200:1883",
		HTTPAddr:    ":80",
		CSVPath:     "people_log.csv",
	}
	tr := status.NewTracker(start, cfg)
	srv := New(":0", tr)
	ts := httptest.NewServer(srv.httpServer.Handler)
	t.Cleanup(ts.Close)
	return ts, tr
}

func getStatus(t *testing.T, url string) status.StatusJSON {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}

	var sj status.StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	return sj
}

func TestJSONEndpoint(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.Update(logic.StateOccupied, logic.EventCounts{Entries: 5, Exits: 4}, logic.AggregationWindow{Index: 3, Count: 2}, 40)
	tr.SetMQTTConnected(true)

	sj := getStatus(t, ts.URL+"/index.json")

	if sj.Status.State != "OCCUPIED" {
		t.Errorf("State: got %q, want OCCUPIED", sj.Status.State)
	}
	if !sj.Status.MQTT.Connected {
		t.Error("expected MQTT.Connected=true")
	}
	if sj.Status.MQTT.Broker != "tcp://192.168.1.200:1883" {
		t.Errorf("MQTT.Broker: got %q, want tcp://192.168.1.200:1883", sj.Status.MQTT.Broker)
	}
	if sj.Status.Counts.Entries != 5 {
		t.Errorf("Counts.Entries: got %d, want 5", sj.Status.Counts.Entries)
	}
	if sj.Status.Window.Index != 3 || sj.Status.Window.Count != 2 {
		t.Errorf("Window: got %+v", sj.Status.Window)
	}
	if sj.Status.TotalPeople != 40 {
		t.Errorf("TotalPeople: got %d, want 40", sj.Status.TotalPeople)
	}
	if sj.Status.Config.PollMs != 50 {
		t.Errorf("Config.PollMs: got %d, want 50", sj.Status.Config.PollMs)
	}
	if sj.Status.Config.CSVPath != "people_log.csv" {
		t.Errorf("Config.CSVPath: got %q", sj.Status.Config.CSVPath)
	}
}

func TestRootServesJSON(t *testing.T) {
	ts, _ := newTestServer(t)

	sj := getStatus(t, ts.URL+"/")
	if sj.Status.State != "IDLE" {
		t.Errorf("State: got %q, want IDLE", sj.Status.State)
	}
}

func TestJSONNetworkInfo(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.SetNetwork(&status.NetworkInfo{
		Type:   "wifi",
		IP:     "192.168.1.42",
		Status: "connected",
		SSID:   "MyNet",
	})

	sj := getStatus(t, ts.URL+"/index.json")

	if sj.Status.Network == nil {
		t.Fatal("expected Network in JSON")
	}
	if sj.Status.Network.IP != "192.168.1.42" {
		t.Errorf("Network.IP: got %q, want 192.168.1.42", sj.Status.Network.IP)
	}
}

func TestNotFoundForUnknownPath(t *testing.T) {
	ts, _ := newTestServer(t)

	for _, path := range []string{"/nonexistent", "/index.html"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()

		if resp.StatusCode != 404 {
			t.Errorf("%s: got %d, want 404", path, resp.StatusCode)
		}
	}
}

func TestMethodNotAllowed(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/index.json", "application/json", nil)
	if err != nil {
		t.Fatalf("POST /index.json: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status: got %d, want 405", resp.StatusCode)
	}
}

func TestStateChangesReflectedInResponse(t *testing.T) {
	ts, tr := newTestServer(t)

	sj1 := getStatus(t, ts.URL+"/index.json")
	if sj1.Status.Diagnostics.SensorTimeouts != 0 {
		t.Error("expected no timeouts initially")
	}

	tr.RecordTimeout()
	tr.RecordTimeout()
	tr.RecordWrite(false)
	tr.SetMQTTConnected(true)

	sj2 := getStatus(t, ts.URL+"/index.json")
	if sj2.Status.Diagnostics.ConsecutiveTimeouts != 2 {
		t.Errorf("ConsecutiveTimeouts: got %d, want 2", sj2.Status.Diagnostics.ConsecutiveTimeouts)
	}
	if sj2.Status.Diagnostics.LogWriteFailures != 1 {
		t.Errorf("LogWriteFailures: got %d, want 1", sj2.Status.Diagnostics.LogWriteFailures)
	}
	if !sj2.Status.MQTT.Connected {
		t.Error("expected MQTT connected after update")
	}
}
