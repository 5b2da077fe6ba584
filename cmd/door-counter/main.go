// Command door-counter counts people passing a doorway with an ultrasonic
// sensor and logs the count every aggregation window.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/door-counter/internal/gpio"
	"github.com/sweeney/door-counter/internal/logic"
	"github.com/sweeney/door-counter/internal/mqtt"
	"github.com/sweeney/door-counter/internal/ranging"
	"github.com/sweeney/door-counter/internal/sink"
	"github.com/sweeney/door-counter/internal/status"
	"github.com/sweeney/door-counter/internal/web"
)

type options struct {
	poll          time.Duration
	threshold     float64
	hold          time.Duration
	window        time.Duration
	echoTimeout   time.Duration
	heartbeat     time.Duration
	pinTrigger    int
	pinEcho       int
	csvPath       string
	dbPath        string
	broker        string
	httpAddr      string
	printDistance bool
	verbose       bool
}

func main() {
	var o options
	flag.DurationVar(&o.poll, "poll", 50*time.Millisecond, "Sensor polling interval")
	flag.Float64Var(&o.threshold, "threshold", 100, "Distance in cm below which someone is in the doorway")
	flag.DurationVar(&o.hold, "hold", 700*time.Millisecond, "How long the doorway must read clear before a new person can be counted")
	flag.DurationVar(&o.window, "window", 30*time.Minute, "Aggregation window written as one log row")
	flag.DurationVar(&o.echoTimeout, "echo-timeout", ranging.DefaultEchoTimeout, "Maximum wait for each edge of the echo pulse")
	flag.DurationVar(&o.heartbeat, "heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	flag.IntVar(&o.pinTrigger, "pin-trigger", gpio.DefaultPinTrigger, "BCM pin number for the sensor trigger")
	flag.IntVar(&o.pinEcho, "pin-echo", gpio.DefaultPinEcho, "BCM pin number for the sensor echo")
	flag.StringVar(&o.csvPath, "csv", "people_log.csv", "CSV log file (truncated at startup)")
	flag.StringVar(&o.dbPath, "db", "", "SQLite database mirroring the CSV log (empty to disable)")
	flag.StringVar(&o.broker, "broker", "", "MQTT broker address, e.g. tcp://192.168.1.200:1883 (empty to disable)")
	flag.StringVar(&o.httpAddr, "http", ":80", "HTTP status address (empty to disable)")
	flag.BoolVar(&o.printDistance, "print-distance", false, "Print one distance measurement and exit")
	flag.BoolVar(&o.verbose, "verbose", false, "Log every distance sample")

	flag.Parse()

	if err := run(o); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// validate rejects settings the scheduler cannot run with.
func (o options) validate() error {
	switch {
	case o.poll <= 0:
		return fmt.Errorf("-poll must be positive, got %v", o.poll)
	case o.window <= 0:
		return fmt.Errorf("-window must be positive, got %v", o.window)
	case o.echoTimeout <= 0:
		return fmt.Errorf("-echo-timeout must be positive, got %v", o.echoTimeout)
	case o.hold < 0:
		return fmt.Errorf("-hold must not be negative, got %v", o.hold)
	case o.threshold <= 0:
		return fmt.Errorf("-threshold must be positive, got %v", o.threshold)
	case o.heartbeat < 0:
		return fmt.Errorf("-heartbeat must not be negative, got %v", o.heartbeat)
	}
	return nil
}

func run(o options) error {
	if err := o.validate(); err != nil {
		return err
	}

	// Initialize GPIO
	pins, err := gpio.NewRealPins(o.pinTrigger, o.pinEcho)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer func() {
		if err := pins.Close(); err != nil {
			log.Printf("gpio close: %v", err)
		}
	}()

	driver := ranging.NewDriver(pins, ranging.WithTimeout(o.echoTimeout))

	// Print distance mode
	if o.printDistance {
		return printDistance(driver, os.Stdout)
	}

	// Initialize sinks
	var logSink logic.Sink = sink.NewCSVSink(o.csvPath)
	if o.dbPath != "" {
		db, err := sink.NewSQLiteSink(o.dbPath)
		if err != nil {
			return fmt.Errorf("init sqlite: %w", err)
		}
		defer db.Close()
		logSink = sink.Tee(logSink, db)
	}
	if err := logSink.Reset(logic.Header); err != nil {
		return fmt.Errorf("init log: %w", err)
	}

	// Initialize MQTT
	var publisher mqtt.Publisher = mqtt.NopPublisher{}
	var mqttStatus mqtt.ConnectionStatus
	if o.broker != "" {
		p := mqtt.NewRealPublisher(o.broker)
		defer p.Close()
		publisher, mqttStatus = p, p
	}

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:        o.poll.Milliseconds(),
		ThresholdCM:   o.threshold,
		HoldMs:        o.hold.Milliseconds(),
		WindowMs:      o.window.Milliseconds(),
		EchoTimeoutMs: o.echoTimeout.Milliseconds(),
		HeartbeatMs:   o.heartbeat.Milliseconds(),
		Broker:        o.broker,
		HTTPAddr:      o.httpAddr,
		CSVPath:       o.csvPath,
		DBPath:        o.dbPath,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	}

	// Start HTTP status server
	if o.httpAddr != "" {
		srv := web.New(o.httpAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", o.httpAddr)
	}

	log.Printf("started: poll=%v threshold=%.0fcm hold=%v window=%v csv=%s", o.poll, o.threshold, o.hold, o.window, o.csvPath)

	ticker := time.NewTicker(o.poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	cfg := loopConfig{
		threshold: o.threshold,
		hold:      o.hold,
		window:    o.window,
		heartbeat: o.heartbeat,
		verbose:   o.verbose,
	}
	return runLoop(driver, logSink, publisher, mqttStatus, tracker, cfg, time.Now, ticker.C, sigCh)
}

// Measurer takes a single distance reading.
type Measurer interface {
	Measure() (float64, error)
}

func printDistance(m Measurer, w io.Writer) error {
	dist, err := m.Measure()
	if err != nil {
		return fmt.Errorf("measure: %w", err)
	}
	_, err = fmt.Fprintf(w, "Measured Distance = %.1f cm\n", dist)
	return err
}

// Sampler produces timestamped distance readings.
type Sampler interface {
	Sample() (logic.Sample, error)
}

type loopConfig struct {
	threshold float64
	hold      time.Duration
	window    time.Duration
	heartbeat time.Duration
	verbose   bool
}

// timeoutLogEvery controls how often a continuing timeout streak is logged.
const timeoutLogEvery = 100

func runLoop(sensor Sampler, logSink logic.Sink, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, cfg loopConfig, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	startTime := now()
	detector := logic.NewDetector(cfg.threshold, cfg.hold, startTime)
	aggregator := logic.NewAggregator(logSink, cfg.window, startTime)

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			if w := aggregator.Window(); w.Count > 0 {
				log.Printf("discarding unfinished window %d with %d detections", w.Index, w.Count)
			}
			if mqttStatus != nil {
				tracker.SetMQTTConnected(mqttStatus.IsConnected())
			}
			snap := tracker.Snapshot()
			event := mqtt.SystemEvent{
				Timestamp:  now(),
				Event:      "SHUTDOWN",
				Reason:     signalName,
				Retained:   true,
				RawPayload: status.FormatStatusEvent(snap, "SHUTDOWN", signalName),
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			}
			return nil

		case <-tick:
			events := 0
			sample, err := sensor.Sample()
			t := sample.Timestamp
			if err != nil {
				t = now()
				if errors.Is(err, ranging.ErrSensorTimeout) {
					if streak := tracker.RecordTimeout(); streak == 1 || streak%timeoutLogEvery == 0 {
						log.Printf("sensor timeout (%d consecutive): %v", streak, err)
					}
				} else {
					tracker.RecordSensorError()
					log.Printf("sensor error: %v", err)
				}
			} else {
				tracker.RecordSample(sample)
				if cfg.verbose {
					log.Printf("measured distance = %.1f cm", sample.DistanceCM)
				}
				if event := detector.OnSample(sample); event != nil {
					events++
					log.Printf("person detected at %.1f cm", event.DistanceCM)
					if err := publisher.Publish(*event); err != nil {
						log.Printf("publish error: %v", err)
						// Don't crash on publish failure
					}
				}
			}

			record, err := aggregator.OnTick(t, events)
			if record != nil {
				handleRecord(*record, err, aggregator.Total(), publisher, tracker)
			}

			// Check for heartbeat
			if hbData := detector.CheckHeartbeat(t, cfg.heartbeat); hbData != nil {
				log.Printf("heartbeat: uptime=%v entries=%d exits=%d",
					hbData.Uptime, hbData.Counts.Entries, hbData.Counts.Exits)

				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				// Refresh network info for heartbeat
				if net := readNetworkInfo(); net != nil {
					tracker.SetNetwork(net)
				}
				tracker.Update(detector.CurrentState(), detector.EventCountsSnapshot(), aggregator.Window(), aggregator.Total())
				hbEvent := mqtt.SystemEvent{
					Timestamp:  hbData.Timestamp,
					Event:      "HEARTBEAT",
					RawPayload: status.FormatStatusEvent(tracker.Snapshot(), "HEARTBEAT", ""),
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}

			// Update status tracker for HTTP consumers
			tracker.Update(detector.CurrentState(), detector.EventCountsSnapshot(), aggregator.Window(), aggregator.Total())
			if mqttStatus != nil {
				tracker.SetMQTTConnected(mqttStatus.IsConnected())
			}
		}
	}
}

// handleRecord reports a flushed window. A sink failure is logged and
// announced over MQTT; the loop carries on either way.
func handleRecord(record logic.LogRecord, writeErr error, total int, publisher mqtt.Publisher, tracker *status.Tracker) {
	if writeErr != nil {
		tracker.RecordWrite(false)
		log.Printf("log write failed, window %d with %d people lost: %v", record.Index, record.Count, writeErr)
		alert := mqtt.SystemEvent{
			Timestamp: record.WallClock,
			Event:     "LOG_WRITE_FAILED",
			Reason:    writeErr.Error(),
		}
		if err := publisher.PublishSystem(alert); err != nil {
			log.Printf("failed to publish log failure: %v", err)
		}
	} else {
		tracker.RecordWrite(true)
		log.Printf("logged window %d: %d people in %dms (people count: %d)", record.Index, record.Count, record.ElapsedMs, total)
	}

	if err := publisher.PublishRecord(record); err != nil {
		log.Printf("record publish error: %v", err)
	}
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
