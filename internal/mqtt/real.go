package mqtt

import (
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/sweeney/door-counter/internal/logic"
)

// bufferCapacity bounds how many messages are held while disconnected.
const bufferCapacity = 256

// RealPublisher publishes to an actual MQTT broker.
// Messages published while the connection is down are buffered and replayed
// in order once the client reconnects.
type RealPublisher struct {
	client paho.Client

	mu        sync.Mutex
	buf       *ringBuffer
	connected bool
	everUp    bool
	session   int // bumped on every connect and connection loss
}

// NewRealPublisher creates a publisher for the given broker. Connection is
// retried in the background, so an unreachable broker does not block startup.
func NewRealPublisher(broker string) *RealPublisher {
	p := &RealPublisher{buf: newRingBuffer(bufferCapacity)}

	will, _ := FormatSystemPayload(SystemEvent{
		Timestamp: time.Now(),
		Event:     "SHUTDOWN",
		Reason:    "MQTT_DISCONNECT",
	})

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID("door-counter-" + uuid.NewString()[:8]).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetWill(TopicSystem, string(will), 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(p.onConnectionLost)

	p.client = paho.NewClient(opts)
	p.client.Connect() // completes asynchronously with ConnectRetry

	return p
}

// onConnect replays the backlog before marking the connection up. Publishes
// made while the replay runs keep going to the buffer, so the broker sees
// messages in the order they were published.
func (p *RealPublisher) onConnect(c paho.Client) {
	p.mu.Lock()
	reconnect := p.everUp
	p.everUp = true
	p.session++
	session := p.session
	if reconnect {
		payload, _ := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: "RECONNECTED"})
		p.buf.push(bufferedMsg{topic: TopicSystem, payload: payload, qos: 1})
	}
	p.mu.Unlock()

	if reconnect {
		log.Printf("mqtt: reconnected")
	} else {
		log.Printf("mqtt: connected")
	}

	for {
		p.mu.Lock()
		if p.session != session {
			// Lost again mid-replay; whatever is left waits for the next connect.
			p.mu.Unlock()
			return
		}
		pending := p.buf.drainAll()
		if len(pending) == 0 {
			p.connected = true
			p.mu.Unlock()
			return
		}
		p.mu.Unlock()

		log.Printf("mqtt: replaying %d buffered messages", len(pending))
		for _, m := range pending {
			if err := p.send(m.topic, m.qos, m.retained, m.payload); err != nil {
				log.Printf("mqtt: replay failed: %v", err)
			}
		}
	}
}

func (p *RealPublisher) onConnectionLost(c paho.Client, err error) {
	p.mu.Lock()
	p.connected = false
	p.session++
	p.mu.Unlock()
	log.Printf("mqtt: connection lost: %v", err)
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

// Publish sends a detection event to the MQTT broker.
func (p *RealPublisher) Publish(event logic.DetectionEvent) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	// QoS 0 (at-most-once), not retained
	return p.publish(Topic, 0, false, payload)
}

// PublishRecord sends a log record to the MQTT broker.
func (p *RealPublisher) PublishRecord(record logic.LogRecord) error {
	payload, err := FormatRecordPayload(record)
	if err != nil {
		return fmt.Errorf("format record payload: %w", err)
	}
	// QoS 1: a window is only reported once
	return p.publish(TopicRecords, 1, false, payload)
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return p.publish(TopicSystem, 1, event.Retained, payload)
}

func (p *RealPublisher) publish(topic string, qos byte, retained bool, payload []byte) error {
	p.mu.Lock()
	if !p.connected {
		p.buf.push(bufferedMsg{topic: topic, payload: payload, qos: qos, retained: retained})
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()
	return p.send(topic, qos, retained, payload)
}

func (p *RealPublisher) send(topic string, qos byte, retained bool, payload []byte) error {
	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish %s timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
