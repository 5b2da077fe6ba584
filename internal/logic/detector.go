package logic

import "time"

// Detector turns a stream of distance samples into debounced entry events.
type Detector struct {
	thresholdCM   float64
	holdTime      time.Duration
	state         DetectionState
	startTime     time.Time
	eventCounts   EventCounts
	lastHeartbeat time.Time
}

// NewDetector creates an idle detector.
// A sample closer than thresholdCM counts as presence; presence ends once no
// in-range sample has been seen for holdTime.
// The startTime is used for calculating uptime in heartbeat events.
func NewDetector(thresholdCM float64, holdTime time.Duration, startTime time.Time) *Detector {
	return &Detector{
		thresholdCM:   thresholdCM,
		holdTime:      holdTime,
		startTime:     startTime,
		lastHeartbeat: startTime,
	}
}

// OnSample advances the state machine by one sample.
// It returns an event only on the Idle to Occupied transition.
func (d *Detector) OnSample(s Sample) *DetectionEvent {
	inRange := s.DistanceCM < d.thresholdCM

	if !d.state.Occupied {
		if !inRange {
			return nil
		}
		d.state.Occupied = true
		d.state.WindowStart = s.Timestamp
		d.eventCounts.Entries++
		return &DetectionEvent{Timestamp: s.Timestamp, DistanceCM: s.DistanceCM}
	}

	if inRange {
		// Still present: re-arm the hold timer.
		d.state.WindowStart = s.Timestamp
		return nil
	}

	if s.Timestamp.Sub(d.state.WindowStart) >= d.holdTime {
		d.state.Occupied = false
		d.eventCounts.Exits++
	}
	return nil
}

// State returns a copy of the detection state.
func (d *Detector) State() DetectionState {
	return d.state
}

// CurrentState returns Idle or Occupied.
func (d *Detector) CurrentState() State {
	if d.state.Occupied {
		return StateOccupied
	}
	return StateIdle
}

// EventCountsSnapshot returns the activity counters since startup.
func (d *Detector) EventCountsSnapshot() EventCounts {
	return d.eventCounts
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if the interval has not elapsed,
// or if interval is <= 0 (disabled).
func (d *Detector) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	if now.Sub(d.lastHeartbeat) < interval {
		return nil
	}

	d.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(d.startTime),
		Counts:    d.eventCounts,
	}
}
