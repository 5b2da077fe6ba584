package logic

import (
	"fmt"
	"time"
)

// Aggregator batches detection counts into fixed-duration windows and
// appends one LogRecord per non-empty window to a Sink.
type Aggregator struct {
	sink     Sink
	duration time.Duration
	window   AggregationWindow
	total    int
}

// NewAggregator starts the first window at startTime with index 0.
func NewAggregator(sink Sink, duration time.Duration, startTime time.Time) *Aggregator {
	return &Aggregator{
		sink:     sink,
		duration: duration,
		window:   AggregationWindow{StartTime: startTime},
	}
}

// OnTick adds events to the current window and flushes it once the window
// duration has elapsed.
//
// A record is produced only when the window held at least one detection; the
// index advances only then. The window rolls over on every flush, even when
// the sink fails, in which case the record is returned alongside an error
// wrapping ErrLogWriteFailed.
func (a *Aggregator) OnTick(now time.Time, events int) (*LogRecord, error) {
	a.window.Count += events

	elapsed := now.Sub(a.window.StartTime)
	if elapsed < a.duration {
		return nil, nil
	}

	var (
		record *LogRecord
		err    error
	)
	next := a.window.Index
	if a.window.Count > 0 {
		record = &LogRecord{
			Index:     a.window.Index,
			WallClock: now,
			ElapsedMs: elapsed.Milliseconds(),
			Count:     a.window.Count,
		}
		a.total += a.window.Count
		if werr := a.sink.Append(*record); werr != nil {
			err = fmt.Errorf("%w: record %d: %w", ErrLogWriteFailed, record.Index, werr)
		}
		next++
	}

	a.window = AggregationWindow{Index: next, StartTime: now}
	return record, err
}

// Window returns a copy of the active window.
func (a *Aggregator) Window() AggregationWindow {
	return a.window
}

// Total returns the number of detections across all flushed windows.
func (a *Aggregator) Total() int {
	return a.total
}
