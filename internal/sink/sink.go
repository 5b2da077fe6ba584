// Package sink persists aggregated people counts.
// CSVSink writes the canonical log file; SQLiteSink mirrors it into a
// database; Tee fans a record out to several sinks.
package sink

import (
	"errors"

	"github.com/sweeney/door-counter/internal/logic"
)

// DateTimeLayout is the "Date and Time" column format.
const DateTimeLayout = "2006-01-02 15:04:05"

// Tee returns a Sink that forwards every call to all sinks in order.
// Every sink is called even if an earlier one fails; errors are joined.
func Tee(sinks ...logic.Sink) logic.Sink {
	return tee(sinks)
}

type tee []logic.Sink

func (t tee) Reset(header []string) error {
	var errs []error
	for _, s := range t {
		if err := s.Reset(header); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t tee) Append(record logic.LogRecord) error {
	var errs []error
	for _, s := range t {
		if err := s.Append(record); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
