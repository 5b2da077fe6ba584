package sink

import "github.com/sweeney/door-counter/internal/logic"

// FakeSink records calls for test assertions.
type FakeSink struct {
	// Headers contains every header passed to Reset.
	Headers [][]string

	// Records contains all appended records since the last Reset.
	Records []logic.LogRecord

	// ResetError, if set, will be returned by Reset.
	ResetError error

	// AppendError, if set, will be returned by Append.
	AppendError error
}

// NewFakeSink creates a FakeSink for testing.
func NewFakeSink() *FakeSink {
	return &FakeSink{}
}

// Reset records the header and clears records.
func (f *FakeSink) Reset(header []string) error {
	if f.ResetError != nil {
		return f.ResetError
	}
	f.Headers = append(f.Headers, header)
	f.Records = nil
	return nil
}

// Append records the log record.
func (f *FakeSink) Append(record logic.LogRecord) error {
	if f.AppendError != nil {
		return f.AppendError
	}
	f.Records = append(f.Records, record)
	return nil
}
