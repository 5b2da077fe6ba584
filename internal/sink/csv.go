package sink

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/sweeney/door-counter/internal/logic"
)

// CSVSink appends records to a comma-separated log file.
// Each Append opens, writes and closes the file so every row is on disk
// before the next sample is taken.
type CSVSink struct {
	path string
}

// NewCSVSink returns a sink writing to path. Nothing is touched until Reset.
func NewCSVSink(path string) *CSVSink {
	return &CSVSink{path: path}
}

// Reset truncates the file and writes the header row.
func (s *CSVSink) Reset(header []string) error {
	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("create %s: %w", s.path, err)
	}
	if err := writeRow(f, header); err != nil {
		f.Close()
		return fmt.Errorf("write header: %w", err)
	}
	return f.Close()
}

// Append writes one record as a row.
func (s *CSVSink) Append(record logic.LogRecord) error {
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", s.path, err)
	}
	if err := writeRow(f, FormatRow(record)); err != nil {
		f.Close()
		return fmt.Errorf("write record %d: %w", record.Index, err)
	}
	return f.Close()
}

// FormatRow renders a record as CSV fields in header order.
func FormatRow(r logic.LogRecord) []string {
	return []string{
		strconv.Itoa(r.Index),
		r.WallClock.Format(DateTimeLayout),
		strconv.FormatInt(r.ElapsedMs, 10),
		strconv.Itoa(r.Count),
	}
}

// ParseRow is the inverse of FormatRow. The date is read in loc.
func ParseRow(row []string, loc *time.Location) (logic.LogRecord, error) {
	if len(row) != len(logic.Header) {
		return logic.LogRecord{}, fmt.Errorf("expected %d fields, got %d", len(logic.Header), len(row))
	}
	index, err := strconv.Atoi(row[0])
	if err != nil {
		return logic.LogRecord{}, fmt.Errorf("parse index: %w", err)
	}
	wall, err := time.ParseInLocation(DateTimeLayout, row[1], loc)
	if err != nil {
		return logic.LogRecord{}, fmt.Errorf("parse date: %w", err)
	}
	elapsed, err := strconv.ParseInt(row[2], 10, 64)
	if err != nil {
		return logic.LogRecord{}, fmt.Errorf("parse elapsed: %w", err)
	}
	count, err := strconv.Atoi(row[3])
	if err != nil {
		return logic.LogRecord{}, fmt.Errorf("parse count: %w", err)
	}
	return logic.LogRecord{Index: index, WallClock: wall, ElapsedMs: elapsed, Count: count}, nil
}

// ReadCSV reads a log file written by CSVSink. The header row is checked and
// skipped; dates are interpreted in loc.
func ReadCSV(r io.Reader, loc *time.Location) ([]logic.LogRecord, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) != len(logic.Header) {
		return nil, fmt.Errorf("unexpected header %q", header)
	}
	for i, h := range logic.Header {
		if header[i] != h {
			return nil, fmt.Errorf("unexpected header %q", header)
		}
	}

	var records []logic.LogRecord
	for {
		row, err := cr.Read()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		rec, err := ParseRow(row, loc)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", len(records)+1, err)
		}
		records = append(records, rec)
	}
}

func writeRow(w io.Writer, row []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(row); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}
