package sink

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/sweeney/door-counter/internal/logic"
	_ "modernc.org/sqlite"
)

// SQLiteSink mirrors log records into a SQLite table.
type SQLiteSink struct {
	db *sql.DB
}

// NewSQLiteSink opens (or creates) the database at path.
func NewSQLiteSink(path string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS people_log (
			log_index         BIGINT PRIMARY KEY,
			date_time         TEXT,
			elapsed_ms        BIGINT,
			people_detected   BIGINT,
			recorded_at_unix  BIGINT
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteSink{db: db}, nil
}

// Reset removes every row. The schema is fixed, so header is unused.
func (s *SQLiteSink) Reset(header []string) error {
	if _, err := s.db.Exec(`DELETE FROM people_log`); err != nil {
		return fmt.Errorf("clear people_log: %w", err)
	}
	return nil
}

// Append inserts one record.
func (s *SQLiteSink) Append(record logic.LogRecord) error {
	_, err := s.db.Exec(
		`INSERT INTO people_log (log_index, date_time, elapsed_ms, people_detected, recorded_at_unix) VALUES (?, ?, ?, ?, ?)`,
		record.Index,
		record.WallClock.Format(DateTimeLayout),
		record.ElapsedMs,
		record.Count,
		record.WallClock.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert record %d: %w", record.Index, err)
	}
	return nil
}

// Records returns all stored records ordered by index.
func (s *SQLiteSink) Records() ([]logic.LogRecord, error) {
	rows, err := s.db.Query(`SELECT log_index, elapsed_ms, people_detected, recorded_at_unix FROM people_log ORDER BY log_index`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []logic.LogRecord
	for rows.Next() {
		var r logic.LogRecord
		var unix int64
		if err := rows.Scan(&r.Index, &r.ElapsedMs, &r.Count, &unix); err != nil {
			return nil, err
		}
		r.WallClock = time.Unix(unix, 0)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
