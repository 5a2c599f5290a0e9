package database

import (
	"database/sql"
	"fmt"
	"time"
)

// timeLayout matches SQLite's datetime('now') so defaults and explicit
// timestamps sort together.
const timeLayout = "2006-01-02 15:04:05"

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.ParseInLocation(timeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return t
}

// RecordRun appends an analysis attempt and returns its ID.
func (db *DB) RecordRun(r Run) (int64, error) {
	if !r.Outcome.Valid() {
		return 0, fmt.Errorf("unknown outcome %q", r.Outcome)
	}
	result, err := db.conn.Exec(
		`INSERT INTO analysis_runs (url, post_id, outcome, error, duration_ms, requested_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.URL, r.PostID, string(r.Outcome), r.Error, r.DurationMS, formatTime(r.RequestedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("recording run: %w", err)
	}
	return result.LastInsertId()
}

// RecordExport appends a written report and returns its ID.
func (db *DB) RecordExport(e Export) (int64, error) {
	result, err := db.conn.Exec(
		`INSERT INTO exports (post_id, path, exported_at) VALUES (?, ?, ?)`,
		e.PostID, e.Path, formatTime(e.ExportedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("recording export: %w", err)
	}
	return result.LastInsertId()
}

// RecentRuns returns up to limit runs, newest first.
func (db *DB) RecentRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(
		`SELECT id, url, post_id, outcome, error, duration_ms, requested_at
		FROM analysis_runs ORDER BY requested_at DESC, id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var outcome, requestedAt string
		if err := rows.Scan(&r.ID, &r.URL, &r.PostID, &outcome, &r.Error, &r.DurationMS, &requestedAt); err != nil {
			return nil, err
		}
		r.Outcome = Outcome(outcome)
		r.RequestedAt = parseTime(requestedAt)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RecentExports returns up to limit exports, newest first.
func (db *DB) RecentExports(limit int) ([]Export, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(
		`SELECT id, post_id, path, exported_at
		FROM exports ORDER BY exported_at DESC, id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exports []Export
	for rows.Next() {
		var e Export
		var exportedAt string
		if err := rows.Scan(&e.ID, &e.PostID, &e.Path, &exportedAt); err != nil {
			return nil, err
		}
		e.ExportedAt = parseTime(exportedAt)
		exports = append(exports, e)
	}
	return exports, rows.Err()
}

// GetStats returns aggregate ledger statistics.
func (db *DB) GetStats() (*Stats, error) {
	var s Stats
	var succeeded, failed, canceled, invalid sql.NullInt64
	var last sql.NullString
	err := db.conn.QueryRow(
		`SELECT
			COUNT(*),
			SUM(CASE WHEN outcome = 'ok' THEN 1 ELSE 0 END),
			SUM(CASE WHEN outcome = 'error' THEN 1 ELSE 0 END),
			SUM(CASE WHEN outcome = 'canceled' THEN 1 ELSE 0 END),
			SUM(CASE WHEN outcome = 'invalid' THEN 1 ELSE 0 END),
			MAX(requested_at)
		FROM analysis_runs`,
	).Scan(&s.TotalRuns, &succeeded, &failed, &canceled, &invalid, &last)
	if err != nil {
		return nil, err
	}
	s.Succeeded = int(succeeded.Int64)
	s.Failed = int(failed.Int64)
	s.Canceled = int(canceled.Int64)
	s.Invalid = int(invalid.Int64)
	if last.Valid {
		t := parseTime(last.String)
		s.LastRunAt = &t
	}

	if err := db.conn.QueryRow("SELECT COUNT(*) FROM exports").Scan(&s.Exports); err != nil {
		return nil, err
	}
	return &s, nil
}
