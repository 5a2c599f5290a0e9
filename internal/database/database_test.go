package database

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func ptr(s string) *string { return &s }

func TestOpenInDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	db, err := OpenInDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer db.Close()
	if db.Path() != filepath.Join(dir, FileName) {
		t.Errorf("unexpected path %q", db.Path())
	}
}

func TestRecordRun(t *testing.T) {
	db := openTestDB(t)
	id, err := db.RecordRun(Run{
		URL:         "https://x.com/jack/status/20",
		PostID:      ptr("20"),
		Outcome:     OutcomeOK,
		DurationMS:  840,
		RequestedAt: time.Date(2026, 2, 6, 10, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == 0 {
		t.Error("expected non-zero run ID")
	}
}

func TestRecordRunRejectsUnknownOutcome(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.RecordRun(Run{URL: "u", Outcome: "maybe"}); err == nil {
		t.Error("expected error for unknown outcome")
	}
}

func TestRecentRunsOrderAndLimit(t *testing.T) {
	db := openTestDB(t)
	base := time.Date(2026, 2, 6, 10, 0, 0, 0, time.UTC)
	db.RecordRun(Run{URL: "first", Outcome: OutcomeOK, RequestedAt: base})
	db.RecordRun(Run{URL: "second", Outcome: OutcomeError, Error: ptr("Analysis failed: boom"), RequestedAt: base.Add(time.Minute)})
	db.RecordRun(Run{URL: "third", Outcome: OutcomeInvalid, RequestedAt: base.Add(2 * time.Minute)})

	runs, err := db.RecentRuns(2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].URL != "third" || runs[1].URL != "second" {
		t.Errorf("expected newest first, got %q then %q", runs[0].URL, runs[1].URL)
	}
	if runs[1].Error == nil || *runs[1].Error != "Analysis failed: boom" {
		t.Errorf("expected stored error message, got %v", runs[1].Error)
	}
	if !runs[0].RequestedAt.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("expected requested_at round-trip, got %s", runs[0].RequestedAt)
	}
	if runs[0].PostID != nil {
		t.Errorf("expected nil post id, got %q", *runs[0].PostID)
	}
}

func TestRecentRunsEmpty(t *testing.T) {
	db := openTestDB(t)
	runs, err := db.RecentRuns(10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}

func TestRecordExportRoundTrip(t *testing.T) {
	db := openTestDB(t)
	at := time.Date(2026, 2, 6, 11, 30, 0, 0, time.UTC)
	if _, err := db.RecordExport(Export{PostID: "20", Path: "20-20260206-1130.txt", ExportedAt: at}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	exports, err := db.RecentExports(5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(exports) != 1 {
		t.Fatalf("expected 1 export, got %d", len(exports))
	}
	if exports[0].Path != "20-20260206-1130.txt" {
		t.Errorf("unexpected path %q", exports[0].Path)
	}
	if !exports[0].ExportedAt.Equal(at) {
		t.Errorf("expected %s, got %s", at, exports[0].ExportedAt)
	}
}

func TestGetStats(t *testing.T) {
	db := openTestDB(t)
	base := time.Date(2026, 2, 6, 10, 0, 0, 0, time.UTC)
	db.RecordRun(Run{URL: "a", Outcome: OutcomeOK, RequestedAt: base})
	db.RecordRun(Run{URL: "b", Outcome: OutcomeOK, RequestedAt: base.Add(time.Minute)})
	db.RecordRun(Run{URL: "c", Outcome: OutcomeError, RequestedAt: base.Add(2 * time.Minute)})
	db.RecordRun(Run{URL: "d", Outcome: OutcomeCanceled, RequestedAt: base.Add(3 * time.Minute)})
	db.RecordExport(Export{PostID: "1", Path: "1.txt"})

	stats, err := db.GetStats()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TotalRuns != 4 {
		t.Errorf("expected 4 runs, got %d", stats.TotalRuns)
	}
	if stats.Succeeded != 2 || stats.Failed != 1 || stats.Canceled != 1 || stats.Invalid != 0 {
		t.Errorf("unexpected breakdown: %+v", stats)
	}
	if stats.Exports != 1 {
		t.Errorf("expected 1 export, got %d", stats.Exports)
	}
	if stats.LastRunAt == nil || !stats.LastRunAt.Equal(base.Add(3*time.Minute)) {
		t.Errorf("unexpected last run %v", stats.LastRunAt)
	}
}

func TestGetStatsEmpty(t *testing.T) {
	db := openTestDB(t)
	stats, err := db.GetStats()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TotalRuns != 0 || stats.LastRunAt != nil {
		t.Errorf("expected empty stats, got %+v", stats)
	}
}
