package database

import "time"

// Outcome classifies how an analysis request ended.
type Outcome string

const (
	OutcomeOK       Outcome = "ok"
	OutcomeError    Outcome = "error"
	OutcomeCanceled Outcome = "canceled"
	OutcomeInvalid  Outcome = "invalid"
)

// Valid reports whether o is one of the known outcomes.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeOK, OutcomeError, OutcomeCanceled, OutcomeInvalid:
		return true
	}
	return false
}

// Run is one recorded analysis attempt. Analysis payloads are never stored.
type Run struct {
	ID          int64
	URL         string
	PostID      *string
	Outcome     Outcome
	Error       *string
	DurationMS  int64
	RequestedAt time.Time
}

// Export records a report written to disk.
type Export struct {
	ID         int64
	PostID     string
	Path       string
	ExportedAt time.Time
}

// Stats contains aggregate ledger statistics.
type Stats struct {
	TotalRuns int
	Succeeded int
	Failed    int
	Canceled  int
	Invalid   int
	Exports   int
	LastRunAt *time.Time
}
