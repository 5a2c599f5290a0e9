package analysis

import (
	"errors"
	"fmt"
)

// ErrCanceled is returned when the caller abandons a pending analysis.
// Callers treat it as a no-op rather than a failure.
var ErrCanceled = errors.New("analysis canceled")

const genericNetworkError = "network error"

// AnalysisError is a network failure or non-success response from the
// analysis endpoint.
type AnalysisError struct {
	StatusCode int // 0 for transport failures
	Message    string
	Err        error
}

func (e *AnalysisError) Error() string {
	return "Analysis failed: " + e.Message
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// MalformedResponseError reports a 2xx payload that does not match the
// expected result shape.
type MalformedResponseError struct {
	Problems []string
	Err      error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed analysis response: %v", e.Err)
	}
	switch len(e.Problems) {
	case 0:
		return "malformed analysis response"
	case 1:
		return "malformed analysis response: " + e.Problems[0]
	}
	return fmt.Sprintf("malformed analysis response: %s (and %d more)", e.Problems[0], len(e.Problems)-1)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}
