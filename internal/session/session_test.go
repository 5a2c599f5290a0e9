package session

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/TobiSchelling/tweelyzer/internal/analysis"
)

func TestStateLifecycle(t *testing.T) {
	s := NewState()
	ctx, token, err := s.Begin(context.Background(), "https://x.com/jack/status/20")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ctx.Err() != nil {
		t.Fatal("expected live request context")
	}
	if snap := s.Snapshot(); !snap.Loading {
		t.Error("expected loading after Begin")
	}

	result := &analysis.Result{ID: "20"}
	if !s.Complete(token, result) {
		t.Fatal("expected current request to complete")
	}

	snap := s.Snapshot()
	if snap.Loading {
		t.Error("expected loading cleared")
	}
	if snap.Result != result {
		t.Error("expected result stored")
	}
	if snap.URL != "https://x.com/jack/status/20" {
		t.Errorf("unexpected url %q", snap.URL)
	}
}

func TestStateSupersedesPendingRequest(t *testing.T) {
	s := NewState()
	oldCtx, oldToken, _ := s.Begin(context.Background(), "https://x.com/a/status/1")
	_, newToken, _ := s.Begin(context.Background(), "https://x.com/b/status/2")

	if !errors.Is(oldCtx.Err(), context.Canceled) {
		t.Error("expected superseded request to be canceled")
	}
	if s.Complete(oldToken, &analysis.Result{ID: "1"}) {
		t.Error("expected stale completion to be ignored")
	}
	if !s.Complete(newToken, &analysis.Result{ID: "2"}) {
		t.Fatal("expected current completion to be accepted")
	}
	if got := s.Snapshot().Result.ID; got != "2" {
		t.Errorf("expected result '2', got %q", got)
	}
}

func TestStateCancellationIsNoOp(t *testing.T) {
	s := NewState()
	_, token, _ := s.Begin(context.Background(), "u")
	s.Complete(token, &analysis.Result{ID: "kept"})

	_, token, _ = s.Begin(context.Background(), "u")
	s.Fail(token, fmt.Errorf("%w: %w", analysis.ErrCanceled, context.Canceled))

	snap := s.Snapshot()
	if snap.Err != nil {
		t.Errorf("expected no error for cancellation, got %v", snap.Err)
	}
	if snap.Loading {
		t.Error("expected loading cleared")
	}
	if snap.Result == nil || snap.Result.ID != "kept" {
		t.Error("expected previous result to be kept")
	}
}

func TestStateFailureRecorded(t *testing.T) {
	s := NewState()
	_, token, _ := s.Begin(context.Background(), "u")
	s.Fail(token, &analysis.AnalysisError{Message: "rate limited"})
	if s.Snapshot().Err == nil {
		t.Error("expected error to be recorded")
	}
}

func TestStateClose(t *testing.T) {
	s := NewState()
	ctx, token, _ := s.Begin(context.Background(), "u")
	s.Close()

	if ctx.Err() == nil {
		t.Error("expected in-flight request to be canceled on close")
	}
	if s.Complete(token, &analysis.Result{ID: "late"}) {
		t.Error("expected completion after close to be ignored")
	}
	if _, _, err := s.Begin(context.Background(), "u"); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestStoreCreateGetDestroy(t *testing.T) {
	st, err := NewStore(4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	id, s := st.Create()
	got, ok := st.Get(id)
	if !ok || got != s {
		t.Fatal("expected to find created view")
	}

	ctx, _, _ := s.Begin(context.Background(), "u")
	st.Destroy(id)
	if _, ok := st.Get(id); ok {
		t.Error("expected view to be gone after Destroy")
	}
	if ctx.Err() == nil {
		t.Error("expected destroyed view to cancel its request")
	}
	if _, ok := st.Get(""); ok {
		t.Error("expected empty id to miss")
	}
}

func TestStoreEvictsOldestView(t *testing.T) {
	st, _ := NewStore(2)
	first, s1 := st.Create()
	st.Create()
	st.Create()

	if st.Len() != 2 {
		t.Errorf("expected 2 views, got %d", st.Len())
	}
	if _, ok := st.Get(first); ok {
		t.Error("expected oldest view evicted")
	}
	if _, _, err := s1.Begin(context.Background(), "u"); !errors.Is(err, ErrClosed) {
		t.Errorf("expected evicted view closed, got %v", err)
	}
}
