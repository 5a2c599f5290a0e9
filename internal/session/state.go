package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/TobiSchelling/tweelyzer/internal/analysis"
)

// ErrClosed is returned by Begin on a view that has been torn down.
var ErrClosed = errors.New("view closed")

// Snapshot is a point-in-time copy of a view's state.
type Snapshot struct {
	URL     string
	Result  *analysis.Result
	Loading bool
	Err     error
	Updated time.Time
}

// State holds the transient state of one analysis view: the current result,
// whether a request is in flight, and how to cancel it.
type State struct {
	mu      sync.Mutex
	url     string
	result  *analysis.Result
	loading bool
	err     error
	updated time.Time
	token   uint64
	cancel  context.CancelFunc
	closed  bool
}

// NewState creates an empty view state.
func NewState() *State {
	return &State{updated: time.Now()}
}

// Begin starts a new request for url. Any request already in flight for this
// view is canceled and its eventual completion is ignored. The returned
// context must be used for the request; the token identifies it.
func (s *State) Begin(ctx context.Context, url string) (context.Context, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, 0, ErrClosed
	}
	if s.cancel != nil {
		s.cancel()
	}
	reqCtx, cancel := context.WithCancel(ctx)
	s.token++
	s.cancel = cancel
	s.url = url
	s.loading = true
	s.err = nil
	s.updated = time.Now()
	return reqCtx, s.token, nil
}

// Complete stores the result of the request identified by token.
// It reports false if the request was superseded or the view closed.
func (s *State) Complete(token uint64, result *analysis.Result) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.current(token) {
		return false
	}
	s.finish()
	s.result = result
	s.err = nil
	return true
}

// Fail records the failure of the request identified by token. Cancellation
// is a no-op: the previous result stays in place.
func (s *State) Fail(token uint64, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.current(token) {
		return false
	}
	s.finish()
	if !errors.Is(err, analysis.ErrCanceled) {
		s.err = err
	}
	return true
}

// Snapshot returns a copy of the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		URL:     s.url,
		Result:  s.result,
		Loading: s.loading,
		Err:     s.err,
		Updated: s.updated,
	}
}

// Close cancels any in-flight request and discards the view's data.
func (s *State) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.closed = true
	s.loading = false
	s.result = nil
	s.err = nil
}

func (s *State) current(token uint64) bool {
	return !s.closed && token == s.token
}

func (s *State) finish() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.loading = false
	s.updated = time.Now()
}
