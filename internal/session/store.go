package session

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCapacity bounds the number of live views kept by a Store.
const DefaultCapacity = 256

// Store tracks live views by id. When full, the least recently used view is
// closed and dropped.
type Store struct {
	views *lru.Cache[string, *State]
}

// NewStore creates a store holding at most capacity views.
func NewStore(capacity int) (*Store, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	views, err := lru.NewWithEvict[string, *State](capacity, func(id string, s *State) {
		slog.Debug("view closed", "session", id)
		s.Close()
	})
	if err != nil {
		return nil, fmt.Errorf("creating session store: %w", err)
	}
	return &Store{views: views}, nil
}

// Create opens a new view and returns its id.
func (st *Store) Create() (string, *State) {
	id := uuid.NewString()
	s := NewState()
	st.views.Add(id, s)
	return id, s
}

// Get returns the view for id, if it is still live.
func (st *Store) Get(id string) (*State, bool) {
	if id == "" {
		return nil, false
	}
	return st.views.Get(id)
}

// Destroy closes and removes the view for id.
func (st *Store) Destroy(id string) {
	st.views.Remove(id)
}

// Len returns the number of live views.
func (st *Store) Len() int {
	return st.views.Len()
}
