package session

import (
	"context"
	"sync"
)

// InMemoryStore keeps conversation history in process memory. Suitable
// for the CLI and for tests.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]Turn
}

var _ Store = (*InMemoryStore)(nil)

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string][]Turn)}
}

// Append adds a turn to the session's history.
func (s *InMemoryStore) Append(ctx context.Context, sessionID string, turn Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = append(s.sessions[sessionID], turn)
	return nil
}

// History returns the session's turns in insertion order.
func (s *InMemoryStore) History(ctx context.Context, sessionID string) ([]Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	turns := s.sessions[sessionID]
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out, nil
}

// Clear removes the session's history.
func (s *InMemoryStore) Clear(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}
