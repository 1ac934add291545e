package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"basegraph.app/intake/internal/model"
)

// MemorySessionStore keeps sessions for the lifetime of the process.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*model.Session
	now      func() time.Time
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]*model.Session),
		now:      time.Now,
	}
}

func (s *MemorySessionStore) GetOrCreate(ctx context.Context, id string) (*model.Session, error) {
	session, err := s.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return model.NewSession(id, s.now().UTC()), nil
	}
	return session, err
}

func (s *MemorySessionStore) Get(_ context.Context, id string) (*model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copySession(session), nil
}

func (s *MemorySessionStore) Save(_ context.Context, session *model.Session) error {
	stored := copySession(session)
	stored.UpdatedAt = s.now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = stored
	return nil
}

func (s *MemorySessionStore) Evict(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.sessions[id]
	delete(s.sessions, id)
	return ok, nil
}

// Len returns the number of live sessions.
func (s *MemorySessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// copySession detaches the stored value from callers so a caller mutating its
// session cannot change the store without calling Save.
func copySession(in *model.Session) *model.Session {
	out := *in
	out.Record = in.Record.Clone()
	out.History = append([]model.Turn(nil), in.History...)
	if out.History == nil {
		out.History = []model.Turn{}
	}
	return &out
}
