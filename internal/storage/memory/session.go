package memory

import (
	"context"
	"sync"

	"github.com/soni-790/storefront-api/internal/domain/auth"
)

var _ auth.Repository = (*SessionRepository)(nil)

// SessionRepository is an in-memory session store keyed by token hash.
type SessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]auth.Session
}

// NewSessionRepository returns an empty in-memory session repository.
func NewSessionRepository() *SessionRepository {
	return &SessionRepository{sessions: map[string]auth.Session{}}
}

// Put stores a session, replacing any existing one with the same hash.
func (r *SessionRepository) Put(s auth.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.TokenHash] = s
}

// FindByTokenHash looks up a session by its token hash.
func (r *SessionRepository) FindByTokenHash(_ context.Context, hash string) (*auth.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[hash]
	if !ok {
		return nil, auth.ErrSessionNotFound
	}
	return &s, nil
}
