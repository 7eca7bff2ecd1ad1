package store

import (
	"context"
	"sync"

	"github.com/kochabx/authguard/session"
)

// MemoryStore is the canonical single-process store: RWMutex-guarded maps
// for the three namespaces. Sessions are cloned on the way in and out so
// callers can mutate their copy freely.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*session.Session
	byToken  map[string]string              // token hash -> session id
	byUser   map[string]map[string]struct{} // user id -> set of session ids
}

// NewMemoryStore creates an in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*session.Session),
		byToken:  make(map[string]string),
		byUser:   make(map[string]map[string]struct{}),
	}
}

// SaveSession upserts a session and its user index entry.
func (m *MemoryStore) SaveSession(ctx context.Context, s *session.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[s.ID] = s.Clone()

	set, ok := m.byUser[s.UserID]
	if !ok {
		set = make(map[string]struct{})
		m.byUser[s.UserID] = set
	}
	set[s.ID] = struct{}{}
	return nil
}

// GetSession returns a clone of the stored session.
func (m *MemoryStore) GetSession(ctx context.Context, sessionID string) (*session.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, session.ErrNotFound
	}
	return s.Clone(), nil
}

// DeleteSession removes a session and all index entries pointing at it.
func (m *MemoryStore) DeleteSession(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return session.ErrNotFound
	}

	for _, hash := range s.TokenHashes() {
		delete(m.byToken, hash)
	}

	if set, ok := m.byUser[s.UserID]; ok {
		delete(set, sessionID)
		if len(set) == 0 {
			delete(m.byUser, s.UserID)
		}
	}

	delete(m.sessions, sessionID)
	return nil
}

// IndexToken points a token hash at a session.
func (m *MemoryStore) IndexToken(ctx context.Context, tokenHash, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byToken[tokenHash] = sessionID
	return nil
}

// UnindexToken removes a token hash from the reverse index.
func (m *MemoryStore) UnindexToken(ctx context.Context, tokenHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byToken, tokenHash)
	return nil
}

// SessionIDForToken resolves a token hash to its session id.
func (m *MemoryStore) SessionIDForToken(ctx context.Context, tokenHash string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byToken[tokenHash]
	if !ok {
		return "", session.ErrTokenNotFound
	}
	return id, nil
}

// SessionIDsForUser lists session ids owned by a user.
func (m *MemoryStore) SessionIDsForUser(ctx context.Context, userID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	set, ok := m.byUser[userID]
	if !ok {
		return nil, nil
	}

	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids, nil
}

// ListSessionIDs lists all live session ids.
func (m *MemoryStore) ListSessionIDs(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	return ids, nil
}

var _ session.Store = (*MemoryStore)(nil)
