package session

import (
	"context"
	"errors"
)

var (
	// ErrNotFound indicates an unknown or already removed session id.
	ErrNotFound = errors.New("session: not found")
	// ErrTokenNotFound indicates a token hash with no index entry.
	ErrTokenNotFound = errors.New("session: token not found")
)

// Store persists sessions and their reverse indexes: three key namespaces
// (session by id, session id by token hash, session ids by user) that must
// stay coherent. SaveSession and DeleteSession keep the user index in step
// with the session record; the token index is maintained explicitly
// because tokens rotate independently of the session. Implementations live
// in session/store: an RWMutex map store for a single process and a Redis
// store for horizontal scaling.
type Store interface {
	// SaveSession upserts a session and its user index entry.
	SaveSession(ctx context.Context, s *Session) error

	// GetSession returns the session for an id, or ErrNotFound.
	GetSession(ctx context.Context, sessionID string) (*Session, error)

	// DeleteSession removes a session, its user index entry and every
	// token index entry pointing at it.
	DeleteSession(ctx context.Context, sessionID string) error

	// IndexToken points a token hash at a session.
	IndexToken(ctx context.Context, tokenHash, sessionID string) error

	// UnindexToken removes a token hash from the reverse index.
	UnindexToken(ctx context.Context, tokenHash string) error

	// SessionIDForToken resolves a token hash, or ErrTokenNotFound.
	SessionIDForToken(ctx context.Context, tokenHash string) (string, error)

	// SessionIDsForUser lists session ids owned by a user.
	SessionIDsForUser(ctx context.Context, userID string) ([]string, error)

	// ListSessionIDs lists all live session ids, for sweeps and stats.
	ListSessionIDs(ctx context.Context) ([]string, error)
}
