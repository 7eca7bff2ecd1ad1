package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kochabx/authguard/session"
)

// RedisStore keeps the three namespaces as Redis keys: session JSON under
// a session key, token hash -> session id strings, and a set of session
// ids per user. Multi-key updates go through pipelines; TTLs bound every
// key so abandoned sessions age out without a sweep.
type RedisStore struct {
	client     redis.UniversalClient
	keyPrefix  string
	sessionTTL time.Duration
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithKeyPrefix overrides the key prefix.
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.keyPrefix = prefix
	}
}

// WithSessionTTL overrides the key TTL, normally the max session age.
func WithSessionTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
	}
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client redis.UniversalClient, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client:     client,
		keyPrefix:  "authguard",
		sessionTTL: 7 * 24 * time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) sessionKey(id string) string {
	return s.keyPrefix + ":session:" + id
}

func (s *RedisStore) tokenKey(hash string) string {
	return s.keyPrefix + ":token:" + hash
}

func (s *RedisStore) userKey(userID string) string {
	return s.keyPrefix + ":user:" + userID
}

// SaveSession upserts the session JSON and the user index entry.
func (s *RedisStore) SaveSession(ctx context.Context, sess *session.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.sessionKey(sess.ID), data, s.sessionTTL)
	pipe.SAdd(ctx, s.userKey(sess.UserID), sess.ID)
	pipe.Expire(ctx, s.userKey(sess.UserID), s.sessionTTL)
	_, err = pipe.Exec(ctx)
	return err
}

// GetSession returns the session for an id.
func (s *RedisStore) GetSession(ctx context.Context, sessionID string) (*session.Session, error) {
	data, err := s.client.Get(ctx, s.sessionKey(sessionID)).Bytes()
	if err == redis.Nil {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var sess session.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &sess, nil
}

// DeleteSession removes the session, its user index entry and its token
// index entries.
func (s *RedisStore) DeleteSession(ctx context.Context, sessionID string) error {
	sess, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	for _, hash := range sess.TokenHashes() {
		pipe.Del(ctx, s.tokenKey(hash))
	}
	pipe.SRem(ctx, s.userKey(sess.UserID), sessionID)
	pipe.Del(ctx, s.sessionKey(sessionID))
	_, err = pipe.Exec(ctx)
	return err
}

// IndexToken points a token hash at a session.
func (s *RedisStore) IndexToken(ctx context.Context, tokenHash, sessionID string) error {
	return s.client.Set(ctx, s.tokenKey(tokenHash), sessionID, s.sessionTTL).Err()
}

// UnindexToken removes a token hash from the reverse index.
func (s *RedisStore) UnindexToken(ctx context.Context, tokenHash string) error {
	return s.client.Del(ctx, s.tokenKey(tokenHash)).Err()
}

// SessionIDForToken resolves a token hash to its session id.
func (s *RedisStore) SessionIDForToken(ctx context.Context, tokenHash string) (string, error) {
	id, err := s.client.Get(ctx, s.tokenKey(tokenHash)).Result()
	if err == redis.Nil {
		return "", session.ErrTokenNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get token index: %w", err)
	}
	return id, nil
}

// SessionIDsForUser lists session ids owned by a user, pruning index
// entries whose session key already expired.
func (s *RedisStore) SessionIDsForUser(ctx context.Context, userID string) ([]string, error) {
	ids, err := s.client.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("get user sessions: %w", err)
	}

	live := make([]string, 0, len(ids))
	for _, id := range ids {
		exists, err := s.client.Exists(ctx, s.sessionKey(id)).Result()
		if err != nil {
			return nil, err
		}
		if exists == 0 {
			s.client.SRem(ctx, s.userKey(userID), id)
			continue
		}
		live = append(live, id)
	}
	return live, nil
}

// ListSessionIDs scans all live session ids.
func (s *RedisStore) ListSessionIDs(ctx context.Context) ([]string, error) {
	var (
		cursor uint64
		ids    []string
	)
	prefix := s.keyPrefix + ":session:"
	for {
		keys, next, err := s.client.Scan(ctx, cursor, prefix+"*", 1000).Result()
		if err != nil {
			return nil, err
		}
		for _, key := range keys {
			ids = append(ids, key[len(prefix):])
		}
		if next == 0 {
			return ids, nil
		}
		cursor = next
	}
}

var _ session.Store = (*RedisStore)(nil)
