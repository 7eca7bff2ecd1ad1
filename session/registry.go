package session

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kochabx/authguard/audit"
	"github.com/kochabx/authguard/revocation"
	"github.com/kochabx/authguard/token"
)

// Risk scoring weights. The score is monotonic and capped at 100.
const (
	baseRiskScore      = 10
	riskMissingUA      = 30
	riskShortUA        = 20
	riskBotUA          = 25
	riskUnresolvableIP = 15
	riskIPChange       = 20
	riskRapidRequests  = 5

	shortUserAgentLength = 20
	rapidRequestWindow   = time.Second
	highRiskThreshold    = 70
)

// Registry tracks sessions across their token rotations. All mutations go
// through one mutex so a racing refresh and invalidation cannot leave a
// dangling token entry: invalidation always wins and a rotation against an
// invalidated session fails closed.
type Registry struct {
	mu     sync.Mutex
	store  Store
	ledger revocation.Ledger
	sink   audit.Sink
	now    func() time.Time

	maxSessionAge  time.Duration
	accessTokenCap int
	ledgerTTL      time.Duration
	sweepBatchSize int
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithAuditSink sets the security-event sink.
func WithAuditSink(sink audit.Sink) RegistryOption {
	return func(r *Registry) {
		if sink != nil {
			r.sink = sink
		}
	}
}

// WithMaxSessionAge sets the age at which the sweep invalidates sessions.
func WithMaxSessionAge(age time.Duration) RegistryOption {
	return func(r *Registry) {
		if age > 0 {
			r.maxSessionAge = age
		}
	}
}

// WithAccessTokenRetention sets how many access-token hashes a session
// keeps before the oldest are pruned.
func WithAccessTokenRetention(n int) RegistryOption {
	return func(r *Registry) {
		if n > 0 {
			r.accessTokenCap = n
		}
	}
}

// WithLedgerTTL sets how long blacklisted hashes outlive their session,
// normally the refresh token lifetime.
func WithLedgerTTL(ttl time.Duration) RegistryOption {
	return func(r *Registry) {
		if ttl > 0 {
			r.ledgerTTL = ttl
		}
	}
}

// WithClock injects the time source for tests.
func WithClock(now func() time.Time) RegistryOption {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRegistry creates a session registry on top of a store and the
// revocation ledger.
func NewRegistry(store Store, ledger revocation.Ledger, opts ...RegistryOption) *Registry {
	r := &Registry{
		store:          store,
		ledger:         ledger,
		sink:           audit.NewNoopSink(),
		now:            time.Now,
		maxSessionAge:  7 * 24 * time.Hour,
		accessTokenCap: 3,
		ledgerTTL:      7 * 24 * time.Hour,
		sweepBatchSize: 50,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CreateSession opens a session for a successful login, derives the device
// fingerprint and computes the initial risk score.
func (r *Registry) CreateSession(ctx context.Context, userID string, reqCtx RequestContext) (*Session, error) {
	now := r.now()

	s := &Session{
		ID:     uuid.New().String(),
		UserID: userID,
		Device: Device{
			Fingerprint: reqCtx.Fingerprint(),
			Platform:    reqCtx.Platform(),
			Browser:     reqCtx.Browser(),
			UserAgent:   reqCtx.UserAgent,
		},
		IP:           reqCtx.IP,
		CreatedAt:    now,
		LastActivity: now,
		RiskScore:    baseRiskScore,
	}

	switch {
	case reqCtx.UserAgent == "":
		s.raiseRisk(riskMissingUA)
		s.addFlag(FlagMissingUserAgent)
	case len(reqCtx.UserAgent) < shortUserAgentLength:
		s.raiseRisk(riskShortUA)
		s.addFlag(FlagShortUserAgent)
	}
	if reqCtx.BotUserAgent() {
		s.raiseRisk(riskBotUA)
		s.addFlag(FlagBotUserAgent)
	}
	if !reqCtx.ResolvableIP() {
		s.raiseRisk(riskUnresolvableIP)
		s.addFlag(FlagUnresolvableIP)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.store.SaveSession(ctx, s); err != nil {
		return nil, err
	}

	r.sink.Record(audit.EventSessionCreated, audit.SeverityInfo, "session created", map[string]string{
		"session_id": s.ID,
		"user_id":    userID,
		"ip":         reqCtx.IP,
		"risk_score": strconv.Itoa(s.RiskScore),
	})

	return s.Clone(), nil
}

// TrackToken adds a token hash to the session's tracked set. Access-token
// hashes beyond the retention cap are pruned oldest first.
func (r *Registry) TrackToken(ctx context.Context, sessionID, tokenHash string, kind token.Kind) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.store.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}

	switch kind {
	case token.KindRefresh:
		s.RefreshTokenHashes = append(s.RefreshTokenHashes, tokenHash)
	default:
		s.AccessTokenHashes = append(s.AccessTokenHashes, tokenHash)
		for len(s.AccessTokenHashes) > r.accessTokenCap {
			pruned := s.AccessTokenHashes[0]
			s.AccessTokenHashes = s.AccessTokenHashes[1:]
			if err := r.store.UnindexToken(ctx, pruned); err != nil {
				return err
			}
		}
	}

	if err := r.store.IndexToken(ctx, tokenHash, sessionID); err != nil {
		return err
	}
	return r.store.SaveSession(ctx, s)
}

// RotateRefreshToken atomically replaces a consumed refresh token with its
// successor, blacklisting the old hash. Rotation is single-use: of two
// concurrent rotations of the same hash exactly one succeeds and the other
// fails with token.ErrRevokedToken.
func (r *Registry) RotateRefreshToken(ctx context.Context, sessionID, oldHash, newHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	revoked, err := r.ledger.Contains(ctx, oldHash)
	if err != nil {
		return err
	}
	if revoked {
		return token.ErrRevokedToken
	}

	s, err := r.store.GetSession(ctx, sessionID)
	if err != nil {
		// The session was invalidated underneath us; the rotation loses.
		if errors.Is(err, ErrNotFound) {
			return token.ErrRevokedToken
		}
		return err
	}

	if err := r.ledger.Add(ctx, oldHash, r.ledgerTTL); err != nil {
		return err
	}

	kept := s.RefreshTokenHashes[:0]
	for _, hash := range s.RefreshTokenHashes {
		if hash != oldHash {
			kept = append(kept, hash)
		}
	}
	s.RefreshTokenHashes = append(kept, newHash)
	s.LastActivity = r.now()

	if err := r.store.UnindexToken(ctx, oldHash); err != nil {
		return err
	}
	if err := r.store.IndexToken(ctx, newHash, sessionID); err != nil {
		return err
	}
	if err := r.store.SaveSession(ctx, s); err != nil {
		return err
	}

	r.sink.Record(audit.EventTokenRotated, audit.SeverityInfo, "refresh token rotated", map[string]string{
		"session_id": sessionID,
		"user_id":    s.UserID,
	})
	return nil
}

// SessionForToken resolves a token hash through the reverse index.
func (r *Registry) SessionForToken(ctx context.Context, tokenHash string) (*Session, error) {
	sessionID, err := r.store.SessionIDForToken(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return r.store.GetSession(ctx, sessionID)
}

// SessionsForUser lists the sessions owned by a user.
func (r *Registry) SessionsForUser(ctx context.Context, userID string) ([]*Session, error) {
	ids, err := r.store.SessionIDsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	sessions := make([]*Session, 0, len(ids))
	for _, id := range ids {
		s, err := r.store.GetSession(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}

// RecordActivity updates last-activity and applies the anomaly heuristics:
// an IP change raises IP_CHANGE, sub-second repeats raise RAPID_REQUESTS.
func (r *Registry) RecordActivity(ctx context.Context, sessionID string, reqCtx RequestContext) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.store.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}

	now := r.now()
	escalated := false

	if reqCtx.IP != "" && s.IP != "" && reqCtx.IP != s.IP {
		s.addFlag(FlagIPChange)
		s.raiseRisk(riskIPChange)
		s.IP = reqCtx.IP
		escalated = true
	}
	if now.Sub(s.LastActivity) < rapidRequestWindow {
		s.addFlag(FlagRapidRequests)
		s.raiseRisk(riskRapidRequests)
	}
	s.LastActivity = now

	if err := r.store.SaveSession(ctx, s); err != nil {
		return err
	}

	if escalated {
		r.sink.Record(audit.EventRiskEscalated, audit.SeverityWarning, "session risk escalated", map[string]string{
			"session_id": sessionID,
			"user_id":    s.UserID,
			"risk_score": strconv.Itoa(s.RiskScore),
		})
	}
	return nil
}

// InvalidateSession revokes every tracked token and removes the session.
// Invalidating an unknown or already invalidated session is a no-op
// returning false.
func (r *Registry) InvalidateSession(ctx context.Context, sessionID, reason string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.invalidateLocked(ctx, sessionID, reason)
}

// invalidateLocked does the work of InvalidateSession with the registry
// mutex held.
func (r *Registry) invalidateLocked(ctx context.Context, sessionID, reason string) bool {
	s, err := r.store.GetSession(ctx, sessionID)
	if err != nil {
		return false
	}

	for _, hash := range s.TokenHashes() {
		if err := r.ledger.Add(ctx, hash, r.ledgerTTL); err != nil {
			// Ledger writes are best effort for the caller but the
			// session still comes down.
			continue
		}
	}

	if err := r.store.DeleteSession(ctx, sessionID); err != nil {
		return false
	}

	r.sink.Record(audit.EventSessionInvalidated, audit.SeverityWarning, "session invalidated", map[string]string{
		"session_id": sessionID,
		"user_id":    s.UserID,
		"reason":     reason,
		"duration":   s.Duration(r.now()).String(),
	})
	return true
}

// InvalidateAllForUser invalidates every session owned by the user and
// returns how many came down. Used on suspected compromise or an explicit
// log-out-everywhere.
func (r *Registry) InvalidateAllForUser(ctx context.Context, userID, reason string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids, err := r.store.SessionIDsForUser(ctx, userID)
	if err != nil {
		return 0
	}

	count := 0
	for _, id := range ids {
		if r.invalidateLocked(ctx, id, reason) {
			count++
		}
	}
	return count
}

// Sweep invalidates sessions older than the max age and trims the ledger.
// Candidates are collected without the mutex and invalidated in small
// batches so a large sweep does not starve request handling.
func (r *Registry) Sweep(ctx context.Context) error {
	ids, err := r.store.ListSessionIDs(ctx)
	if err != nil {
		return err
	}

	for start := 0; start < len(ids); start += r.sweepBatchSize {
		end := min(start+r.sweepBatchSize, len(ids))

		r.mu.Lock()
		for _, id := range ids[start:end] {
			s, err := r.store.GetSession(ctx, id)
			if err != nil {
				continue
			}
			if s.Duration(r.now()) >= r.maxSessionAge {
				r.invalidateLocked(ctx, id, "max session age exceeded")
			}
		}
		r.mu.Unlock()
	}

	return r.ledger.Sweep(ctx)
}

// Stats are aggregate counts for operational dashboards.
type Stats struct {
	ActiveSessions   int     `json:"active_sessions"`
	ActiveUsers      int     `json:"active_users"`
	BlacklistSize    int64   `json:"blacklist_size"`
	AverageRiskScore float64 `json:"average_risk_score"`
	HighRiskSessions int     `json:"high_risk_sessions"`
}

// Stats aggregates registry and ledger counters.
func (r *Registry) Stats(ctx context.Context) (*Stats, error) {
	ids, err := r.store.ListSessionIDs(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{}
	users := make(map[string]struct{})
	totalRisk := 0

	for _, id := range ids {
		s, err := r.store.GetSession(ctx, id)
		if err != nil {
			continue
		}
		stats.ActiveSessions++
		users[s.UserID] = struct{}{}
		totalRisk += s.RiskScore
		if s.RiskScore >= highRiskThreshold {
			stats.HighRiskSessions++
		}
	}

	stats.ActiveUsers = len(users)
	if stats.ActiveSessions > 0 {
		stats.AverageRiskScore = float64(totalRisk) / float64(stats.ActiveSessions)
	}

	size, err := r.ledger.Size(ctx)
	if err == nil {
		stats.BlacklistSize = size
	}
	return stats, nil
}
