// Package session tracks logical logins across token rotations: device
// fingerprints, tracked token hashes and a running risk score.
package session

import (
	"slices"
	"time"
)

// Anomaly flag codes accumulated on a session for audit.
const (
	FlagIPChange         = "IP_CHANGE"
	FlagRapidRequests    = "RAPID_REQUESTS"
	FlagMissingUserAgent = "UA_MISSING"
	FlagShortUserAgent   = "UA_SHORT"
	FlagBotUserAgent     = "UA_BOT"
	FlagUnresolvableIP   = "IP_UNRESOLVABLE"
)

// maxRiskScore caps the accumulated risk.
const maxRiskScore = 100

// Device describes the client a session was opened from.
type Device struct {
	Fingerprint string `json:"fingerprint"`
	Platform    string `json:"platform,omitempty"`
	Browser     string `json:"browser,omitempty"`
	UserAgent   string `json:"user_agent,omitempty"`
}

// Session is one logical login. Token membership is tracked by hash only,
// so sessions can be inspected and logged without leaking credentials.
type Session struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`

	Device Device `json:"device"`
	IP     string `json:"ip"`

	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`

	AccessTokenHashes  []string `json:"access_token_hashes"`
	RefreshTokenHashes []string `json:"refresh_token_hashes"`

	RiskScore int      `json:"risk_score"`
	Flags     []string `json:"flags,omitempty"`
}

// Clone returns a deep copy. The in-memory store hands out clones so
// concurrent readers never observe a half-mutated session.
func (s *Session) Clone() *Session {
	cp := *s
	cp.AccessTokenHashes = slices.Clone(s.AccessTokenHashes)
	cp.RefreshTokenHashes = slices.Clone(s.RefreshTokenHashes)
	cp.Flags = slices.Clone(s.Flags)
	return &cp
}

// TokenHashes returns every tracked token hash.
func (s *Session) TokenHashes() []string {
	hashes := make([]string, 0, len(s.AccessTokenHashes)+len(s.RefreshTokenHashes))
	hashes = append(hashes, s.AccessTokenHashes...)
	hashes = append(hashes, s.RefreshTokenHashes...)
	return hashes
}

// Duration returns how long the session has lived.
func (s *Session) Duration(now time.Time) time.Duration {
	return now.Sub(s.CreatedAt)
}

// raiseRisk increases the risk score, monotonic and capped.
func (s *Session) raiseRisk(points int) {
	if points <= 0 {
		return
	}
	s.RiskScore += points
	if s.RiskScore > maxRiskScore {
		s.RiskScore = maxRiskScore
	}
}

// addFlag records an anomaly code once.
func (s *Session) addFlag(flag string) {
	if !slices.Contains(s.Flags, flag) {
		s.Flags = append(s.Flags, flag)
	}
}
