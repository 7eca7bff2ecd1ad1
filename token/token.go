package token

import (
	"github.com/golang-jwt/jwt/v5"
)

// Kind distinguishes the two token types issued by the Issuer.
type Kind string

const (
	// KindAccess is the short-lived request credential.
	KindAccess Kind = "access"
	// KindRefresh is the long-lived credential exchanged for new pairs.
	KindRefresh Kind = "refresh"
)

// Role is the closed set of roles carried in token claims.
type Role string

const (
	RoleTeacher    Role = "teacher"
	RoleLawyer     Role = "lawyer"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

// Claims is the payload of both token kinds: user identity plus the
// security metadata the validator binds against.
type Claims struct {
	jwt.RegisteredClaims

	UserID        string `json:"uid"`
	Email         string `json:"email,omitempty"`
	Name          string `json:"name,omitempty"`
	Role          Role   `json:"role"`
	AssociationID string `json:"aid,omitempty"`

	SessionID   string `json:"sid"`
	Kind        Kind   `json:"kind"`
	Fingerprint string `json:"fp,omitempty"`
	IP          string `json:"ip,omitempty"`

	// Legacy marks tokens minted through the deprecated single-token API.
	Legacy bool `json:"legacy,omitempty"`
}

// clone returns a copy of the claims so issuing both kinds from one input
// does not share registered-claim pointers.
func (c *Claims) clone() *Claims {
	cp := *c
	return &cp
}

// TokenPair bundles an access/refresh pair bound to one session.
type TokenPair struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	SessionID        string `json:"session_id"`
	ExpiresIn        int64  `json:"expires_in"`         // seconds
	RefreshExpiresIn int64  `json:"refresh_expires_in"` // seconds
}
