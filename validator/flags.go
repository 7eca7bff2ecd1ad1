package validator

import "github.com/kochabx/authguard/token"

// Flag is a diagnostic code attached to a validation result. Every check
// failure maps to a specific flag so audit logs can tell a stale token
// from a likely stolen one; flags accumulate even on passing validations.
type Flag string

const (
	FlagTokenBlacklisted      Flag = "TOKEN_BLACKLISTED"
	FlagRevocationCheckFailed Flag = "REVOCATION_CHECK_FAILED"
	FlagMalformedToken        Flag = "MALFORMED_TOKEN"
	FlagExpiredToken          Flag = "EXPIRED_TOKEN"
	FlagWrongTokenKind        Flag = "WRONG_TOKEN_KIND"
	FlagIPMismatch            Flag = "IP_MISMATCH"
	FlagDeviceMismatch        Flag = "DEVICE_MISMATCH"
	FlagSuspiciousUserAgent   Flag = "SUSPICIOUS_USER_AGENT"
	FlagTokenTooOld           Flag = "TOKEN_TOO_OLD"
	FlagTokenNotFresh         Flag = "TOKEN_NOT_FRESH"
	FlagUserNotFound          Flag = "USER_NOT_FOUND"
	FlagUserNotVerified       Flag = "USER_NOT_VERIFIED"
	FlagUserStatusCheckFailed Flag = "USER_STATUS_CHECK_FAILED"
)

// reauthFlags are the hard-failure flags that force full re-authentication
// instead of a silent refresh.
var reauthFlags = map[Flag]struct{}{
	FlagTokenBlacklisted: {},
	FlagIPMismatch:       {},
	FlagDeviceMismatch:   {},
}

// Result is the structured outcome of a validation. Expected failures
// (expired tokens happen constantly) are results, never panics.
type Result struct {
	Valid bool `json:"valid"`

	// Claims is set once cryptographic verification succeeds, even when a
	// later contextual check fails the validation.
	Claims *token.Claims `json:"-"`

	// Flags carries one code per triggered check, including tolerated ones.
	Flags []Flag `json:"flags,omitempty"`

	// ShouldRefresh hints that the token expires soon. Not a failure.
	ShouldRefresh bool `json:"should_refresh"`

	// RequireReauth is set when a hard failure belongs to the
	// reauth-worthy subset at the active policy level.
	RequireReauth bool `json:"require_reauth"`

	// Err is the verification error for blacklist/signature/expiry
	// failures; contextual check failures are carried by Flags alone.
	Err error `json:"-"`
}

// HasFlag reports whether the result carries a flag.
func (r *Result) HasFlag(flag Flag) bool {
	for _, f := range r.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// addFlag appends a flag once.
func (r *Result) addFlag(flag Flag) {
	if !r.HasFlag(flag) {
		r.Flags = append(r.Flags, flag)
	}
}
