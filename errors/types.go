package errors

// Reason codes for the auth error taxonomy. These are stable identifiers
// intended for audit logs and internal routing, never for end users.
const (
	ReasonMalformedToken         = "MALFORMED_TOKEN"
	ReasonExpiredToken           = "EXPIRED_TOKEN"
	ReasonWrongTokenKind         = "WRONG_TOKEN_KIND"
	ReasonRevokedToken           = "REVOKED_TOKEN"
	ReasonRevocationCheckFailed  = "REVOCATION_CHECK_FAILED"
	ReasonContextMismatch        = "CONTEXT_MISMATCH"
	ReasonTokenTooOld            = "TOKEN_TOO_OLD"
	ReasonNotFresh               = "NOT_FRESH"
	ReasonUserNotFound           = "USER_NOT_FOUND"
	ReasonUserNotVerified        = "USER_NOT_VERIFIED"
	ReasonUserStatusCheckTimeout = "USER_STATUS_CHECK_TIMEOUT"
	ReasonSessionNotFound        = "SESSION_NOT_FOUND"
	ReasonConfiguration          = "CONFIGURATION_ERROR"
)

// MalformedToken indicates a token that failed parsing or signature checks.
func MalformedToken(format string, args ...any) *Error {
	return New(401, ReasonMalformedToken, format, args...)
}

// ExpiredToken indicates a token outside its validity window.
func ExpiredToken(format string, args ...any) *Error {
	return New(401, ReasonExpiredToken, format, args...)
}

// WrongTokenKind indicates an access token used as refresh or vice versa.
func WrongTokenKind(format string, args ...any) *Error {
	return New(401, ReasonWrongTokenKind, format, args...)
}

// RevokedToken indicates a token present in the revocation ledger.
func RevokedToken(format string, args ...any) *Error {
	return New(401, ReasonRevokedToken, format, args...)
}

// RevocationCheckFailed indicates the revocation ledger could not be
// consulted. Validation fails closed on it.
func RevocationCheckFailed(format string, args ...any) *Error {
	return New(503, ReasonRevocationCheckFailed, format, args...)
}

// ContextMismatch indicates an IP or device binding failure.
func ContextMismatch(format string, args ...any) *Error {
	return New(403, ReasonContextMismatch, format, args...)
}

// TokenTooOld indicates a token older than the policy ceiling.
func TokenTooOld(format string, args ...any) *Error {
	return New(401, ReasonTokenTooOld, format, args...)
}

// NotFresh indicates a token that misses a freshness requirement.
func NotFresh(format string, args ...any) *Error {
	return New(401, ReasonNotFresh, format, args...)
}

// UserNotFound indicates the backing store has no such user.
func UserNotFound(format string, args ...any) *Error {
	return New(401, ReasonUserNotFound, format, args...)
}

// UserNotVerified indicates the user exists but is not verified or active.
func UserNotVerified(format string, args ...any) *Error {
	return New(403, ReasonUserNotVerified, format, args...)
}

// UserStatusCheckTimeout indicates the bounded user lookup did not complete.
func UserStatusCheckTimeout(format string, args ...any) *Error {
	return New(504, ReasonUserStatusCheckTimeout, format, args...)
}

// SessionNotFound indicates an unknown or already invalidated session.
func SessionNotFound(format string, args ...any) *Error {
	return New(404, ReasonSessionNotFound, format, args...)
}

// Configuration indicates bad or missing startup configuration. Fatal at
// startup, never a per-request outcome.
func Configuration(format string, args ...any) *Error {
	return New(500, ReasonConfiguration, format, args...)
}
