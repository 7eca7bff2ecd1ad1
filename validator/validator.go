// Package validator composes cryptographic token verification with the
// contextual checks: revocation, device/IP binding, token age, freshness
// and backing-store user status.
package validator

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/kochabx/authguard/audit"
	"github.com/kochabx/authguard/revocation"
	"github.com/kochabx/authguard/session"
	"github.com/kochabx/authguard/token"
	"github.com/kochabx/authguard/userstore"
)

// Validator produces pass/fail decisions with diagnostic flags.
type Validator struct {
	issuer *token.Issuer
	ledger revocation.Ledger
	users  userstore.Store
	sink   audit.Sink
	now    func() time.Time

	policies          map[Level]Policy
	refreshThreshold  time.Duration
	userStatusTimeout time.Duration
}

// Option configures a Validator.
type Option func(*Validator)

// WithUserStore enables the user-status check against the external store.
func WithUserStore(users userstore.Store) Option {
	return func(v *Validator) {
		v.users = users
	}
}

// WithAuditSink sets the security-event sink.
func WithAuditSink(sink audit.Sink) Option {
	return func(v *Validator) {
		if sink != nil {
			v.sink = sink
		}
	}
}

// WithPolicy overrides the policy bundle for one level.
func WithPolicy(level Level, policy Policy) Option {
	return func(v *Validator) {
		v.policies[level] = policy
	}
}

// WithRefreshThreshold sets the remaining lifetime below which the result
// hints at a refresh.
func WithRefreshThreshold(d time.Duration) Option {
	return func(v *Validator) {
		if d > 0 {
			v.refreshThreshold = d
		}
	}
}

// WithUserStatusTimeout bounds the external user lookup.
func WithUserStatusTimeout(d time.Duration) Option {
	return func(v *Validator) {
		if d > 0 {
			v.userStatusTimeout = d
		}
	}
}

// WithClock injects the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) {
		if now != nil {
			v.now = now
		}
	}
}

// New creates a Validator over the issuer and the revocation ledger.
func New(issuer *token.Issuer, ledger revocation.Ledger, opts ...Option) *Validator {
	v := &Validator{
		issuer:            issuer,
		ledger:            ledger,
		sink:              audit.NewNoopSink(),
		now:               time.Now,
		policies:          defaultPolicies(),
		refreshThreshold:  5 * time.Minute,
		userStatusTimeout: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate checks a bearer access token against the policy bundle for the
// given level. The revocation check runs before signature verification; no
// check silently downgrades to success.
func (v *Validator) Validate(ctx context.Context, rawToken string, reqCtx session.RequestContext, level Level) *Result {
	result := &Result{}

	revoked, err := v.ledger.Contains(ctx, token.Hash(rawToken))
	if err != nil {
		// An unreachable ledger fails the validation, not the check.
		result.addFlag(FlagRevocationCheckFailed)
		result.Err = err
		v.recordFailure(result, "")
		return result
	}
	if revoked {
		result.addFlag(FlagTokenBlacklisted)
		result.RequireReauth = true
		result.Err = token.ErrRevokedToken
		v.recordFailure(result, "")
		return result
	}

	claims, err := v.issuer.Verify(rawToken, token.KindAccess)
	if err != nil {
		switch {
		case errors.Is(err, token.ErrExpiredToken):
			result.addFlag(FlagExpiredToken)
		case errors.Is(err, token.ErrWrongTokenKind):
			result.addFlag(FlagWrongTokenKind)
		default:
			result.addFlag(FlagMalformedToken)
		}
		result.Err = err
		v.recordFailure(result, "")
		return result
	}
	result.Claims = claims

	policy, ok := v.policies[level]
	if !ok {
		policy = v.policies[LevelMedium]
	}

	hardFailed := v.applyPolicy(ctx, result, claims, reqCtx, policy)

	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		result.ShouldRefresh = exp.Time.Sub(v.now()) < v.refreshThreshold
	}

	result.Valid = !hardFailed
	if !result.Valid {
		v.recordFailure(result, claims.UserID)
	}
	return result
}

// applyPolicy runs the contextual checks and reports whether any of them
// hard-failed. Flags accumulate regardless so tolerated conditions stay
// observable.
func (v *Validator) applyPolicy(ctx context.Context, result *Result, claims *token.Claims, reqCtx session.RequestContext, policy Policy) bool {
	hardFailed := false

	if policy.CheckIP && claims.IP != "" && reqCtx.IP != "" && claims.IP != reqCtx.IP {
		result.addFlag(FlagIPMismatch)
		if policy.HardFailOnIPMismatch {
			hardFailed = true
			result.RequireReauth = true
		}
	}

	if policy.CheckDevice && claims.Fingerprint != "" && claims.Fingerprint != reqCtx.Fingerprint() {
		result.addFlag(FlagDeviceMismatch)
		if policy.HardFailOnDeviceMismatch {
			hardFailed = true
			result.RequireReauth = true
		}
	}

	if policy.CheckUserAgent && (reqCtx.UserAgent == "" || reqCtx.BotUserAgent()) {
		result.addFlag(FlagSuspiciousUserAgent)
	}

	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		age := v.now().Sub(iat.Time)
		if policy.MaxTokenAge > 0 && age > policy.MaxTokenAge {
			result.addFlag(FlagTokenTooOld)
			hardFailed = true
		}
		if policy.FreshnessWindow > 0 && age > policy.FreshnessWindow {
			result.addFlag(FlagTokenNotFresh)
			hardFailed = true
		}
	}

	if policy.CheckUserStatus && v.users != nil {
		if failed := v.checkUserStatus(ctx, result, claims.UserID); failed {
			hardFailed = true
		}
	}

	return hardFailed
}

// checkUserStatus looks the user up with a bounded timeout, failing closed
// on timeout rather than treating it as success.
func (v *Validator) checkUserStatus(ctx context.Context, result *Result, userID string) bool {
	ctx, cancel := context.WithTimeout(ctx, v.userStatusTimeout)
	defer cancel()

	user, err := v.users.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, userstore.ErrUserNotFound) {
			result.addFlag(FlagUserNotFound)
			return true
		}
		result.addFlag(FlagUserStatusCheckFailed)
		return true
	}

	if !user.IsVerified || !user.IsActive {
		result.addFlag(FlagUserNotVerified)
		return true
	}
	return false
}

// recordFailure emits one audit event per failed validation.
func (v *Validator) recordFailure(result *Result, userID string) {
	flags := make([]string, len(result.Flags))
	for i, f := range result.Flags {
		flags[i] = string(f)
	}

	metadata := map[string]string{"flags": strings.Join(flags, ",")}
	if userID != "" {
		metadata["user_id"] = userID
	}

	severity := audit.SeverityWarning
	if result.RequireReauth {
		severity = audit.SeverityCritical
	}
	v.sink.Record(audit.EventValidationFailed, severity, "token validation failed", metadata)
}
