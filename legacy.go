package authguard

import (
	"context"

	"github.com/kochabx/authguard/errors"
	"github.com/kochabx/authguard/session"
	"github.com/kochabx/authguard/token"
	"github.com/kochabx/authguard/validator"
)

// GenerateToken issues a single access token for callers that predate the
// dual-token API. The token still belongs to a tracked session and carries
// the legacy claim marker.
//
// Deprecated: use Login and handle the full pair.
func (g *Guard) GenerateToken(ctx context.Context, identity Identity, reqCtx session.RequestContext) (string, error) {
	pair, err := g.login(ctx, identity, reqCtx, true)
	if err != nil {
		return "", err
	}
	return pair.AccessToken, nil
}

// VerifyToken validates a single access token at the medium level and
// returns its claims. Failures come back as coded taxonomy errors so
// callers of the old API can route on a stable reason.
//
// Deprecated: use Validate and inspect the full result.
func (g *Guard) VerifyToken(ctx context.Context, rawToken string, reqCtx session.RequestContext) (*token.Claims, error) {
	result := g.Validate(ctx, rawToken, reqCtx, validator.LevelMedium)
	if !result.Valid {
		return nil, codedError(result)
	}
	return result.Claims, nil
}

// codedError maps a failed validation onto the error taxonomy. The first
// matching condition wins; the verification error stays in the chain.
func codedError(result *validator.Result) error {
	var coded *errors.Error
	switch {
	case result.HasFlag(validator.FlagTokenBlacklisted):
		coded = errors.RevokedToken("token has been revoked")
	case result.HasFlag(validator.FlagRevocationCheckFailed):
		coded = errors.RevocationCheckFailed("revocation ledger unavailable")
	case result.HasFlag(validator.FlagExpiredToken):
		coded = errors.ExpiredToken("token has expired")
	case result.HasFlag(validator.FlagWrongTokenKind):
		coded = errors.WrongTokenKind("not an access token")
	case result.HasFlag(validator.FlagIPMismatch), result.HasFlag(validator.FlagDeviceMismatch):
		coded = errors.ContextMismatch("request context does not match the token")
	case result.HasFlag(validator.FlagTokenTooOld):
		coded = errors.TokenTooOld("token exceeds the maximum age")
	case result.HasFlag(validator.FlagTokenNotFresh):
		coded = errors.NotFresh("token is not fresh enough")
	case result.HasFlag(validator.FlagUserNotFound):
		coded = errors.UserNotFound("user no longer exists")
	case result.HasFlag(validator.FlagUserNotVerified):
		coded = errors.UserNotVerified("user is not verified or inactive")
	case result.HasFlag(validator.FlagUserStatusCheckFailed):
		coded = errors.UserStatusCheckTimeout("user status check did not complete")
	default:
		coded = errors.MalformedToken("token failed verification")
	}
	if result.Err != nil {
		return coded.WithCause(result.Err)
	}
	return coded
}
