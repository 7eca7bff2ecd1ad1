// Package authguard pairs short-lived signed access tokens with
// longer-lived refresh tokens, tracks sessions across rotations, applies
// contextual risk validation and revokes tokens under concurrent traffic.
//
// The Guard is the produced interface for route handlers: Login, Refresh,
// Validate, Logout, InvalidateAllForUser and Stats. The components behind
// it (token.Issuer, session.Registry, validator.Validator and the
// revocation ledger) are explicit objects with injected configuration; no
// global instances.
package authguard

import (
	"context"

	"github.com/kochabx/authguard/revocation"
	"github.com/kochabx/authguard/session"
	"github.com/kochabx/authguard/token"
	"github.com/kochabx/authguard/validator"
)

// Identity is the user identity stamped into issued tokens.
type Identity struct {
	UserID        string
	Email         string
	Name          string
	Role          token.Role
	AssociationID string
}

// Guard composes the issuer, registry, validator and ledger into the
// surface route handlers call. Audit recording happens inside the registry
// and the validator, not here.
type Guard struct {
	issuer    *token.Issuer
	registry  *session.Registry
	validator *validator.Validator
	ledger    revocation.Ledger
}

// New assembles a Guard from its components.
func New(issuer *token.Issuer, registry *session.Registry, v *validator.Validator, ledger revocation.Ledger) *Guard {
	return &Guard{
		issuer:    issuer,
		registry:  registry,
		validator: v,
		ledger:    ledger,
	}
}

// Login opens a session for an authenticated user and issues a token pair
// bound to it. Password verification happens before this call.
func (g *Guard) Login(ctx context.Context, identity Identity, reqCtx session.RequestContext) (*token.TokenPair, error) {
	return g.login(ctx, identity, reqCtx, false)
}

// login issues a pair, optionally marked as minted by the legacy API.
func (g *Guard) login(ctx context.Context, identity Identity, reqCtx session.RequestContext, legacy bool) (*token.TokenPair, error) {
	sess, err := g.registry.CreateSession(ctx, identity.UserID, reqCtx)
	if err != nil {
		return nil, err
	}

	claims := &token.Claims{
		UserID:        identity.UserID,
		Email:         identity.Email,
		Name:          identity.Name,
		Role:          identity.Role,
		AssociationID: identity.AssociationID,
		SessionID:     sess.ID,
		Fingerprint:   reqCtx.Fingerprint(),
		IP:            reqCtx.IP,
		Legacy:        legacy,
	}

	pair, err := g.issuer.IssuePair(claims)
	if err != nil {
		g.registry.InvalidateSession(ctx, sess.ID, "token issuance failed")
		return nil, err
	}

	if err := g.registry.TrackToken(ctx, sess.ID, token.Hash(pair.AccessToken), token.KindAccess); err != nil {
		g.registry.InvalidateSession(ctx, sess.ID, "token issuance failed")
		return nil, err
	}
	if err := g.registry.TrackToken(ctx, sess.ID, token.Hash(pair.RefreshToken), token.KindRefresh); err != nil {
		g.registry.InvalidateSession(ctx, sess.ID, "token issuance failed")
		return nil, err
	}

	return pair, nil
}

// Refresh exchanges a refresh token for a new pair bound to the same
// session. Rotation is single-use: the consumed token is blacklisted and
// of two concurrent exchanges exactly one succeeds, the other failing with
// token.ErrRevokedToken.
func (g *Guard) Refresh(ctx context.Context, refreshToken string) (*token.TokenPair, error) {
	oldHash := token.Hash(refreshToken)

	// Cheap reject before signature verification; the registry re-checks
	// under its mutex, which is what makes rotation single-use.
	revoked, err := g.ledger.Contains(ctx, oldHash)
	if err == nil && revoked {
		return nil, token.ErrRevokedToken
	}

	pair, claims, err := g.issuer.Refresh(refreshToken)
	if err != nil {
		return nil, err
	}

	err = g.registry.RotateRefreshToken(ctx, claims.SessionID, oldHash, token.Hash(pair.RefreshToken))
	if err != nil {
		// The minted pair was never tracked and is discarded.
		return nil, err
	}

	if err := g.registry.TrackToken(ctx, claims.SessionID, token.Hash(pair.AccessToken), token.KindAccess); err != nil {
		return nil, err
	}

	return pair, nil
}

// Validate checks a bearer access token at the given security level and
// records session activity for tokens that pass.
func (g *Guard) Validate(ctx context.Context, accessToken string, reqCtx session.RequestContext, level validator.Level) *validator.Result {
	result := g.validator.Validate(ctx, accessToken, reqCtx, level)

	if result.Valid && result.Claims != nil {
		// Activity recording must not fail the validation.
		_ = g.registry.RecordActivity(ctx, result.Claims.SessionID, reqCtx)
	}
	return result
}

// Logout invalidates the session a token belongs to. Returns false when
// the token maps to no live session.
func (g *Guard) Logout(ctx context.Context, rawToken string) bool {
	sess, err := g.registry.SessionForToken(ctx, token.Hash(rawToken))
	if err != nil {
		return false
	}
	return g.registry.InvalidateSession(ctx, sess.ID, "logout")
}

// InvalidateSession invalidates a session by id.
func (g *Guard) InvalidateSession(ctx context.Context, sessionID, reason string) bool {
	return g.registry.InvalidateSession(ctx, sessionID, reason)
}

// InvalidateAllForUser logs a user out everywhere and returns how many
// sessions came down.
func (g *Guard) InvalidateAllForUser(ctx context.Context, userID, reason string) int {
	return g.registry.InvalidateAllForUser(ctx, userID, reason)
}

// SessionsForUser lists a user's active sessions for device dashboards.
func (g *Guard) SessionsForUser(ctx context.Context, userID string) ([]*session.Session, error) {
	return g.registry.SessionsForUser(ctx, userID)
}

// Stats returns aggregate counts for operational dashboards.
func (g *Guard) Stats(ctx context.Context) (*session.Stats, error) {
	return g.registry.Stats(ctx)
}

// Sweep runs one registry sweep; the app lifecycle schedules it.
func (g *Guard) Sweep(ctx context.Context) error {
	return g.registry.Sweep(ctx)
}
