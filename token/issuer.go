package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Issuer creates and verifies signed access and refresh tokens. It is a
// pure verifier: revocation checks belong to the security validator.
type Issuer struct {
	config *Config
	now    func() time.Time
}

// Option configures an Issuer.
type Option func(*Issuer)

// WithClock injects the time source, used by tests to simulate expiry.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) {
		if now != nil {
			i.now = now
		}
	}
}

// New creates an Issuer. Secret validation is fail-fast: a bad configuration
// is returned here, never surfaced per request.
func New(config *Config, opts ...Option) (*Issuer, error) {
	config.setDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	issuer := &Issuer{
		config: config,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(issuer)
	}
	return issuer, nil
}

// Issue stamps the security fields and signs the claims with the
// kind-specific secret.
func (i *Issuer) Issue(kind Kind, claims *Claims) (string, error) {
	now := i.now()
	c := claims.clone()

	c.Kind = kind
	c.ID = uuid.New().String()
	c.IssuedAt = jwt.NewNumericDate(now)
	c.ExpiresAt = jwt.NewNumericDate(now.Add(i.config.ttlFor(kind)))
	c.NotBefore = jwt.NewNumericDate(now.Add(-time.Duration(i.config.NotBeforeSkew) * time.Second))
	c.Issuer = i.config.Issuer
	if len(i.config.Audience) > 0 {
		c.Audience = i.config.Audience
	}

	tok := jwt.NewWithClaims(i.config.signingMethod(), c)
	return tok.SignedString(i.config.secretFor(kind))
}

// Verify cryptographically verifies a token and checks it is of the
// expected kind. The secret is selected by the kind the token claims, so a
// valid refresh token presented as access fails with ErrWrongTokenKind
// rather than a signature error.
func (i *Issuer) Verify(tokenString string, expectedKind Kind) (*Claims, error) {
	claims := &Claims{}

	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != i.config.signingMethod().Alg() {
			return nil, ErrMalformedToken
		}
		return i.config.secretFor(claims.Kind), nil
	},
		jwt.WithIssuer(i.config.Issuer),
		jwt.WithTimeFunc(i.now),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrMalformedToken
	}
	if !parsed.Valid {
		return nil, ErrMalformedToken
	}

	if len(i.config.Audience) > 0 && !audienceMatch(claims.Audience, i.config.Audience) {
		return nil, ErrMalformedToken
	}

	if claims.Kind != expectedKind {
		return nil, ErrWrongTokenKind
	}

	return claims, nil
}

// audienceMatch reports whether the token was minted for any of the
// configured audiences.
func audienceMatch(claimed jwt.ClaimStrings, configured []string) bool {
	for _, want := range configured {
		for _, aud := range claimed {
			if aud == want {
				return true
			}
		}
	}
	return false
}

// IssuePair issues both token kinds bound to one session id, generating a
// fresh session id when the claims carry none.
func (i *Issuer) IssuePair(claims *Claims) (*TokenPair, error) {
	c := claims.clone()
	if c.SessionID == "" {
		c.SessionID = uuid.New().String()
	}

	accessToken, err := i.Issue(KindAccess, c)
	if err != nil {
		return nil, err
	}

	refreshToken, err := i.Issue(KindRefresh, c)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		SessionID:        c.SessionID,
		ExpiresIn:        i.config.AccessTokenTTL,
		RefreshExpiresIn: i.config.RefreshTokenTTL,
	}, nil
}

// Refresh verifies a refresh token and mints a new pair bound to the same
// session id. The consumed claims are returned so the caller can blacklist
// the old token; single-use rotation is enforced by the caller.
func (i *Issuer) Refresh(refreshToken string) (*TokenPair, *Claims, error) {
	claims, err := i.Verify(refreshToken, KindRefresh)
	if err != nil {
		return nil, nil, err
	}

	pair, err := i.IssuePair(claims)
	if err != nil {
		return nil, nil, err
	}

	return pair, claims, nil
}

// AccessTokenTTL returns the configured access token lifetime.
func (i *Issuer) AccessTokenTTL() time.Duration {
	return i.config.ttlFor(KindAccess)
}

// RefreshTokenTTL returns the configured refresh token lifetime.
func (i *Issuer) RefreshTokenTTL() time.Duration {
	return i.config.ttlFor(KindRefresh)
}
