package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/kochabx/authguard/errors"
)

// minSecretLength is the shortest secret accepted at startup. HMAC secrets
// below the digest size weaken the signature.
const minSecretLength = 32

// Config holds Issuer configuration. Access and refresh tokens are signed
// with independent secrets.
type Config struct {
	AccessSecret  string `json:"accessSecret" mapstructure:"accessSecret" validate:"required"`
	RefreshSecret string `json:"refreshSecret" mapstructure:"refreshSecret" validate:"required"`

	SigningMethod   string `json:"signingMethod" mapstructure:"signingMethod" default:"HS256"`
	AccessTokenTTL  int64  `json:"accessTokenTTL" mapstructure:"accessTokenTTL" default:"1800" validate:"gt=0"`      // seconds
	RefreshTokenTTL int64  `json:"refreshTokenTTL" mapstructure:"refreshTokenTTL" default:"604800" validate:"gt=0"` // seconds
	NotBeforeSkew   int64  `json:"notBeforeSkew" mapstructure:"notBeforeSkew" default:"30"`                         // seconds

	Issuer   string   `json:"issuer" mapstructure:"issuer" default:"authguard"`
	Audience []string `json:"audience" mapstructure:"audience"`
}

// setDefaults fills zero-valued fields.
func (c *Config) setDefaults() {
	if c.SigningMethod == "" {
		c.SigningMethod = "HS256"
	}
	if c.AccessTokenTTL == 0 {
		c.AccessTokenTTL = 1800 // 30 minutes
	}
	if c.RefreshTokenTTL == 0 {
		c.RefreshTokenTTL = 604800 // 7 days
	}
	if c.NotBeforeSkew == 0 {
		c.NotBeforeSkew = 30
	}
	if c.Issuer == "" {
		c.Issuer = "authguard"
	}
}

// Validate performs the fail-fast secret checks. A configuration error here
// must prevent the process from serving traffic.
func (c *Config) Validate() error {
	if c.AccessSecret == "" || c.RefreshSecret == "" {
		return errors.Configuration("token secrets must be configured")
	}
	if c.AccessSecret == c.RefreshSecret {
		return errors.Configuration("access and refresh secrets must be distinct")
	}
	if len(c.AccessSecret) < minSecretLength || len(c.RefreshSecret) < minSecretLength {
		return errors.Configuration("token secrets must be at least %d bytes", minSecretLength)
	}
	return nil
}

// secretFor returns the signing secret for the given token kind.
func (c *Config) secretFor(kind Kind) []byte {
	if kind == KindRefresh {
		return []byte(c.RefreshSecret)
	}
	return []byte(c.AccessSecret)
}

// ttlFor returns the lifetime for the given token kind.
func (c *Config) ttlFor(kind Kind) time.Duration {
	if kind == KindRefresh {
		return time.Duration(c.RefreshTokenTTL) * time.Second
	}
	return time.Duration(c.AccessTokenTTL) * time.Second
}

// signingMethod maps the configured method name. Secrets are symmetric
// strings, so only HMAC variants are supported.
func (c *Config) signingMethod() jwt.SigningMethod {
	switch c.SigningMethod {
	case "HS256":
		return jwt.SigningMethodHS256
	case "HS384":
		return jwt.SigningMethodHS384
	case "HS512":
		return jwt.SigningMethodHS512
	default:
		return jwt.SigningMethodHS256
	}
}
