// Package middleware provides gin middleware and handlers that put the
// guard in front of route groups at a chosen security level.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kochabx/authguard"
	"github.com/kochabx/authguard/validator"
)

// AuthConfig configures the bearer-token middleware.
type AuthConfig struct {
	// SkippedPathPrefixes lists path prefixes exempt from authentication.
	SkippedPathPrefixes []string

	// Guard performs the validation.
	Guard *authguard.Guard

	// Level selects the policy bundle; defaults to medium.
	Level validator.Level
}

// Auth guards a route group at the given level.
func Auth(guard *authguard.Guard, level validator.Level) gin.HandlerFunc {
	return AuthWithConfig(AuthConfig{Guard: guard, Level: level})
}

// AuthWithConfig validates the bearer access token on every request. A
// result that requires re-authentication is distinguished from one a
// silent refresh can repair, but the response body never says why the
// token was rejected beyond that.
func AuthWithConfig(config AuthConfig) gin.HandlerFunc {
	level := config.Level
	if level == "" {
		level = validator.LevelMedium
	}

	return func(c *gin.Context) {
		if config.Guard == nil || skippedPathPrefixes(c, config.SkippedPathPrefixes...) {
			c.Next()
			return
		}

		rawToken := BearerToken(c)
		if rawToken == "" {
			respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
			return
		}

		result := config.Guard.Validate(c.Request.Context(), rawToken, RequestContextFrom(c), level)
		if !result.Valid {
			if result.RequireReauth {
				respondError(c, http.StatusUnauthorized, "REAUTH_REQUIRED", "please log in again")
				return
			}
			respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired token")
			return
		}

		if result.ShouldRefresh {
			c.Header("X-Token-Refresh-Recommended", "true")
		}

		c.Request = c.Request.WithContext(withClaims(c.Request.Context(), result.Claims))
		c.Next()
	}
}
