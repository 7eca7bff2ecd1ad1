package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kochabx/authguard/session"
	"github.com/kochabx/authguard/token"
)

type claimsKey struct{}

// RequestContextFrom extracts the fingerprint inputs and client IP from a
// request. Behind a proxy the first X-Forwarded-For entry is the client.
func RequestContextFrom(c *gin.Context) session.RequestContext {
	ip := c.ClientIP()
	if forwarded := c.GetHeader("X-Forwarded-For"); forwarded != "" {
		if first, _, ok := strings.Cut(forwarded, ","); ok {
			ip = strings.TrimSpace(first)
		} else {
			ip = strings.TrimSpace(forwarded)
		}
	}

	return session.RequestContext{
		UserAgent:      c.GetHeader("User-Agent"),
		AcceptLanguage: c.GetHeader("Accept-Language"),
		AcceptEncoding: c.GetHeader("Accept-Encoding"),
		IP:             ip,
	}
}

// BearerToken returns the token from the Authorization header, or "" when
// the header is absent or not a bearer scheme.
func BearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return header[len(prefix):]
	}
	return ""
}

// ClaimsFrom returns the validated claims stored by the auth middleware.
func ClaimsFrom(ctx context.Context) (*token.Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*token.Claims)
	return claims, ok
}

func withClaims(ctx context.Context, claims *token.Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}
