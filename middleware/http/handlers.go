package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kochabx/authguard"
	"github.com/kochabx/authguard/errors"
	"github.com/kochabx/authguard/token"
)

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// RefreshHandler exchanges a refresh token for a new pair. A consumed or
// revoked token gets the re-authentication response.
func RefreshHandler(guard *authguard.Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req refreshRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "BAD_REQUEST", "refreshToken is required")
			return
		}

		pair, err := guard.Refresh(c.Request.Context(), req.RefreshToken)
		if err != nil {
			if errors.Is(err, token.ErrRevokedToken) {
				respondError(c, http.StatusUnauthorized, "REAUTH_REQUIRED", "please log in again")
				return
			}
			respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired token")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    pair,
		})
	}
}

// LogoutHandler invalidates the session behind the presented bearer token.
// The response is the same whether or not a session existed.
func LogoutHandler(guard *authguard.Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rawToken := BearerToken(c); rawToken != "" {
			guard.Logout(c.Request.Context(), rawToken)
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// RevokeSessionHandler invalidates one of the caller's sessions by id, the
// delete half of the active-devices listing. Ids belonging to other users
// get the same response as unknown ones.
func RevokeSessionHandler(guard *authguard.Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := ClaimsFrom(c.Request.Context())
		if !ok {
			respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
			return
		}

		sessionID := c.Param("id")
		sessions, err := guard.SessionsForUser(c.Request.Context(), claims.UserID)
		if err != nil {
			respondError(c, http.StatusInternalServerError, "INTERNAL", "failed to list sessions")
			return
		}

		owned := false
		for _, s := range sessions {
			if s.ID == sessionID {
				owned = true
				break
			}
		}
		if !owned || !guard.InvalidateSession(c.Request.Context(), sessionID, "revoked by user") {
			respondCoded(c, errors.SessionNotFound("session not found"))
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// SessionsHandler lists the caller's active sessions.
func SessionsHandler(guard *authguard.Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := ClaimsFrom(c.Request.Context())
		if !ok {
			respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
			return
		}

		sessions, err := guard.SessionsForUser(c.Request.Context(), claims.UserID)
		if err != nil {
			respondError(c, http.StatusInternalServerError, "INTERNAL", "failed to list sessions")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    sessions,
		})
	}
}
