package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/kochabx/authguard/errors"
)

// skippedPathPrefixes reports whether the request path starts with any of
// the given prefixes.
func skippedPathPrefixes(c *gin.Context, prefixes ...string) bool {
	if len(prefixes) == 0 {
		return false
	}

	urlPath := c.Request.URL.Path
	pathLen := len(urlPath)

	for _, p := range prefixes {
		if pl := len(p); pathLen >= pl && urlPath[:pl] == p {
			return true
		}
	}
	return false
}

// respondError writes a JSON error body and aborts the request.
func respondError(c *gin.Context, status int, code, message string) {
	respondCoded(c, errors.New(status, code, message))
}

// respondCoded writes a coded taxonomy error and aborts the request. The
// error's code doubles as the HTTP status.
func respondCoded(c *gin.Context, err *errors.Error) {
	c.AbortWithStatusJSON(err.Code, gin.H{
		"success": false,
		"error": gin.H{
			"code":    err.Reason,
			"message": err.Message,
		},
	})
}
