package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ClaimsKey is the gin context key holding verified token claims.
const ClaimsKey = "claims"

// Token is minimal interface for a verified token that can expose claims
type Token interface {
	Claims(v interface{}) error
}

// Verifier is the minimal interface the middleware depends on
type Verifier interface {
	Verify(ctx context.Context, raw string) (Token, error)
}

// AuthMiddleware returns a Gin middleware that verifies Bearer tokens using the provided verifier
func AuthMiddleware(ver Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, msg := verifyHeader(c, ver)
		if msg != "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}
		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// IdentifyMiddleware stores claims for a valid Bearer token and lets every
// request through, so anonymous reads keep working. Routes that need a caller
// still add AuthMiddleware.
func IdentifyMiddleware(ver Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, msg := verifyHeader(c, ver); msg == "" {
			c.Set(ClaimsKey, claims)
		}
		c.Next()
	}
}

// verifyHeader returns the token claims, or a client-facing reason they are missing.
func verifyHeader(c *gin.Context, ver Verifier) (map[string]interface{}, string) {
	auth := c.GetHeader("Authorization")
	if auth == "" {
		return nil, "missing Authorization header"
	}
	token, ok := strings.CutPrefix(auth, "Bearer ")
	token = strings.TrimSpace(token)
	if !ok || token == "" {
		return nil, "invalid Authorization header"
	}

	idToken, err := ver.Verify(c.Request.Context(), token)
	if err != nil {
		return nil, "invalid token"
	}

	var claims map[string]interface{}
	if err := idToken.Claims(&claims); err != nil {
		return nil, "failed to parse claims"
	}
	return claims, ""
}
