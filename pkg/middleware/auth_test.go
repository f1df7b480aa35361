package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// fakeToken implements Token
type fakeToken struct {
	data map[string]interface{}
}

func (t *fakeToken) Claims(v interface{}) error {
	if mm, ok := v.(*map[string]interface{}); ok {
		*mm = t.data
		return nil
	}
	return fmt.Errorf("unsupported claims type")
}

// fakeVerifier implements Verifier
type fakeVerifier struct{}

func (f *fakeVerifier) Verify(ctx context.Context, raw string) (Token, error) {
	if raw == "goodtoken" {
		return &fakeToken{data: map[string]interface{}{"sub": "user1", "email": "test@example.com"}}, nil
	}
	return nil, fmt.Errorf("invalid token")
}

func authEngine() *gin.Engine {
	g := gin.New()
	g.GET("/", AuthMiddleware(&fakeVerifier{}), func(c *gin.Context) {
		claims, _ := c.Get(ClaimsKey)
		c.JSON(http.StatusOK, gin.H{"claims": claims})
	})
	return g
}

func TestAuthMiddleware_RejectsBadHeaders(t *testing.T) {
	g := authEngine()
	for _, h := range []string{"", "BadHeader", "Bearer ", "Basic abc", "Bearer badtoken"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if h != "" {
			req.Header.Set("Authorization", h)
		}
		rw := httptest.NewRecorder()
		g.ServeHTTP(rw, req)
		require.Equal(t, http.StatusUnauthorized, rw.Code, "header %q", h)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	g := authEngine()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer goodtoken")
	rw := httptest.NewRecorder()
	g.ServeHTTP(rw, req)

	require.Equal(t, http.StatusOK, rw.Code)
	var got map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(rw.Body.Bytes(), &got))
	require.Equal(t, "user1", got["claims"]["sub"])
}

func TestIdentifyMiddleware_NeverRejects(t *testing.T) {
	g := gin.New()
	g.GET("/", IdentifyMiddleware(&fakeVerifier{}), func(c *gin.Context) {
		_, ok := c.Get(ClaimsKey)
		c.JSON(http.StatusOK, gin.H{"identified": ok})
	})

	for h, want := range map[string]bool{
		"":                 false,
		"Bearer badtoken":  false,
		"Basic abc":        false,
		"Bearer goodtoken": true,
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if h != "" {
			req.Header.Set("Authorization", h)
		}
		rw := httptest.NewRecorder()
		g.ServeHTTP(rw, req)

		require.Equal(t, http.StatusOK, rw.Code, "header %q", h)
		var got map[string]bool
		require.NoError(t, json.Unmarshal(rw.Body.Bytes(), &got))
		require.Equal(t, want, got["identified"], "header %q", h)
	}
}
