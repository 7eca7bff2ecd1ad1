package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kochabx/authguard"
	"github.com/kochabx/authguard/revocation"
	"github.com/kochabx/authguard/session"
	"github.com/kochabx/authguard/session/store"
	"github.com/kochabx/authguard/token"
	"github.com/kochabx/authguard/validator"
)

const desktopUA = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 Chrome/120.0 Safari/537.36"

func init() {
	gin.SetMode(gin.TestMode)
}

func testGuard(t *testing.T, clock func() time.Time) *authguard.Guard {
	t.Helper()

	issuer, err := token.New(&token.Config{
		AccessSecret:  "test-access-secret-0123456789abcdef",
		RefreshSecret: "test-refresh-secret-0123456789abcdef",
	}, token.WithClock(clock))
	if err != nil {
		t.Fatal(err)
	}

	ledger := revocation.NewMemoryLedger(revocation.WithClock(clock))
	registry := session.NewRegistry(store.NewMemoryStore(), ledger, session.WithClock(clock))
	v := validator.New(issuer, ledger, validator.WithClock(clock))

	return authguard.New(issuer, registry, v, ledger)
}

func setupRouter(guard *authguard.Guard) *gin.Engine {
	r := gin.New()
	r.POST("/auth/refresh", RefreshHandler(guard))
	r.POST("/auth/logout", LogoutHandler(guard))

	protected := r.Group("/", AuthWithConfig(AuthConfig{
		Guard:               guard,
		Level:               validator.LevelMedium,
		SkippedPathPrefixes: []string{"/health"},
	}))
	protected.GET("/protected", func(c *gin.Context) {
		claims, ok := ClaimsFrom(c.Request.Context())
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "claims not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": claims.UserID})
	})
	protected.GET("/sessions", SessionsHandler(guard))
	protected.DELETE("/sessions/:id", RevokeSessionHandler(guard))
	protected.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return r
}

func loginPair(t *testing.T, guard *authguard.Guard) *token.TokenPair {
	t.Helper()

	pair, err := guard.Login(context.Background(), authguard.Identity{
		UserID: "user-1",
		Role:   token.RoleTeacher,
	}, session.RequestContext{
		UserAgent:      desktopUA,
		AcceptLanguage: "en-US,en;q=0.9",
		AcceptEncoding: "gzip, deflate, br",
		IP:             "203.0.113.10",
	})
	if err != nil {
		t.Fatal(err)
	}
	return pair
}

func doRequest(r *gin.Engine, method, path, bearer string, body []byte) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("User-Agent", desktopUA)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	req.Header.Set("X-Forwarded-For", "203.0.113.10")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthSuccess(t *testing.T) {
	guard := testGuard(t, time.Now)
	r := setupRouter(guard)
	pair := loginPair(t, guard)

	w := doRequest(r, "GET", "/protected", pair.AccessToken, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "user-1") {
		t.Errorf("expected the handler to see the claims, got %s", w.Body.String())
	}
}

func TestAuthMissingToken(t *testing.T) {
	guard := testGuard(t, time.Now)
	r := setupRouter(guard)

	w := doRequest(r, "GET", "/protected", "", nil)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestAuthRevokedTokenRequiresReauth(t *testing.T) {
	guard := testGuard(t, time.Now)
	r := setupRouter(guard)
	pair := loginPair(t, guard)

	guard.Logout(context.Background(), pair.AccessToken)

	w := doRequest(r, "GET", "/protected", pair.AccessToken, nil)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if !strings.Contains(w.Body.String(), "REAUTH_REQUIRED") {
		t.Errorf("expected a reauth response, got %s", w.Body.String())
	}
	if strings.Contains(strings.ToLower(w.Body.String()), "blacklist") {
		t.Errorf("the response must not say why the token was rejected: %s", w.Body.String())
	}
}

func TestAuthSkippedPrefix(t *testing.T) {
	guard := testGuard(t, time.Now)
	r := setupRouter(guard)

	w := doRequest(r, "GET", "/health/live", "", nil)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestRefreshEndpoint(t *testing.T) {
	guard := testGuard(t, time.Now)
	r := setupRouter(guard)
	pair := loginPair(t, guard)

	body, _ := json.Marshal(map[string]string{"refreshToken": pair.RefreshToken})
	w := doRequest(r, "POST", "/auth/refresh", "", body)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var resp struct {
		Data token.TokenPair `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Data.SessionID != pair.SessionID {
		t.Errorf("expected rotation to keep the session, got %s", resp.Data.SessionID)
	}

	// Replaying the consumed token gets the reauth response.
	w = doRequest(r, "POST", "/auth/refresh", "", body)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if !strings.Contains(w.Body.String(), "REAUTH_REQUIRED") {
		t.Errorf("expected a reauth response, got %s", w.Body.String())
	}
}

func TestLogoutEndpoint(t *testing.T) {
	guard := testGuard(t, time.Now)
	r := setupRouter(guard)
	pair := loginPair(t, guard)

	w := doRequest(r, "POST", "/auth/logout", pair.AccessToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	w = doRequest(r, "GET", "/protected", pair.AccessToken, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d after logout", w.Code, http.StatusUnauthorized)
	}
}

func TestSessionsEndpoint(t *testing.T) {
	guard := testGuard(t, time.Now)
	r := setupRouter(guard)
	loginPair(t, guard)
	pair := loginPair(t, guard)

	w := doRequest(r, "GET", "/sessions", pair.AccessToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var resp struct {
		Data []session.Session `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Data) != 2 {
		t.Errorf("expected 2 sessions, got %d", len(resp.Data))
	}
}

func TestRevokeSessionEndpoint(t *testing.T) {
	guard := testGuard(t, time.Now)
	r := setupRouter(guard)
	target := loginPair(t, guard)
	pair := loginPair(t, guard)

	w := doRequest(r, "DELETE", "/sessions/"+target.SessionID, pair.AccessToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}

	// The revoked session's token no longer works.
	w = doRequest(r, "GET", "/protected", target.AccessToken, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d after revocation", w.Code, http.StatusUnauthorized)
	}

	w = doRequest(r, "DELETE", "/sessions/unknown-session", pair.AccessToken, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
	if !strings.Contains(w.Body.String(), "SESSION_NOT_FOUND") {
		t.Errorf("expected a session not found response, got %s", w.Body.String())
	}
}

func TestRequestContextFrom(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/", nil)
	c.Request.Header.Set("User-Agent", desktopUA)
	c.Request.Header.Set("X-Forwarded-For", "203.0.113.10, 10.0.0.1")

	reqCtx := RequestContextFrom(c)
	if reqCtx.IP != "203.0.113.10" {
		t.Errorf("expected the first forwarded address, got %q", reqCtx.IP)
	}
	if reqCtx.UserAgent != desktopUA {
		t.Errorf("unexpected user agent %q", reqCtx.UserAgent)
	}
}

func TestBearerTokenExtraction(t *testing.T) {
	cases := []struct {
		name   string
		header string
		want   string
	}{
		{"valid bearer", "Bearer mytoken123", "mytoken123"},
		{"lowercase scheme", "bearer mytoken123", "mytoken123"},
		{"missing header", "", ""},
		{"wrong scheme", "Basic mytoken123", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest("GET", "/", nil)
			if tc.header != "" {
				c.Request.Header.Set("Authorization", tc.header)
			}

			if got := BearerToken(c); got != tc.want {
				t.Errorf("BearerToken() = %q, want %q", got, tc.want)
			}
		})
	}
}
