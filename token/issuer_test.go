package token

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func testConfig() *Config {
	return &Config{
		AccessSecret:  "test-access-secret-0123456789abcdef",
		RefreshSecret: "test-refresh-secret-0123456789abcdef",
	}
}

func testClaims() *Claims {
	return &Claims{
		UserID:      "user-1",
		Email:       "teacher@example.com",
		Name:        "Jane Teacher",
		Role:        RoleTeacher,
		SessionID:   "session-1",
		Fingerprint: "fp-1",
		IP:          "203.0.113.10",
	}
}

func TestIssueAndVerify(t *testing.T) {
	issuer, err := New(testConfig())
	if err != nil {
		t.Fatal(err)
	}

	raw, err := issuer.Issue(KindAccess, testClaims())
	if err != nil {
		t.Fatal(err)
	}

	claims, err := issuer.Verify(raw, KindAccess)
	if err != nil {
		t.Fatal(err)
	}

	if claims.UserID != "user-1" {
		t.Errorf("expected UserID user-1, got %s", claims.UserID)
	}
	if claims.Kind != KindAccess {
		t.Errorf("expected kind %s, got %s", KindAccess, claims.Kind)
	}
	if claims.ID == "" {
		t.Error("expected a token id to be stamped")
	}
	if claims.IssuedAt == nil || claims.ExpiresAt == nil || claims.NotBefore == nil {
		t.Error("expected iat, exp and nbf to be stamped")
	}
	if claims.SessionID != "session-1" {
		t.Errorf("expected session id to survive the round trip, got %s", claims.SessionID)
	}
}

func TestVerifyWrongKind(t *testing.T) {
	issuer, err := New(testConfig())
	if err != nil {
		t.Fatal(err)
	}

	refresh, err := issuer.Issue(KindRefresh, testClaims())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := issuer.Verify(refresh, KindAccess); !errors.Is(err, ErrWrongTokenKind) {
		t.Errorf("expected ErrWrongTokenKind, got %v", err)
	}

	access, err := issuer.Issue(KindAccess, testClaims())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := issuer.Verify(access, KindRefresh); !errors.Is(err, ErrWrongTokenKind) {
		t.Errorf("expected ErrWrongTokenKind, got %v", err)
	}
}

func TestVerifyExpired(t *testing.T) {
	current := time.Now()
	issuer, err := New(testConfig(), WithClock(func() time.Time { return current }))
	if err != nil {
		t.Fatal(err)
	}

	raw, err := issuer.Issue(KindAccess, testClaims())
	if err != nil {
		t.Fatal(err)
	}

	current = current.Add(issuer.AccessTokenTTL() + time.Minute)

	if _, err := issuer.Verify(raw, KindAccess); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("expected ErrExpiredToken, got %v", err)
	}
}

func TestVerifyAudience(t *testing.T) {
	config := testConfig()
	config.Audience = []string{"reports-api"}
	issuer, err := New(config)
	if err != nil {
		t.Fatal(err)
	}

	raw, err := issuer.Issue(KindAccess, testClaims())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := issuer.Verify(raw, KindAccess); err != nil {
		t.Errorf("expected the minted audience to verify, got %v", err)
	}

	otherConfig := testConfig()
	otherConfig.Audience = []string{"admin-api"}
	other, err := New(otherConfig)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := other.Verify(raw, KindAccess); !errors.Is(err, ErrMalformedToken) {
		t.Errorf("expected ErrMalformedToken for a foreign audience, got %v", err)
	}
}

func TestVerifyTampered(t *testing.T) {
	issuer, err := New(testConfig())
	if err != nil {
		t.Fatal(err)
	}

	raw, err := issuer.Issue(KindAccess, testClaims())
	if err != nil {
		t.Fatal(err)
	}

	tampered := raw[:len(raw)-2] + "xx"
	if _, err := issuer.Verify(tampered, KindAccess); !errors.Is(err, ErrMalformedToken) {
		t.Errorf("expected ErrMalformedToken, got %v", err)
	}

	if _, err := issuer.Verify("not-a-token", KindAccess); !errors.Is(err, ErrMalformedToken) {
		t.Errorf("expected ErrMalformedToken, got %v", err)
	}
}

func TestConfigFailFast(t *testing.T) {
	cases := []struct {
		name   string
		config *Config
	}{
		{"missing secrets", &Config{}},
		{"identical secrets", &Config{
			AccessSecret:  "the-same-secret-0123456789abcdef!",
			RefreshSecret: "the-same-secret-0123456789abcdef!",
		}},
		{"short secrets", &Config{
			AccessSecret:  "short-a",
			RefreshSecret: "short-b",
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.config); err == nil {
				t.Error("expected a configuration error")
			}
		})
	}
}

func TestIssuePairGeneratesSessionID(t *testing.T) {
	issuer, err := New(testConfig())
	if err != nil {
		t.Fatal(err)
	}

	claims := testClaims()
	claims.SessionID = ""

	pair, err := issuer.IssuePair(claims)
	if err != nil {
		t.Fatal(err)
	}
	if pair.SessionID == "" {
		t.Fatal("expected a generated session id")
	}

	access, err := issuer.Verify(pair.AccessToken, KindAccess)
	if err != nil {
		t.Fatal(err)
	}
	refresh, err := issuer.Verify(pair.RefreshToken, KindRefresh)
	if err != nil {
		t.Fatal(err)
	}
	if access.SessionID != pair.SessionID || refresh.SessionID != pair.SessionID {
		t.Error("expected both tokens bound to the pair's session id")
	}
}

func TestRefreshKeepsSessionID(t *testing.T) {
	issuer, err := New(testConfig())
	if err != nil {
		t.Fatal(err)
	}

	pair, err := issuer.IssuePair(testClaims())
	if err != nil {
		t.Fatal(err)
	}

	newPair, consumed, err := issuer.Refresh(pair.RefreshToken)
	if err != nil {
		t.Fatal(err)
	}

	if consumed.SessionID != pair.SessionID {
		t.Errorf("expected consumed claims bound to %s, got %s", pair.SessionID, consumed.SessionID)
	}
	if newPair.SessionID != pair.SessionID {
		t.Errorf("expected rotation to keep session id, got %s", newPair.SessionID)
	}
	if newPair.RefreshToken == pair.RefreshToken {
		t.Error("expected a new refresh token")
	}

	if _, _, err := issuer.Refresh(pair.AccessToken); !errors.Is(err, ErrWrongTokenKind) {
		t.Errorf("expected ErrWrongTokenKind refreshing with an access token, got %v", err)
	}
}

func TestHash(t *testing.T) {
	h1 := Hash("raw-token")
	h2 := Hash("raw-token")
	if h1 != h2 {
		t.Error("expected a deterministic hash")
	}
	if h1 == "raw-token" || len(h1) != 64 {
		t.Errorf("expected a 64 char hex digest, got %q", h1)
	}
	if strings.Contains(h1, "raw-token") {
		t.Error("hash must not contain the raw token")
	}
	if !HashEqual(h1, h2) {
		t.Error("expected HashEqual to match identical digests")
	}
	if HashEqual(h1, Hash("other-token")) {
		t.Error("expected HashEqual to reject different digests")
	}
}
