package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kochabx/authguard/session"
)

func testSession(id, userID string) *session.Session {
	now := time.Now()
	return &session.Session{
		ID:           id,
		UserID:       userID,
		IP:           "203.0.113.10",
		CreatedAt:    now,
		LastActivity: now,
		RiskScore:    10,
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	s := testSession("s1", "u1")
	if err := m.SaveSession(ctx, s); err != nil {
		t.Fatal(err)
	}

	got, err := m.GetSession(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if got.UserID != "u1" {
		t.Errorf("expected user u1, got %s", got.UserID)
	}

	// The store hands out clones; mutating one must not leak back.
	got.RiskScore = 99
	again, err := m.GetSession(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if again.RiskScore != 10 {
		t.Errorf("expected stored session untouched, got risk %d", again.RiskScore)
	}

	if _, err := m.GetSession(ctx, "missing"); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreTokenIndex(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	if err := m.SaveSession(ctx, testSession("s1", "u1")); err != nil {
		t.Fatal(err)
	}
	if err := m.IndexToken(ctx, "hash-1", "s1"); err != nil {
		t.Fatal(err)
	}

	id, err := m.SessionIDForToken(ctx, "hash-1")
	if err != nil {
		t.Fatal(err)
	}
	if id != "s1" {
		t.Errorf("expected s1, got %s", id)
	}

	if err := m.UnindexToken(ctx, "hash-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.SessionIDForToken(ctx, "hash-1"); !errors.Is(err, session.ErrTokenNotFound) {
		t.Errorf("expected ErrTokenNotFound, got %v", err)
	}
}

func TestMemoryStoreDeleteRemovesIndexes(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	s := testSession("s1", "u1")
	s.AccessTokenHashes = []string{"hash-a"}
	s.RefreshTokenHashes = []string{"hash-r"}
	if err := m.SaveSession(ctx, s); err != nil {
		t.Fatal(err)
	}
	for _, hash := range s.TokenHashes() {
		if err := m.IndexToken(ctx, hash, s.ID); err != nil {
			t.Fatal(err)
		}
	}

	if err := m.DeleteSession(ctx, "s1"); err != nil {
		t.Fatal(err)
	}

	if _, err := m.SessionIDForToken(ctx, "hash-a"); !errors.Is(err, session.ErrTokenNotFound) {
		t.Errorf("expected the token index cleared, got %v", err)
	}
	ids, err := m.SessionIDsForUser(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 0 {
		t.Errorf("expected the user index cleared, got %v", ids)
	}

	if err := m.DeleteSession(ctx, "s1"); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("expected deleting twice to report ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreUserListing(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	for _, id := range []string{"s1", "s2"} {
		if err := m.SaveSession(ctx, testSession(id, "u1")); err != nil {
			t.Fatal(err)
		}
	}
	if err := m.SaveSession(ctx, testSession("s3", "u2")); err != nil {
		t.Fatal(err)
	}

	ids, err := m.SessionIDsForUser(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 {
		t.Errorf("expected 2 sessions for u1, got %d", len(ids))
	}

	all, err := m.ListSessionIDs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 sessions in total, got %d", len(all))
	}
}
