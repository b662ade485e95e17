package store

import (
	"testing"
	"time"
)

func seedUser(t *testing.T, s *UserStore, email string) string {
	t.Helper()
	u, err := s.Create(email, "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u.ID
}

func TestSessionCreateAndGetByToken(t *testing.T) {
	db := setupTestDB(t)
	userID := seedUser(t, NewUserStore(db), "alice@example.com")
	s := NewSessionStore(db)

	sess, err := s.Create(userID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if len(sess.Token) != 64 {
		t.Errorf("token length = %d, want 64 hex chars", len(sess.Token))
	}
	if !sess.ExpiresAt.After(time.Now()) {
		t.Error("new session must not be expired")
	}

	got, err := s.GetByToken(sess.Token)
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if got == nil || got.ID != sess.ID {
		t.Fatalf("got = %v, want session %s", got, sess.ID)
	}
	if got.UserID != userID {
		t.Errorf("user_id = %s, want %s", got.UserID, userID)
	}
}

func TestSessionTokensAreUnique(t *testing.T) {
	db := setupTestDB(t)
	userID := seedUser(t, NewUserStore(db), "alice@example.com")
	s := NewSessionStore(db)

	a, err := s.Create(userID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	b, err := s.Create(userID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if a.Token == b.Token {
		t.Error("two sessions must not share a token")
	}
}

func TestSessionGetByTokenExpired(t *testing.T) {
	db := setupTestDB(t)
	userID := seedUser(t, NewUserStore(db), "alice@example.com")
	s := NewSessionStore(db)

	sess, err := s.Create(userID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	past := time.Now().UTC().Add(-time.Hour)
	if _, err := db.Exec(`UPDATE sessions SET expires_at = ? WHERE id = ?`, past, sess.ID); err != nil {
		t.Fatalf("expire session: %v", err)
	}

	got, err := s.GetByToken(sess.Token)
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if got != nil {
		t.Error("expired session must not resolve")
	}
}

func TestSessionDelete(t *testing.T) {
	db := setupTestDB(t)
	userID := seedUser(t, NewUserStore(db), "alice@example.com")
	s := NewSessionStore(db)

	sess, err := s.Create(userID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if err := s.Delete(sess.ID); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	got, err := s.GetByToken(sess.Token)
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if got != nil {
		t.Error("deleted session must not resolve")
	}
}

func TestSessionDeleteExpired(t *testing.T) {
	db := setupTestDB(t)
	userID := seedUser(t, NewUserStore(db), "alice@example.com")
	s := NewSessionStore(db)

	live, err := s.Create(userID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	dead, err := s.Create(userID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	past := time.Now().UTC().Add(-time.Hour)
	if _, err := db.Exec(`UPDATE sessions SET expires_at = ? WHERE id = ?`, past, dead.ID); err != nil {
		t.Fatalf("expire session: %v", err)
	}

	n, err := s.DeleteExpired()
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if n != 1 {
		t.Errorf("purged = %d, want 1", n)
	}
	if got, _ := s.GetByToken(live.Token); got == nil {
		t.Error("live session should survive the purge")
	}
}
