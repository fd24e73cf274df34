package service

import (
	"chatline-server/internal/config"
	"chatline-server/internal/domain"
	"errors"
	"testing"
	"time"
)

func testTokenService(ttl time.Duration) *TokenService {
	return NewTokenService(&config.Config{
		AccessTokenSecret: "test-secret",
		TokenTTL:          ttl,
	})
}

// TestTokenRoundTrip verifies an issued token verifies back to the same
// user id.
func TestTokenRoundTrip(t *testing.T) {
	svc := testTokenService(time.Hour)
	user, err := domain.NewUser("alice", "", "secret-pass")
	if err != nil {
		t.Fatalf("NewUser failed: %v", err)
	}

	token, err := svc.Issue(user)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	userID, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if userID != user.ID {
		t.Fatalf("verified id %s, want %s", userID, user.ID)
	}
}

// TestTokenExpired verifies an expired token maps to ErrUnauthorized.
func TestTokenExpired(t *testing.T) {
	svc := testTokenService(-time.Minute)
	user, _ := domain.NewUser("alice", "", "secret-pass")

	token, err := svc.Issue(user)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if _, err := svc.Verify(token); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for expired token, got %v", err)
	}
}

// TestTokenGarbage verifies malformed and foreign tokens are rejected.
func TestTokenGarbage(t *testing.T) {
	svc := testTokenService(time.Hour)

	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := svc.Verify(token); !errors.Is(err, domain.ErrUnauthorized) {
			t.Fatalf("Verify(%q): expected ErrUnauthorized, got %v", token, err)
		}
	}

	// Signed with a different secret.
	other := NewTokenService(&config.Config{AccessTokenSecret: "other-secret", TokenTTL: time.Hour})
	user, _ := domain.NewUser("alice", "", "secret-pass")
	token, err := other.Issue(user)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, err := svc.Verify(token); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for wrong-secret token, got %v", err)
	}
}
