package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestTokenIssueAndParse(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	userID := uuid.New()

	token, err := issuer.Issue(userID, "user@example.com", "email")
	if err != nil {
		t.Fatalf("Issue() returned error: %v", err)
	}

	claims, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("Parse() returned error: %v", err)
	}
	if claims.UserID != userID.String() {
		t.Fatalf("UserID = %q, want %q", claims.UserID, userID)
	}
	if claims.Email != "user@example.com" || claims.Provider != "email" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestTokenParseRejectsWrongSecret(t *testing.T) {
	token, err := NewTokenIssuer("secret-a", time.Hour).Issue(uuid.New(), "user@example.com", "email")
	if err != nil {
		t.Fatalf("Issue() returned error: %v", err)
	}

	if _, err := NewTokenIssuer("secret-b", time.Hour).Parse(token); err == nil {
		t.Fatal("expected parse to fail with a different secret")
	}
}

func TestTokenParseRejectsExpired(t *testing.T) {
	token, err := NewTokenIssuer("test-secret", -time.Minute).Issue(uuid.New(), "user@example.com", "email")
	if err != nil {
		t.Fatalf("Issue() returned error: %v", err)
	}

	if _, err := NewTokenIssuer("test-secret", time.Hour).Parse(token); err == nil {
		t.Fatal("expected parse to fail for an expired token")
	}
}

func TestTokenDefaultTTL(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", 0)
	if issuer.ttl != 7*24*time.Hour {
		t.Fatalf("default ttl = %v, want 7 days", issuer.ttl)
	}
}
