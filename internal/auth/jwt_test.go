package auth

import (
	"testing"
	"time"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := NewAccessToken("secret", "issuer", time.Minute, "user-1", "maria", "professor")
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	claims, err := ParseToken("secret", token)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if claims.Subject != "user-1" || claims.Username != "maria" || claims.Role != "professor" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	token, err := NewAccessToken("secret", "issuer", -time.Minute, "user-1", "maria", "aluno")
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	if _, err := ParseToken("secret", token); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestWrongSecretRejected(t *testing.T) {
	token, err := NewAccessToken("secret", "issuer", time.Minute, "user-1", "maria", "aluno")
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	if _, err := ParseToken("other-secret", token); err == nil {
		t.Fatalf("expected bad signature to be rejected")
	}
}
