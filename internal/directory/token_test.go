// ABOUTME: Unit tests for bearer token issuance
// ABOUTME: Tokens are opaque to consumers; tests only check shape and determinism inputs

package directory

import (
	"strings"
	"testing"
	"time"
)

func TestJWTIssuer_Issue(t *testing.T) {
	issuer := NewJWTIssuer([]byte("test-secret-key-for-token-signing"))

	token, err := issuer.Issue("principal-123", time.Hour)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	if token == "" {
		t.Fatal("Issue() returned empty token")
	}

	// Consumers never parse the token, but it should at least be a
	// well-formed compact JWS (three dot-separated segments).
	if parts := strings.Split(token, "."); len(parts) != 3 {
		t.Errorf("Issue() returned %d segments, want 3", len(parts))
	}
}

func TestJWTIssuer_ZeroTTL(t *testing.T) {
	issuer := NewJWTIssuer([]byte("test-secret-key-for-token-signing"))

	token, err := issuer.Issue("principal-123", 0)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if token == "" {
		t.Fatal("Issue() returned empty token")
	}
}

func TestJWTIssuer_DistinctTokens(t *testing.T) {
	issuer := NewJWTIssuer([]byte("test-secret-key-for-token-signing"))

	a, err := issuer.Issue("principal-a", time.Hour)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	b, err := issuer.Issue("principal-b", time.Hour)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	if a == b {
		t.Error("tokens for different principals should differ")
	}
}
