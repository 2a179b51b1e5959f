package auth

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"gradevault.org/internal/authz"
)

func TestTokenIssueAndVerify(t *testing.T) {
	ti, err := NewTokenIssuer("test-secret", 24*time.Hour)
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}

	token, expiresAt, err := ti.Issue("acc-1", "alice", authz.RoleSubmitter)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatalf("expected future expiry, got %v", expiresAt)
	}

	claims, err := ti.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject != "acc-1" || claims.Username != "alice" || claims.Role != authz.RoleSubmitter {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.ID == "" {
		t.Fatal("expected a token id")
	}
}

func TestTokenVerifyExpired(t *testing.T) {
	ti, err := NewTokenIssuer("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	token, _, err := ti.Issue("acc-1", "alice", authz.RoleSubmitter)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	ti.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := ti.Verify(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestTokenVerifyWrongSecret(t *testing.T) {
	issuer, _ := NewTokenIssuer("secret-a", time.Hour)
	verifier, _ := NewTokenIssuer("secret-b", time.Hour)

	token, _, err := issuer.Issue("acc-1", "alice", authz.RoleSubmitter)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := verifier.Verify(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestTokenVerifyTamperedRole(t *testing.T) {
	ti, _ := NewTokenIssuer("test-secret", time.Hour)
	token, _, err := ti.Issue("acc-1", "alice", authz.RoleSubmitter)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape: %s", token)
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	var claims map[string]any
	if err := json.Unmarshal(payload, &claims); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	claims["role"] = string(authz.RoleAuditor)
	forged, err := json.Marshal(claims)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	parts[1] = base64.RawURLEncoding.EncodeToString(forged)

	if _, err := ti.Verify(strings.Join(parts, ".")); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for tampered claim, got %v", err)
	}
}

func TestTokenVerifyMalformed(t *testing.T) {
	ti, _ := NewTokenIssuer("test-secret", time.Hour)
	for _, token := range []string{"", "garbage", "a.b", "a.b.c"} {
		if _, err := ti.Verify(token); !errors.Is(err, ErrTokenInvalid) {
			t.Fatalf("Verify(%q): expected ErrTokenInvalid, got %v", token, err)
		}
	}
}
