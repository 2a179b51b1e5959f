package auth

import (
	"errors"
	"testing"
)

func TestHashAndVerifyPassword(t *testing.T) {
	const password = "Str0ng!Passw0rd"

	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == password {
		t.Fatal("hash must not equal the plaintext")
	}
	if err := VerifyPassword(hash, password); err != nil {
		t.Fatalf("VerifyPassword: %v", err)
	}
	if err := VerifyPassword(hash, "Str0ng!Passw0re"); err == nil {
		t.Fatal("expected mismatch for wrong password")
	}
}

func TestHashPasswordSaltsPerCall(t *testing.T) {
	const password = "Str0ng!Passw0rd"

	h1, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	h2, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if h1 == h2 {
		t.Fatal("two hashes of the same password must differ (per-password salt)")
	}
}

func TestHashPasswordEmpty(t *testing.T) {
	if _, err := HashPassword(""); err == nil {
		t.Fatal("expected error for empty password")
	}
}

func TestValidatePassword(t *testing.T) {
	valid := []string{
		"Str0ng!Passw0rd",
		"aA1!aA1!aA1!",
		"Correct-Horse9battery",
	}
	for _, p := range valid {
		if err := ValidatePassword(p); err != nil {
			t.Fatalf("ValidatePassword(%q): %v", p, err)
		}
	}

	invalid := []string{
		"",
		"Sh0rt!aB",              // too short
		"alllowercase1!aa",      // no upper
		"ALLUPPERCASE1!AA",      // no lower
		"NoDigitsHere!!ab",      // no digit
		"NoSymbolsHere12ab",     // no symbol
	}
	for _, p := range invalid {
		err := ValidatePassword(p)
		if err == nil {
			t.Fatalf("ValidatePassword(%q): expected error", p)
		}
		if !errors.Is(err, ErrPolicyViolation) {
			t.Fatalf("ValidatePassword(%q): expected ErrPolicyViolation, got %v", p, err)
		}
	}
}
