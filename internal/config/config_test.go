package config

import (
	"strings"
	"testing"
	"time"
)

const testKeyHex = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("GRADEVAULT_TOKEN_SECRET", "test-secret")
	t.Setenv("GRADEVAULT_ENCRYPTION_KEY", testKeyHex)
	t.Setenv("GRADEVAULT_SIGNING_KEY", strings.Repeat("ff", 32))
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":8080" {
		t.Fatalf("unexpected listen addr: %s", cfg.ListenAddr)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Fatalf("unexpected token ttl: %v", cfg.TokenTTL)
	}
	if cfg.OTPTTL != 5*time.Minute {
		t.Fatalf("unexpected otp ttl: %v", cfg.OTPTTL)
	}
	if cfg.LockoutThreshold != 3 || cfg.LockoutDuration != 15*time.Minute {
		t.Fatalf("unexpected lockout defaults: %d %v", cfg.LockoutThreshold, cfg.LockoutDuration)
	}
	if len(cfg.EncryptionKey) != 32 || len(cfg.SigningKey) != 32 {
		t.Fatalf("keys not decoded: %d %d", len(cfg.EncryptionKey), len(cfg.SigningKey))
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("GRADEVAULT_TOKEN_TTL", "1h")
	t.Setenv("GRADEVAULT_OTP_TTL", "90s")
	t.Setenv("GRADEVAULT_LOCKOUT_THRESHOLD", "5")
	t.Setenv("GRADEVAULT_LOCKOUT_DURATION", "30m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TokenTTL != time.Hour || cfg.OTPTTL != 90*time.Second {
		t.Fatalf("overrides not applied: %v %v", cfg.TokenTTL, cfg.OTPTTL)
	}
	if cfg.LockoutThreshold != 5 || cfg.LockoutDuration != 30*time.Minute {
		t.Fatalf("lockout overrides not applied: %d %v", cfg.LockoutThreshold, cfg.LockoutDuration)
	}
}

func TestLoadRejectsMissingSecret(t *testing.T) {
	t.Setenv("GRADEVAULT_TOKEN_SECRET", "")
	t.Setenv("GRADEVAULT_ENCRYPTION_KEY", testKeyHex)
	t.Setenv("GRADEVAULT_SIGNING_KEY", testKeyHex)

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing token secret")
	}
}

func TestLoadRejectsBadKey(t *testing.T) {
	setRequired(t)
	t.Setenv("GRADEVAULT_ENCRYPTION_KEY", "deadbeef")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for short key")
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	setRequired(t)
	t.Setenv("GRADEVAULT_OTP_TTL", "soon")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for malformed duration")
	}
}
