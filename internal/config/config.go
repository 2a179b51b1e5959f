// Package config loads process-wide settings for the gradevault API.
// Everything is read once at startup and passed to constructors; nothing in
// the core reads the environment at point of use.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const envPrefix = "GRADEVAULT_"

// Config holds runtime settings for the gradevault server.
//
// Fields:
//   - ListenAddr: bind address for the HTTP endpoint.
//   - DatabaseDSN: PostgreSQL DSN (pgx). Empty DSN switches the server to
//     in-memory stores, which is only suitable for development.
//   - TokenSecret: HMAC secret for signing session tokens (HS256).
//   - TokenTTL: session token lifetime.
//   - EncryptionKey: 32-byte AES-256 key for protected content, hex encoded
//     in the environment.
//   - SigningKey: independent HMAC key for content integrity signatures,
//     hex encoded in the environment.
//   - OTPTTL: one-time passcode lifetime.
//   - LockoutThreshold / LockoutDuration: consecutive failures before an
//     account locks, and for how long.
type Config struct {
	ListenAddr       string
	DatabaseDSN      string
	TokenSecret      string
	TokenTTL         time.Duration
	EncryptionKey    []byte
	SigningKey       []byte
	OTPTTL           time.Duration
	LockoutThreshold int
	LockoutDuration  time.Duration
}

// Load builds a Config from the environment, applying defaults for anything
// unset. It fails on malformed values rather than guessing.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:       getEnv("ADDR", ":8080"),
		DatabaseDSN:      getEnv("PG_DSN", ""),
		TokenSecret:      getEnv("TOKEN_SECRET", ""),
		TokenTTL:         24 * time.Hour,
		OTPTTL:           5 * time.Minute,
		LockoutThreshold: 3,
		LockoutDuration:  15 * time.Minute,
	}

	if cfg.TokenSecret == "" {
		return nil, errors.New("config: " + envPrefix + "TOKEN_SECRET is required")
	}

	var err error
	if cfg.EncryptionKey, err = keyFromEnv("ENCRYPTION_KEY"); err != nil {
		return nil, err
	}
	if cfg.SigningKey, err = keyFromEnv("SIGNING_KEY"); err != nil {
		return nil, err
	}

	if cfg.TokenTTL, err = durationFromEnv("TOKEN_TTL", cfg.TokenTTL); err != nil {
		return nil, err
	}
	if cfg.OTPTTL, err = durationFromEnv("OTP_TTL", cfg.OTPTTL); err != nil {
		return nil, err
	}
	if cfg.LockoutDuration, err = durationFromEnv("LOCKOUT_DURATION", cfg.LockoutDuration); err != nil {
		return nil, err
	}
	if raw := getEnv("LOCKOUT_THRESHOLD", ""); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("config: invalid %sLOCKOUT_THRESHOLD %q", envPrefix, raw)
		}
		cfg.LockoutThreshold = n
	}
	return cfg, nil
}

func getEnv(name, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(envPrefix + name)); v != "" {
		return v
	}
	return fallback
}

func keyFromEnv(name string) ([]byte, error) {
	raw := getEnv(name, "")
	if raw == "" {
		return nil, errors.New("config: " + envPrefix + name + " is required")
	}
	key, err := hex.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("config: %s%s is not valid hex: %w", envPrefix, name, err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("config: %s%s must decode to 32 bytes, got %d", envPrefix, name, len(key))
	}
	return key, nil
}

func durationFromEnv(name string, fallback time.Duration) (time.Duration, error) {
	raw := getEnv(name, "")
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("config: invalid %s%s %q", envPrefix, name, raw)
	}
	return d, nil
}
