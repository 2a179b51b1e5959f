package auth

import (
	"time"

	"gradevault.org/internal/authz"
)

// Account is the identity record behind a portal login. The password hash is
// the only credential material ever stored; it never appears in logs or
// API payloads.
type Account struct {
	ID             string     `json:"id"`
	Username       string     `json:"username"`
	PasswordHash   string     `json:"-"`
	Role           authz.Role `json:"role"`
	MFAEnabled     bool       `json:"mfa_enabled"`
	FailedAttempts int        `json:"-"`
	LockedUntil    *time.Time `json:"-"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Challenge is a single-use second-factor code tied to one pending login.
type Challenge struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	Code      string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	Consumed  bool      `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
