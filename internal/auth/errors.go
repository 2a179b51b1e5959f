package auth

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidCredential covers unknown usernames and wrong passwords
	// alike; callers must not be able to tell the two apart.
	ErrInvalidCredential = errors.New("auth: invalid credential")

	// ErrPolicyViolation indicates rejected registration input (password
	// policy, unknown role, taken username).
	ErrPolicyViolation = errors.New("auth: policy violation")

	ErrChallengeExpired  = errors.New("auth: challenge expired")
	ErrChallengeMismatch = errors.New("auth: challenge mismatch")
	ErrChallengeConsumed = errors.New("auth: challenge already consumed")

	ErrTokenInvalid = errors.New("auth: token invalid")
	ErrTokenExpired = errors.New("auth: token expired")

	ErrAccountLocked = errors.New("auth: account locked")
	ErrNotFound      = errors.New("auth: not found")
	ErrUsernameTaken = errors.New("auth: username already taken")
)

// AccountLockedError carries how long the lock still holds. It matches
// ErrAccountLocked under errors.Is.
type AccountLockedError struct {
	Remaining time.Duration
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("auth: account locked for another %s", e.Remaining.Round(time.Second))
}

func (e *AccountLockedError) Is(target error) bool {
	return target == ErrAccountLocked
}
