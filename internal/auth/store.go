package auth

import (
	"context"
	"time"
)

// Store describes persistence required by the authentication core. The
// lockout and challenge mutations are conditional single-record updates so
// concurrent logins for the same account cannot lose writes.
type Store interface {
	Accounts() AccountStore
	Challenges() ChallengeStore
}

// AccountStore manages identity records.
type AccountStore interface {
	Create(ctx context.Context, a *Account) error
	Find(ctx context.Context, id string) (*Account, error)
	FindByUsername(ctx context.Context, username string) (*Account, error)

	// RecordFailure atomically increments the failure counter and, when the
	// counter reaches threshold, sets the lock. It returns the counter and
	// lock state after the update.
	RecordFailure(ctx context.Context, id string, threshold int, lockUntil time.Time) (int, *time.Time, error)

	// ResetLockout clears the counter and lock after a full login.
	ResetLockout(ctx context.Context, id string) error

	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

// ChallengeStore manages one-time passcodes.
type ChallengeStore interface {
	Create(ctx context.Context, ch *Challenge) error

	// Latest returns the newest challenge for the account regardless of
	// consumed state, or ErrNotFound.
	Latest(ctx context.Context, accountID string) (*Challenge, error)

	// Consume flips the consumed flag exactly once; a second attempt
	// reports ErrChallengeConsumed.
	Consume(ctx context.Context, id string) error

	// InvalidateActive consumes every outstanding unconsumed challenge for
	// the account. Called before issuing a fresh one.
	InvalidateActive(ctx context.Context, accountID string) error
}
