package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"gradevault.org/internal/audit"
	"gradevault.org/internal/authz"
)

const (
	defaultOTPTTL          = 5 * time.Minute
	defaultLockThreshold   = 3
	defaultLockoutDuration = 15 * time.Minute
)

// Service drives the two-factor login flow: password check, one-time
// passcode, lockout bookkeeping and session token issuance. Every state
// transition, including every failure, produces exactly one audit record.
type Service struct {
	store  Store
	tokens *TokenIssuer
	sink   audit.Recorder

	otpTTL        time.Duration
	lockThreshold int
	lockDuration  time.Duration
	now           func() time.Time

	// deliverCode hands a fresh passcode to the out-of-scope delivery
	// collaborator (mail, SMS). Never exposed over the API.
	deliverCode func(accountID, code string)
}

// Option configures Service behavior.
type Option func(*Service) error

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(s *Service) error {
		if fn != nil {
			s.now = fn
		}
		return nil
	}
}

// WithOTPTTL configures challenge lifetime.
func WithOTPTTL(ttl time.Duration) Option {
	return func(s *Service) error {
		if ttl <= 0 {
			return errors.New("auth: otp ttl must be greater than zero")
		}
		s.otpTTL = ttl
		return nil
	}
}

// WithLockout configures the failure threshold and lock duration.
func WithLockout(threshold int, duration time.Duration) Option {
	return func(s *Service) error {
		if threshold < 1 || duration <= 0 {
			return errors.New("auth: invalid lockout settings")
		}
		s.lockThreshold = threshold
		s.lockDuration = duration
		return nil
	}
}

// WithCodeDelivery sets the passcode delivery hook.
func WithCodeDelivery(fn func(accountID, code string)) Option {
	return func(s *Service) error {
		s.deliverCode = fn
		return nil
	}
}

// NewService constructs the authentication service.
func NewService(store Store, tokens *TokenIssuer, sink audit.Recorder, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("auth: store is required")
	}
	if tokens == nil {
		return nil, errors.New("auth: token issuer is required")
	}
	if sink == nil {
		return nil, errors.New("auth: audit sink is required")
	}
	svc := &Service{
		store:         store,
		tokens:        tokens,
		sink:          sink,
		otpTTL:        defaultOTPTTL,
		lockThreshold: defaultLockThreshold,
		lockDuration:  defaultLockoutDuration,
		now:           time.Now,
	}
	for _, opt := range opts {
		if err := opt(svc); err != nil {
			return nil, err
		}
	}
	return svc, nil
}

// Register creates an account after credential-policy validation. The
// password policy is enforced here and on password change, never on the
// verification path.
func (s *Service) Register(ctx context.Context, username, password string, role authz.Role, origin audit.Origin) (*Account, error) {
	username = strings.TrimSpace(strings.ToLower(username))
	if username == "" {
		s.sink.Record(ctx, "", "auth.register.denied", "account", "empty username", origin)
		return nil, fmt.Errorf("%w: username is required", ErrPolicyViolation)
	}
	if !role.Valid() {
		s.sink.Record(ctx, "", "auth.register.denied", "account", "unknown role "+string(role), origin)
		return nil, fmt.Errorf("%w: unknown role %q", ErrPolicyViolation, role)
	}
	if err := ValidatePassword(password); err != nil {
		s.sink.Record(ctx, "", "auth.register.denied", "account", "password policy: "+policyDetail(err), origin)
		return nil, err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	account := &Account{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		MFAEnabled:   true,
	}
	if err := s.store.Accounts().Create(ctx, account); err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			s.sink.Record(ctx, "", "auth.register.denied", "account", "username taken", origin)
			return nil, fmt.Errorf("%w: username is taken", ErrPolicyViolation)
		}
		return nil, err
	}
	s.sink.Record(ctx, account.ID, "auth.register", "account", "role "+string(role), origin)
	return account, nil
}

// Login verifies the first factor and, on success, issues a one-time
// passcode challenge. Issuing a new challenge invalidates all prior
// unconsumed challenges for the account.
func (s *Service) Login(ctx context.Context, username, password string, origin audit.Origin) (*Challenge, error) {
	username = strings.TrimSpace(strings.ToLower(username))
	account, err := s.store.Accounts().FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.sink.Record(ctx, "", "auth.login.denied", "account", "unknown username", origin)
			return nil, ErrInvalidCredential
		}
		return nil, err
	}

	now := s.now().UTC()
	if account.LockedUntil != nil && now.Before(*account.LockedUntil) {
		remaining := account.LockedUntil.Sub(now)
		s.sink.Record(ctx, account.ID, "auth.login.blocked", "account",
			fmt.Sprintf("locked for another %s", remaining.Round(time.Second)), origin)
		return nil, &AccountLockedError{Remaining: remaining}
	}

	if err := VerifyPassword(account.PasswordHash, password); err != nil {
		attempts, locked, ferr := s.store.Accounts().RecordFailure(ctx, account.ID, s.lockThreshold, now.Add(s.lockDuration))
		if ferr != nil {
			return nil, ferr
		}
		detail := fmt.Sprintf("password mismatch, attempt %d", attempts)
		if locked != nil && now.Before(*locked) {
			detail += ", account now locked"
		}
		s.sink.Record(ctx, account.ID, "auth.login.denied", "account", detail, origin)
		return nil, ErrInvalidCredential
	}

	return s.issueChallenge(ctx, account, origin)
}

func (s *Service) issueChallenge(ctx context.Context, account *Account, origin audit.Origin) (*Challenge, error) {
	if err := s.store.Challenges().InvalidateActive(ctx, account.ID); err != nil {
		return nil, err
	}
	code, err := generateCode()
	if err != nil {
		return nil, err
	}
	ch := &Challenge{
		ID:        uuid.NewString(),
		AccountID: account.ID,
		Code:      code,
		ExpiresAt: s.now().UTC().Add(s.otpTTL),
	}
	if err := s.store.Challenges().Create(ctx, ch); err != nil {
		return nil, err
	}
	s.sink.Record(ctx, account.ID, "auth.challenge.issued", "account",
		"challenge "+ch.ID, origin)
	if s.deliverCode != nil {
		s.deliverCode(account.ID, code)
	}
	return ch, nil
}

// VerifyChallenge validates the second factor and completes the login. On
// success the lockout counter resets and a signed session token is minted.
func (s *Service) VerifyChallenge(ctx context.Context, accountID, code string, origin audit.Origin) (string, time.Time, error) {
	ch, err := s.store.Challenges().Latest(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.sink.Record(ctx, accountID, "auth.challenge.denied", "account", "no pending challenge", origin)
			return "", time.Time{}, ErrChallengeMismatch
		}
		return "", time.Time{}, err
	}

	now := s.now().UTC()
	switch {
	case !now.Before(ch.ExpiresAt):
		// Expired never satisfies verification, consumed or not.
		s.sink.Record(ctx, accountID, "auth.challenge.denied", "account", "challenge expired", origin)
		return "", time.Time{}, ErrChallengeExpired
	case ch.Consumed && ch.Code == code:
		s.sink.Record(ctx, accountID, "auth.challenge.denied", "account", "challenge replayed", origin)
		return "", time.Time{}, ErrChallengeConsumed
	case ch.Code != code:
		s.sink.Record(ctx, accountID, "auth.challenge.denied", "account", "code mismatch", origin)
		return "", time.Time{}, ErrChallengeMismatch
	}

	// Conditional consume; a concurrent verification of the same challenge
	// loses here.
	if err := s.store.Challenges().Consume(ctx, ch.ID); err != nil {
		if errors.Is(err, ErrChallengeConsumed) {
			s.sink.Record(ctx, accountID, "auth.challenge.denied", "account", "challenge replayed", origin)
			return "", time.Time{}, ErrChallengeConsumed
		}
		return "", time.Time{}, err
	}

	account, err := s.store.Accounts().Find(ctx, accountID)
	if err != nil {
		return "", time.Time{}, err
	}
	if err := s.store.Accounts().ResetLockout(ctx, account.ID); err != nil {
		return "", time.Time{}, err
	}

	token, expiresAt, err := s.tokens.Issue(account.ID, account.Username, account.Role)
	if err != nil {
		return "", time.Time{}, err
	}
	s.sink.Record(ctx, account.ID, "auth.login", "account", "two-factor login completed", origin)
	return token, expiresAt, nil
}

// Authenticate verifies a session token presented on a request.
func (s *Service) Authenticate(token string) (*Claims, error) {
	return s.tokens.Verify(token)
}

// ChangePassword rotates the password after re-verifying the current one.
func (s *Service) ChangePassword(ctx context.Context, accountID, current, next string, origin audit.Origin) error {
	account, err := s.store.Accounts().Find(ctx, accountID)
	if err != nil {
		return err
	}
	if err := VerifyPassword(account.PasswordHash, current); err != nil {
		s.sink.Record(ctx, account.ID, "auth.password.denied", "account", "current password mismatch", origin)
		return ErrInvalidCredential
	}
	if err := ValidatePassword(next); err != nil {
		s.sink.Record(ctx, account.ID, "auth.password.denied", "account", "password policy: "+policyDetail(err), origin)
		return err
	}
	hash, err := HashPassword(next)
	if err != nil {
		return err
	}
	if err := s.store.Accounts().UpdatePassword(ctx, account.ID, hash); err != nil {
		return err
	}
	s.sink.Record(ctx, account.ID, "auth.password.changed", "account", "", origin)
	return nil
}

// policyDetail strips the sentinel prefix so audit details stay readable.
func policyDetail(err error) string {
	return strings.TrimPrefix(err.Error(), ErrPolicyViolation.Error()+": ")
}
