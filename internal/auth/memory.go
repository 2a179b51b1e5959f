package auth

import (
	"context"
	"sync"
	"time"

	"gradevault.org/internal/ids"
)

// Memory implements Store in process memory with the same conditional-update
// semantics as the Postgres store. Suitable for development and tests only.
type Memory struct {
	mu         sync.Mutex
	accounts   map[string]*Account
	byUsername map[string]string
	challenges map[string][]*Challenge // accountID -> newest last
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		accounts:   make(map[string]*Account),
		byUsername: make(map[string]string),
		challenges: make(map[string][]*Challenge),
	}
}

func (m *Memory) Accounts() AccountStore     { return (*memAccounts)(m) }
func (m *Memory) Challenges() ChallengeStore { return (*memChallenges)(m) }

type memAccounts Memory

func (s *memAccounts) Create(ctx context.Context, a *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byUsername[a.Username]; ok {
		return ErrUsernameTaken
	}
	if a.ID == "" {
		a.ID = ids.New()
	}
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now
	cp := *a
	s.accounts[a.ID] = &cp
	s.byUsername[a.Username] = a.ID
	return nil
}

func (s *memAccounts) Find(ctx context.Context, id string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *memAccounts) FindByUsername(ctx context.Context, username string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byUsername[username]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s.accounts[id]
	return &cp, nil
}

func (s *memAccounts) RecordFailure(ctx context.Context, id string, threshold int, lockUntil time.Time) (int, *time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return 0, nil, ErrNotFound
	}
	a.FailedAttempts++
	if a.FailedAttempts >= threshold {
		until := lockUntil
		a.LockedUntil = &until
	}
	a.UpdatedAt = time.Now().UTC()
	var locked *time.Time
	if a.LockedUntil != nil {
		until := *a.LockedUntil
		locked = &until
	}
	return a.FailedAttempts, locked, nil
}

func (s *memAccounts) ResetLockout(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return ErrNotFound
	}
	a.FailedAttempts = 0
	a.LockedUntil = nil
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *memAccounts) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return ErrNotFound
	}
	a.PasswordHash = passwordHash
	a.UpdatedAt = time.Now().UTC()
	return nil
}

type memChallenges Memory

func (s *memChallenges) Create(ctx context.Context, ch *Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch.CreatedAt.IsZero() {
		ch.CreatedAt = time.Now().UTC()
	}
	cp := *ch
	s.challenges[ch.AccountID] = append(s.challenges[ch.AccountID], &cp)
	return nil
}

func (s *memChallenges) Latest(ctx context.Context, accountID string) (*Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.challenges[accountID]
	if len(list) == 0 {
		return nil, ErrNotFound
	}
	cp := *list[len(list)-1]
	return &cp, nil
}

func (s *memChallenges) Consume(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, list := range s.challenges {
		for _, ch := range list {
			if ch.ID != id {
				continue
			}
			if ch.Consumed {
				return ErrChallengeConsumed
			}
			ch.Consumed = true
			return nil
		}
	}
	return ErrNotFound
}

func (s *memChallenges) InvalidateActive(ctx context.Context, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.challenges[accountID] {
		ch.Consumed = true
	}
	return nil
}
