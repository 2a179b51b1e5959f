package auth

import (
	"context"
	"database/sql"
	"time"

	"gradevault.org/internal/ids"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL. Lockout and challenge
// mutations are single-statement conditional updates, so concurrent logins
// for the same account serialize on the row instead of losing writes.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Accounts() AccountStore     { return &pgAccounts{db: s.db} }
func (s *PGStore) Challenges() ChallengeStore { return &pgChallenges{db: s.db} }

// Account store ------------------------------------------------------------
type pgAccounts struct{ db *sql.DB }

func (s *pgAccounts) Create(ctx context.Context, a *Account) error {
	if a.ID == "" {
		a.ID = ids.New()
	}
	res, err := s.db.ExecContext(ctx,
		`insert into accounts(id, username, password_hash, role, mfa_enabled)
		 values($1,$2,$3,$4,$5)
		 on conflict (username) do nothing`,
		a.ID, a.Username, a.PasswordHash, string(a.Role), a.MFAEnabled,
	)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrUsernameTaken
	}
	return nil
}

const accountColumns = `id, username, password_hash, role, mfa_enabled, failed_attempts, locked_until, created_at, updated_at`

func scanAccount(row *sql.Row) (*Account, error) {
	var a Account
	if err := row.Scan(&a.ID, &a.Username, &a.PasswordHash, &a.Role, &a.MFAEnabled,
		&a.FailedAttempts, &a.LockedUntil, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (s *pgAccounts) Find(ctx context.Context, id string) (*Account, error) {
	return scanAccount(s.db.QueryRowContext(ctx,
		`select `+accountColumns+` from accounts where id=$1`, id))
}

func (s *pgAccounts) FindByUsername(ctx context.Context, username string) (*Account, error) {
	return scanAccount(s.db.QueryRowContext(ctx,
		`select `+accountColumns+` from accounts where username=$1`, username))
}

func (s *pgAccounts) RecordFailure(ctx context.Context, id string, threshold int, lockUntil time.Time) (int, *time.Time, error) {
	row := s.db.QueryRowContext(ctx,
		`update accounts
		 set failed_attempts = failed_attempts + 1,
		     locked_until = case when failed_attempts + 1 >= $2 then $3 else locked_until end,
		     updated_at = now()
		 where id = $1
		 returning failed_attempts, locked_until`,
		id, threshold, lockUntil,
	)
	var (
		attempts int
		locked   *time.Time
	)
	if err := row.Scan(&attempts, &locked); err != nil {
		if err == sql.ErrNoRows {
			return 0, nil, ErrNotFound
		}
		return 0, nil, err
	}
	return attempts, locked, nil
}

func (s *pgAccounts) ResetLockout(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`update accounts set failed_attempts = 0, locked_until = null, updated_at = now() where id = $1`, id)
	return err
}

func (s *pgAccounts) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	res, err := s.db.ExecContext(ctx,
		`update accounts set password_hash = $2, updated_at = now() where id = $1`, id, passwordHash)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// Challenge store ----------------------------------------------------------
type pgChallenges struct{ db *sql.DB }

func (s *pgChallenges) Create(ctx context.Context, ch *Challenge) error {
	_, err := s.db.ExecContext(ctx,
		`insert into challenges(id, account_id, code, expires_at, consumed)
		 values($1,$2,$3,$4,false)`,
		ch.ID, ch.AccountID, ch.Code, ch.ExpiresAt,
	)
	return err
}

func (s *pgChallenges) Latest(ctx context.Context, accountID string) (*Challenge, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, account_id, code, expires_at, consumed, created_at
		 from challenges where account_id=$1
		 order by created_at desc limit 1`, accountID)
	var ch Challenge
	if err := row.Scan(&ch.ID, &ch.AccountID, &ch.Code, &ch.ExpiresAt, &ch.Consumed, &ch.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ch, nil
}

func (s *pgChallenges) Consume(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`update challenges set consumed = true where id = $1 and consumed = false`, id)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrChallengeConsumed
	}
	return nil
}

func (s *pgChallenges) InvalidateActive(ctx context.Context, accountID string) error {
	_, err := s.db.ExecContext(ctx,
		`update challenges set consumed = true where account_id = $1 and consumed = false`, accountID)
	return err
}
