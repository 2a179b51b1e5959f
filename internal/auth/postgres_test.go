package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGAccountsCreateConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("insert into accounts").
		WithArgs(sqlmock.AnyArg(), "alice", sqlmock.AnyArg(), "submitter", true).
		WillReturnResult(sqlmock.NewResult(0, 0))

	store := NewPGStore(db)
	err = store.Accounts().Create(context.Background(), &Account{
		Username:     "alice",
		PasswordHash: "$2a$12$hash",
		Role:         "submitter",
		MFAEnabled:   true,
	})
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGAccountsRecordFailureLocks(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	lockUntil := time.Now().Add(15 * time.Minute).UTC()
	mock.ExpectQuery("update accounts").
		WithArgs("acc-1", 3, lockUntil).
		WillReturnRows(sqlmock.NewRows([]string{"failed_attempts", "locked_until"}).AddRow(3, lockUntil))

	store := NewPGStore(db)
	attempts, locked, err := store.Accounts().RecordFailure(context.Background(), "acc-1", 3, lockUntil)
	if err != nil {
		t.Fatalf("RecordFailure: %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
	if locked == nil || !locked.Equal(lockUntil) {
		t.Fatalf("expected lock until %v, got %v", lockUntil, locked)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGChallengesConsumeOnce(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("update challenges set consumed = true where id").
		WithArgs("ch-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("update challenges set consumed = true where id").
		WithArgs("ch-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	store := NewPGStore(db)
	if err := store.Challenges().Consume(context.Background(), "ch-1"); err != nil {
		t.Fatalf("first consume: %v", err)
	}
	if err := store.Challenges().Consume(context.Background(), "ch-1"); !errors.Is(err, ErrChallengeConsumed) {
		t.Fatalf("expected ErrChallengeConsumed, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGAccountsFindNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("select .* from accounts where id").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	store := NewPGStore(db)
	if _, err := store.Accounts().Find(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
