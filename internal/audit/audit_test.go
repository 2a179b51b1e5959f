package audit

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestLogRecordAppends(t *testing.T) {
	store := NewMemory()
	log := NewLog(store)

	log.Record(context.Background(), "acc-1", "auth.login", "account", "two-factor login completed",
		Origin{IP: "10.0.0.1", Client: "portal-web"})

	recs, err := store.List(context.Background(), 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	rec := recs[0]
	if rec.ID == "" {
		t.Fatal("expected generated record id")
	}
	if rec.ActorID != "acc-1" || rec.Action != "auth.login" || rec.Resource != "account" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.IP != "10.0.0.1" || rec.Client != "portal-web" {
		t.Fatalf("origin not recorded: %+v", rec)
	}
	if rec.OccurredAt.IsZero() {
		t.Fatal("expected timestamp")
	}
}

func TestLogRecordAnonymousActor(t *testing.T) {
	store := NewMemory()
	log := NewLog(store)

	log.Record(context.Background(), "  ", "auth.login.denied", "account", "unknown username", Origin{})

	recs, _ := store.List(context.Background(), 1)
	if len(recs) != 1 || recs[0].ActorID != "" {
		t.Fatalf("expected anonymous record, got %+v", recs)
	}
}

func TestMemoryListNewestFirst(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	for _, action := range []string{"first", "second", "third"} {
		if err := store.Append(ctx, &Record{ID: action, Action: action, OccurredAt: time.Now()}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	recs, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(recs) != 2 || recs[0].Action != "third" || recs[1].Action != "second" {
		t.Fatalf("unexpected order: %+v", recs)
	}
}

func TestPGStoreAppend(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("insert into audit_log").
		WithArgs("rec-1", "acc-1", "authz.denied", "submission", "delete denied", "10.0.0.1", "cli", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	store := NewPGStore(db)
	err = store.Append(context.Background(), &Record{
		ID:         "rec-1",
		ActorID:    "acc-1",
		Action:     "authz.denied",
		Resource:   "submission",
		Detail:     "delete denied",
		IP:         "10.0.0.1",
		Client:     "cli",
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
