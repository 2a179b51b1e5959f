// Package audit appends tamper-evident records of every security-relevant
// event: authentication transitions, authorization decisions and content
// operations. Records are append-only and never edited.
package audit

import (
	"context"
	"strings"
	"time"

	"gradevault.org/internal/ids"
	"gradevault.org/internal/obs"
)

// Record is one append-only log entry. ActorID is empty for anonymous
// failures (e.g. a login attempt against an unknown username).
type Record struct {
	ID         string    `json:"id"`
	ActorID    string    `json:"actor_id,omitempty"`
	Action     string    `json:"action"`
	Resource   string    `json:"resource"`
	Detail     string    `json:"detail,omitempty"`
	IP         string    `json:"ip,omitempty"`
	Client     string    `json:"client,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Origin describes where a request came from.
type Origin struct {
	IP     string
	Client string
}

// Store persists records. There is deliberately no update or delete;
// retention is an external archival concern.
type Store interface {
	Append(ctx context.Context, rec *Record) error
	List(ctx context.Context, limit int) ([]Record, error)
}

// Recorder is the write side consumed by the rest of the core.
type Recorder interface {
	Record(ctx context.Context, actorID, action, resource, detail string, origin Origin)
}

// Log writes audit records to a store and mirrors them to the operational
// logger. A failed append is reported operationally but never rolls back
// the operation it documents.
type Log struct {
	store Store
	now   func() time.Time
}

var _ Recorder = (*Log)(nil)

// NewLog builds a Log over the given store.
func NewLog(store Store) *Log {
	return &Log{store: store, now: time.Now}
}

// Record appends one entry. Best effort: errors are counted and logged, not
// returned.
func (l *Log) Record(ctx context.Context, actorID, action, resource, detail string, origin Origin) {
	rec := &Record{
		ID:         ids.New(),
		ActorID:    strings.TrimSpace(actorID),
		Action:     action,
		Resource:   resource,
		Detail:     detail,
		IP:         origin.IP,
		Client:     origin.Client,
		OccurredAt: l.now().UTC(),
	}
	if err := l.store.Append(ctx, rec); err != nil {
		obs.CountAuditWrite("error")
		obs.LogEvent(map[string]any{
			"ts":    l.now().UTC().Format(time.RFC3339Nano),
			"level": "error",
			"msg":   "audit append failed",
			"event": action,
			"error": err.Error(),
		})
		return
	}
	obs.CountAuditWrite("ok")
	obs.LogEvent(map[string]any{
		"ts":       rec.OccurredAt.Format(time.RFC3339Nano),
		"type":     "audit",
		"event":    rec.Action,
		"actor_id": rec.ActorID,
		"resource": rec.Resource,
		"detail":   rec.Detail,
		"ip":       rec.IP,
		"client":   rec.Client,
	})
}

// List returns the most recent records, newest first.
func (l *Log) List(ctx context.Context, limit int) ([]Record, error) {
	return l.store.List(ctx, limit)
}
