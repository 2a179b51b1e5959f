package audit

import (
	"context"
	"database/sql"
)

// PGStore implements Store using PostgreSQL. The audit_log table has no
// update or delete path in this codebase.
type PGStore struct {
	db *sql.DB
}

var _ Store = (*PGStore)(nil)

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Append(ctx context.Context, rec *Record) error {
	_, err := s.db.ExecContext(ctx,
		`insert into audit_log(id, actor_id, action, resource, detail, ip, client, occurred_at)
		 values($1,$2,$3,$4,$5,$6,$7,$8)`,
		rec.ID, rec.ActorID, rec.Action, rec.Resource, rec.Detail, rec.IP, rec.Client, rec.OccurredAt,
	)
	return err
}

func (s *PGStore) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`select id, actor_id, action, resource, detail, ip, client, occurred_at
		 from audit_log order by id desc limit $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.ActorID, &rec.Action, &rec.Resource,
			&rec.Detail, &rec.IP, &rec.Client, &rec.OccurredAt); err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
