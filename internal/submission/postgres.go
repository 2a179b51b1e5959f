package submission

import (
	"context"
	"database/sql"

	"gradevault.org/internal/ids"
)

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	db *sql.DB
}

var _ Store = (*PGStore)(nil)

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Create(ctx context.Context, sub *Submission) error {
	if sub.ID == "" {
		sub.ID = ids.New()
	}
	return s.db.QueryRowContext(ctx,
		`insert into submissions(id, owner_id, content_type, binary_content, ciphertext, signature)
		 values($1,$2,$3,$4,$5,$6)
		 returning created_at`,
		sub.ID, sub.OwnerID, sub.ContentType, sub.Binary, sub.Ciphertext, sub.Signature,
	).Scan(&sub.CreatedAt)
}

func (s *PGStore) Get(ctx context.Context, id string) (*Submission, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, owner_id, content_type, binary_content, ciphertext, signature, created_at
		 from submissions where id=$1`, id)
	var sub Submission
	if err := row.Scan(&sub.ID, &sub.OwnerID, &sub.ContentType, &sub.Binary,
		&sub.Ciphertext, &sub.Signature, &sub.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &sub, nil
}

func (s *PGStore) ListByOwner(ctx context.Context, ownerID string) ([]Submission, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, owner_id, content_type, binary_content, ciphertext, signature, created_at
		 from submissions where owner_id=$1 order by id`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []Submission
	for rows.Next() {
		var sub Submission
		if err := rows.Scan(&sub.ID, &sub.OwnerID, &sub.ContentType, &sub.Binary,
			&sub.Ciphertext, &sub.Signature, &sub.CreatedAt); err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func (s *PGStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from submissions where id=$1`, id)
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

func (s *PGStore) UpsertGrade(ctx context.Context, g *Grade) error {
	return s.db.QueryRowContext(ctx,
		`insert into grades(submission_id, reviewer_id, ciphertext, signature)
		 values($1,$2,$3,$4)
		 on conflict (submission_id) do update
		 set reviewer_id=$2, ciphertext=$3, signature=$4, updated_at=now()
		 returning created_at, updated_at`,
		g.SubmissionID, g.ReviewerID, g.Ciphertext, g.Signature,
	).Scan(&g.CreatedAt, &g.UpdatedAt)
}

func (s *PGStore) GetGrade(ctx context.Context, submissionID string) (*Grade, error) {
	row := s.db.QueryRowContext(ctx,
		`select submission_id, reviewer_id, ciphertext, signature, created_at, updated_at
		 from grades where submission_id=$1`, submissionID)
	var g Grade
	if err := row.Scan(&g.SubmissionID, &g.ReviewerID, &g.Ciphertext, &g.Signature,
		&g.CreatedAt, &g.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &g, nil
}
