package submission

import "context"

// Store persists protected content. Submissions are write-once: there is no
// update path, only create, read and (auditor-driven) delete.
type Store interface {
	Create(ctx context.Context, sub *Submission) error
	Get(ctx context.Context, id string) (*Submission, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Submission, error)
	Delete(ctx context.Context, id string) error

	UpsertGrade(ctx context.Context, g *Grade) error
	GetGrade(ctx context.Context, submissionID string) (*Grade, error)
}
