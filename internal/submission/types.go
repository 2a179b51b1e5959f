package submission

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("submission: not found")

// Submission is protected content at rest: ciphertext with the nonce
// embedded, plus an integrity signature over the original plaintext. The
// plaintext itself is never stored.
type Submission struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	ContentType string    `json:"content_type"`
	Binary      bool      `json:"binary"`
	Ciphertext  []byte    `json:"-"`
	Signature   []byte    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// Grade is reviewer feedback, protected the same way as the submission it
// belongs to. One grade per submission; reviewers may revise it.
type Grade struct {
	SubmissionID string    `json:"submission_id"`
	ReviewerID   string    `json:"reviewer_id"`
	Ciphertext   []byte    `json:"-"`
	Signature    []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
