package submission

import (
	"context"
	"errors"
	"strings"

	"gradevault.org/internal/audit"
	"gradevault.org/internal/authz"
	"gradevault.org/internal/protect"
)

// Actor is the authenticated principal acting on protected content.
type Actor struct {
	ID   string
	Role authz.Role
}

// Service owns the protected-content read and write paths. Writes are
// encrypt-then-sign: both must succeed before anything is persisted. Reads
// decrypt and optionally re-verify the integrity signature.
//
// The role/resource matrix is the HTTP layer's concern; this service
// enforces the finer rules the matrix cannot express: submitters only see
// their own content, and auditors never receive plaintext.
type Service struct {
	store     Store
	protector *protect.Protector
	sink      audit.Recorder
}

// NewService constructs the submission service.
func NewService(store Store, protector *protect.Protector, sink audit.Recorder) (*Service, error) {
	if store == nil {
		return nil, errors.New("submission: store is required")
	}
	if protector == nil {
		return nil, errors.New("submission: protector is required")
	}
	if sink == nil {
		return nil, errors.New("submission: audit sink is required")
	}
	return &Service{store: store, protector: protector, sink: sink}, nil
}

// Submit protects and stores new content for the acting account.
func (s *Service) Submit(ctx context.Context, actor Actor, content []byte, contentType string, binary bool, origin audit.Origin) (*Submission, error) {
	if len(content) == 0 {
		return nil, errors.New("submission: content is empty")
	}
	contentType = strings.TrimSpace(contentType)
	if contentType == "" {
		contentType = "text/plain"
	}

	// Ciphertext without a signature must never be persisted; compute both
	// before touching the store.
	ciphertext, err := s.protector.Encrypt(content)
	if err != nil {
		return nil, err
	}
	signature := s.protector.Sign(content)

	sub := &Submission{
		OwnerID:     actor.ID,
		ContentType: contentType,
		Binary:      binary,
		Ciphertext:  ciphertext,
		Signature:   signature,
	}
	if err := s.store.Create(ctx, sub); err != nil {
		return nil, err
	}
	s.sink.Record(ctx, actor.ID, "submission.created", "submission", sub.ID, origin)
	return sub, nil
}

// Open returns the decrypted content of a submission for an authorized
// reader.
func (s *Service) Open(ctx context.Context, actor Actor, id string, origin audit.Origin) (*Submission, []byte, error) {
	sub, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if err := s.allowPlaintext(ctx, actor, sub, origin); err != nil {
		return nil, nil, err
	}
	plaintext, err := s.protector.Decrypt(sub.Ciphertext)
	if err != nil {
		s.sink.Record(ctx, actor.ID, "submission.read.failed", "submission", id+": undecryptable", origin)
		return nil, nil, err
	}
	s.sink.Record(ctx, actor.ID, "submission.read", "submission", id, origin)
	return sub, plaintext, nil
}

// Get returns submission metadata without decrypting anything. This is the
// read path available to auditors.
func (s *Service) Get(ctx context.Context, actor Actor, id string, origin audit.Origin) (*Submission, error) {
	sub, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == authz.RoleSubmitter && sub.OwnerID != actor.ID {
		s.sink.Record(ctx, actor.ID, "authz.denied", "submission", id+": not owner", origin)
		return nil, authz.ErrForbidden
	}
	s.sink.Record(ctx, actor.ID, "submission.meta.read", "submission", id, origin)
	return sub, nil
}

// ListOwn returns metadata for the acting submitter's submissions.
func (s *Service) ListOwn(ctx context.Context, actor Actor) ([]Submission, error) {
	return s.store.ListByOwner(ctx, actor.ID)
}

// VerifyIntegrity decrypts a submission and checks its signature against
// the recovered plaintext. Meant to be called before trusting content for
// grading decisions.
func (s *Service) VerifyIntegrity(ctx context.Context, actor Actor, id string, origin audit.Origin) error {
	sub, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.allowPlaintext(ctx, actor, sub, origin); err != nil {
		return err
	}
	plaintext, err := s.protector.Decrypt(sub.Ciphertext)
	if err != nil {
		s.sink.Record(ctx, actor.ID, "submission.integrity.failed", "submission", id+": undecryptable", origin)
		return err
	}
	if !s.protector.VerifySignature(plaintext, sub.Signature) {
		s.sink.Record(ctx, actor.ID, "submission.integrity.failed", "submission", id+": signature mismatch", origin)
		return protect.ErrSignatureMismatch
	}
	s.sink.Record(ctx, actor.ID, "submission.integrity.verified", "submission", id, origin)
	return nil
}

// Delete removes a submission record. Matrix-level permission (auditor
// only) is checked by the caller.
func (s *Service) Delete(ctx context.Context, actor Actor, id string, origin audit.Origin) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.sink.Record(ctx, actor.ID, "submission.deleted", "submission", id, origin)
	return nil
}

// SetGrade protects and stores reviewer feedback for a submission,
// replacing any prior grade.
func (s *Service) SetGrade(ctx context.Context, actor Actor, submissionID string, feedback []byte, origin audit.Origin) (*Grade, error) {
	if len(feedback) == 0 {
		return nil, errors.New("submission: feedback is empty")
	}
	if _, err := s.store.Get(ctx, submissionID); err != nil {
		return nil, err
	}

	ciphertext, err := s.protector.Encrypt(feedback)
	if err != nil {
		return nil, err
	}
	g := &Grade{
		SubmissionID: submissionID,
		ReviewerID:   actor.ID,
		Ciphertext:   ciphertext,
		Signature:    s.protector.Sign(feedback),
	}
	if err := s.store.UpsertGrade(ctx, g); err != nil {
		return nil, err
	}
	s.sink.Record(ctx, actor.ID, "grade.saved", "grade", submissionID, origin)
	return g, nil
}

// OpenGrade returns the decrypted grade for a submission.
func (s *Service) OpenGrade(ctx context.Context, actor Actor, submissionID string, origin audit.Origin) (*Grade, []byte, error) {
	sub, err := s.store.Get(ctx, submissionID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.allowPlaintext(ctx, actor, sub, origin); err != nil {
		return nil, nil, err
	}
	g, err := s.store.GetGrade(ctx, submissionID)
	if err != nil {
		return nil, nil, err
	}
	plaintext, err := s.protector.Decrypt(g.Ciphertext)
	if err != nil {
		s.sink.Record(ctx, actor.ID, "grade.read.failed", "grade", submissionID+": undecryptable", origin)
		return nil, nil, err
	}
	s.sink.Record(ctx, actor.ID, "grade.read", "grade", submissionID, origin)
	return g, plaintext, nil
}

// allowPlaintext enforces the content-visibility rules that sit below the
// permission matrix: submitters only open their own records, auditors get
// metadata and audit trails but never decrypted content.
func (s *Service) allowPlaintext(ctx context.Context, actor Actor, sub *Submission, origin audit.Origin) error {
	switch actor.Role {
	case authz.RoleReviewer:
		return nil
	case authz.RoleSubmitter:
		if sub.OwnerID == actor.ID {
			return nil
		}
		s.sink.Record(ctx, actor.ID, "authz.denied", "submission", sub.ID+": not owner", origin)
		return authz.ErrForbidden
	case authz.RoleAuditor:
		s.sink.Record(ctx, actor.ID, "authz.denied", "submission", sub.ID+": auditors cannot read content", origin)
		return authz.ErrForbidden
	}
	s.sink.Record(ctx, actor.ID, "authz.denied", "submission", sub.ID+": unknown role", origin)
	return authz.ErrForbidden
}
