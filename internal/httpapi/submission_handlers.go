package httpapi

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"

	"gradevault.org/internal/auth"
	"gradevault.org/internal/authz"
	"gradevault.org/internal/protect"
	"gradevault.org/internal/submission"
)

type createSubmissionRequest struct {
	// Content carries text payloads; ContentBase64 carries binary ones.
	// Exactly one must be set.
	Content       string `json:"content,omitempty"`
	ContentBase64 string `json:"content_base64,omitempty"`
	ContentType   string `json:"content_type"`
}

type contentResponse struct {
	Submission    *submission.Submission `json:"submission"`
	Content       string                 `json:"content,omitempty"`
	ContentBase64 string                 `json:"content_base64,omitempty"`
}

type gradeRequest struct {
	Feedback string `json:"feedback"`
}

type gradeResponse struct {
	SubmissionID string    `json:"submission_id"`
	ReviewerID   string    `json:"reviewer_id"`
	Feedback     string    `json:"feedback,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type integrityResponse struct {
	SubmissionID string `json:"submission_id"`
	Intact       bool   `json:"intact"`
	Reason       string `json:"reason,omitempty"`
}

func actorFromClaims(claims *auth.Claims) submission.Actor {
	return submission.Actor{ID: claims.Subject, Role: claims.Role}
}

// handleSubmissions covers the collection: create and list own.
func (a *API) handleSubmissions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.createSubmission(w, r)
	case http.MethodGet:
		a.listSubmissions(w, r)
	default:
		methodNotAllowed(w, r, http.MethodPost, http.MethodGet)
	}
}

// handleSubmissionScoped routes /v1/submissions/{id}[/content|/integrity|/grade].
func (a *API) handleSubmissionScoped(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/submissions/")
	id, sub, _ := strings.Cut(rest, "/")
	if id == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	switch sub {
	case "":
		switch r.Method {
		case http.MethodGet:
			a.getSubmission(w, r, id)
		case http.MethodDelete:
			a.deleteSubmission(w, r, id)
		default:
			methodNotAllowed(w, r, http.MethodGet, http.MethodDelete)
		}
	case "content":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.openSubmission(w, r, id)
	case "integrity":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.checkIntegrity(w, r, id)
	case "grade":
		switch r.Method {
		case http.MethodPost, http.MethodPut:
			a.setGrade(w, r, id)
		case http.MethodGet:
			a.getGrade(w, r, id)
		default:
			methodNotAllowed(w, r, http.MethodPost, http.MethodPut, http.MethodGet)
		}
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) createSubmission(w http.ResponseWriter, r *http.Request) {
	claims, ok := a.requireAction(w, r, authz.ResourceSubmission, authz.ActionCreate)
	if !ok {
		return
	}
	var req createSubmissionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	var (
		content []byte
		binary  bool
	)
	switch {
	case req.Content != "" && req.ContentBase64 != "":
		writeError(w, r, http.StatusBadRequest, "content and content_base64 are mutually exclusive")
		return
	case req.ContentBase64 != "":
		decoded, err := base64.StdEncoding.DecodeString(req.ContentBase64)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "content_base64 is not valid base64")
			return
		}
		content = decoded
		binary = true
	default:
		content = []byte(req.Content)
	}
	sub, err := a.subs.Submit(r.Context(), actorFromClaims(claims), content, req.ContentType, binary, origin(r))
	if err != nil {
		handleCoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

func (a *API) listSubmissions(w http.ResponseWriter, r *http.Request) {
	claims, ok := a.requireAction(w, r, authz.ResourceSubmission, authz.ActionRead)
	if !ok {
		return
	}
	subs, err := a.subs.ListOwn(r.Context(), actorFromClaims(claims))
	if err != nil {
		handleCoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"submissions": subs})
}

func (a *API) getSubmission(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := a.requireAction(w, r, authz.ResourceSubmission, authz.ActionRead)
	if !ok {
		return
	}
	sub, err := a.subs.Get(r.Context(), actorFromClaims(claims), id, origin(r))
	if err != nil {
		handleCoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (a *API) openSubmission(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := a.requireAction(w, r, authz.ResourceSubmission, authz.ActionRead)
	if !ok {
		return
	}
	sub, plaintext, err := a.subs.Open(r.Context(), actorFromClaims(claims), id, origin(r))
	if err != nil {
		handleCoreError(w, r, err)
		return
	}
	resp := contentResponse{Submission: sub}
	if sub.Binary {
		resp.ContentBase64 = base64.StdEncoding.EncodeToString(plaintext)
	} else {
		resp.Content = string(plaintext)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) deleteSubmission(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := a.requireAction(w, r, authz.ResourceSubmission, authz.ActionDelete)
	if !ok {
		return
	}
	if err := a.subs.Delete(r.Context(), actorFromClaims(claims), id, origin(r)); err != nil {
		handleCoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) checkIntegrity(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := a.requireAction(w, r, authz.ResourceSubmission, authz.ActionRead)
	if !ok {
		return
	}
	err := a.subs.VerifyIntegrity(r.Context(), actorFromClaims(claims), id, origin(r))
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, integrityResponse{SubmissionID: id, Intact: true})
	case errors.Is(err, protect.ErrSignatureMismatch):
		writeJSON(w, http.StatusConflict, integrityResponse{SubmissionID: id, Intact: false, Reason: "signature mismatch"})
	case errors.Is(err, protect.ErrDecryptionFailed):
		writeJSON(w, http.StatusConflict, integrityResponse{SubmissionID: id, Intact: false, Reason: "ciphertext unreadable"})
	default:
		handleCoreError(w, r, err)
	}
}

func (a *API) setGrade(w http.ResponseWriter, r *http.Request, id string) {
	action := authz.ActionCreate
	if r.Method == http.MethodPut {
		action = authz.ActionUpdate
	}
	claims, ok := a.requireAction(w, r, authz.ResourceGrade, action)
	if !ok {
		return
	}
	var req gradeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	grade, err := a.subs.SetGrade(r.Context(), actorFromClaims(claims), id, []byte(req.Feedback), origin(r))
	if err != nil {
		handleCoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, gradeResponse{
		SubmissionID: grade.SubmissionID,
		ReviewerID:   grade.ReviewerID,
		CreatedAt:    grade.CreatedAt,
		UpdatedAt:    grade.UpdatedAt,
	})
}

func (a *API) getGrade(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := a.requireAction(w, r, authz.ResourceGrade, authz.ActionRead)
	if !ok {
		return
	}
	grade, feedback, err := a.subs.OpenGrade(r.Context(), actorFromClaims(claims), id, origin(r))
	if err != nil {
		handleCoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, gradeResponse{
		SubmissionID: grade.SubmissionID,
		ReviewerID:   grade.ReviewerID,
		Feedback:     string(feedback),
		CreatedAt:    grade.CreatedAt,
		UpdatedAt:    grade.UpdatedAt,
	})
}
