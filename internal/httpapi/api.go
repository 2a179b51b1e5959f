// Package httpapi exposes the security core over HTTP. Handlers stay thin:
// they decode, authorize against the permission matrix, call a service and
// map errors to statuses. Every denial and every auth failure is audited
// with the caller's origin.
package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"gradevault.org/internal/audit"
	"gradevault.org/internal/auth"
	"gradevault.org/internal/authz"
	"gradevault.org/internal/obs"
	"gradevault.org/internal/protect"
	"gradevault.org/internal/submission"
)

// ReadyProbe pings the backing database for readiness checks.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP layer over the security core.
type API struct {
	mux        *http.ServeMux
	auth       *auth.Service
	subs       *submission.Service
	engine     *authz.Engine
	audit      *audit.Log
	readyProbe ReadyProbe
	version    string
}

// New wires routes over the given services.
func New(authSvc *auth.Service, subs *submission.Service, engine *authz.Engine, auditLog *audit.Log, rp ReadyProbe, version string) *API {
	a := &API{
		mux:        http.NewServeMux(),
		auth:       authSvc,
		subs:       subs,
		engine:     engine,
		audit:      auditLog,
		readyProbe: rp,
		version:    version,
	}

	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/v1/auth/register", a.handleRegister)
	a.mux.HandleFunc("/v1/auth/login", a.handleLogin)
	a.mux.HandleFunc("/v1/auth/verify", a.handleVerifyChallenge)
	a.mux.HandleFunc("/v1/auth/password", a.handleChangePassword)

	a.mux.HandleFunc("/v1/submissions", a.handleSubmissions)
	a.mux.HandleFunc("/v1/submissions/", a.handleSubmissionScoped)
	a.mux.HandleFunc("/v1/audit", a.handleAuditLog)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the fully wrapped http.Handler for the server.
func (a *API) Handler() http.Handler {
	h := a.withAuth(a.mux)
	h = MaxBodyBytes(h, 1<<20)
	h = RateLimit(h, 20, 10)
	h = SecurityHeaders(h)
	h = RequestID(h)
	h = Logging(h)
	return obs.Instrument(h)
}

// --- Probes ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "gradevault-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "gradevault-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

// --- Helpers ---

func origin(r *http.Request) audit.Origin {
	return audit.Origin{IP: clientIP(r), Client: r.UserAgent()}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

// handleCoreError maps the core error taxonomy to HTTP statuses. Internal
// failures collapse to a generic message so storage and crypto state never
// leak through error text.
func handleCoreError(w http.ResponseWriter, r *http.Request, err error) {
	var locked *auth.AccountLockedError
	switch {
	case errors.Is(err, auth.ErrPolicyViolation):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.As(err, &locked):
		writeError(w, r, http.StatusLocked, locked.Error())
	case errors.Is(err, auth.ErrInvalidCredential),
		errors.Is(err, auth.ErrChallengeExpired),
		errors.Is(err, auth.ErrChallengeMismatch),
		errors.Is(err, auth.ErrChallengeConsumed),
		errors.Is(err, auth.ErrTokenInvalid),
		errors.Is(err, auth.ErrTokenExpired):
		writeError(w, r, http.StatusUnauthorized, err.Error())
	case errors.Is(err, authz.ErrForbidden):
		writeError(w, r, http.StatusForbidden, "forbidden")
	case errors.Is(err, submission.ErrNotFound), errors.Is(err, auth.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "resource not found")
	case errors.Is(err, protect.ErrDecryptionFailed), errors.Is(err, protect.ErrSignatureMismatch):
		writeError(w, r, http.StatusInternalServerError, "content unavailable")
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
