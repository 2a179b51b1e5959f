package httpapi

import (
	"net/http"
	"strconv"

	"gradevault.org/internal/authz"
)

const defaultAuditLimit = 100

// handleAuditLog returns recent audit records, newest first. Auditors and
// reviewers may read the trail; the records carry metadata only, so no
// protected content can leak through here.
func (a *API) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if _, ok := a.requireAction(w, r, authz.ResourceAuditLog, authz.ActionRead); !ok {
		return
	}

	limit := defaultAuditLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 1000 {
			writeError(w, r, http.StatusBadRequest, "limit must be between 1 and 1000")
			return
		}
		limit = n
	}

	records, err := a.audit.List(r.Context(), limit)
	if err != nil {
		handleCoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": records})
}
