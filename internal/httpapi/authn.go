package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gradevault.org/internal/auth"
	"gradevault.org/internal/authz"
	"gradevault.org/internal/obs"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

var publicPaths = []string{
	"/v1/auth/register",
	"/v1/auth/login",
	"/v1/auth/verify",
	"/v1/info",
	"/metrics",
	"/healthz",
	"/readyz",
	"/",
}

// withAuth rejects requests without a valid bearer token on protected
// paths and stores the verified claims in the request context.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			a.audit.Record(r.Context(), "", "auth.token.denied", "session", err.Error(), origin(r))
			writeError(w, r, http.StatusUnauthorized, err.Error())
			return
		}

		claims, err := a.auth.Authenticate(token)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrTokenExpired):
				a.audit.Record(r.Context(), "", "auth.token.denied", "session", "token expired", origin(r))
				writeError(w, r, http.StatusUnauthorized, "token expired")
			case errors.Is(err, auth.ErrTokenInvalid):
				a.audit.Record(r.Context(), "", "auth.token.denied", "session", "invalid token", origin(r))
				writeError(w, r, http.StatusUnauthorized, "invalid token")
			default:
				writeError(w, r, http.StatusInternalServerError, "authentication error")
			}
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.ContextWithClaims(r.Context(), claims)))
	})
}

// requireAction checks the caller's role against the permission matrix.
// Both outcomes are audited with the caller identity and origin, so the
// trail records the decision even when the handler later rejects the
// request for other reasons. The handler must return immediately when
// false comes back.
func (a *API) requireAction(w http.ResponseWriter, r *http.Request, res authz.Resource, act authz.Action) (*auth.Claims, bool) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return nil, false
	}
	detail := fmt.Sprintf("role=%s action=%s", claims.Role, act)
	if !a.engine.Allowed(claims.Role, res, act) {
		obs.CountAuthz("deny")
		a.audit.Record(r.Context(), claims.Subject, "authz.denied", string(res), detail, origin(r))
		writeError(w, r, http.StatusForbidden, "forbidden")
		return nil, false
	}
	obs.CountAuthz("permit")
	a.audit.Record(r.Context(), claims.Subject, "authz.permitted", string(res), detail, origin(r))
	return claims, true
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}
