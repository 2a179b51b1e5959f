package httpapi

import (
	"errors"
	"net/http"
	"time"

	"gradevault.org/internal/auth"
	"gradevault.org/internal/authz"
	"gradevault.org/internal/obs"
)

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type verifyRequest struct {
	AccountID string `json:"account_id"`
	Code      string `json:"code"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type challengeResponse struct {
	AccountID   string    `json:"account_id"`
	ChallengeID string    `json:"challenge_id"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	account, err := a.auth.Register(r.Context(), req.Username, req.Password, authz.Role(req.Role), origin(r))
	if err != nil {
		handleCoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	ch, err := a.auth.Login(r.Context(), req.Username, req.Password, origin(r))
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrAccountLocked):
			obs.CountLogin("locked")
		case errors.Is(err, auth.ErrInvalidCredential):
			obs.CountLogin("invalid")
		}
		handleCoreError(w, r, err)
		return
	}
	obs.CountLogin("challenge_issued")
	// The passcode travels through the delivery collaborator, never over
	// this API.
	writeJSON(w, http.StatusOK, challengeResponse{
		AccountID:   ch.AccountID,
		ChallengeID: ch.ID,
		ExpiresAt:   ch.ExpiresAt,
	})
}

func (a *API) handleVerifyChallenge(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req verifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	token, expiresAt, err := a.auth.VerifyChallenge(r.Context(), req.AccountID, req.Code, origin(r))
	if err != nil {
		obs.CountLogin("challenge_failed")
		handleCoreError(w, r, err)
		return
	}
	obs.CountLogin("success")
	writeJSON(w, http.StatusOK, tokenResponse{Token: token, ExpiresAt: expiresAt})
}

func (a *API) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.auth.ChangePassword(r.Context(), claims.Subject, req.CurrentPassword, req.NewPassword, origin(r)); err != nil {
		handleCoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
