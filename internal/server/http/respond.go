// Package httpserver exposes the vault HTTP JSON API.
package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/atrimbitas/docuvault/internal/errs"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps sentinel errors to statuses. Authentication failures keep
// one generic message; share-link failures stay distinguishable since the
// token itself is already the secret.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errs.ErrInvalidCredentials), errors.Is(err, errs.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid credentials"})
	case errors.Is(err, errs.ErrRateLimited):
		writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "rate limited"})
	case errors.Is(err, errs.ErrMfaNotEnabled):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "mfa not enabled"})
	case errors.Is(err, errs.ErrAlreadyEnabled):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "mfa already enabled"})
	case errors.Is(err, errs.ErrInvalidCode):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid code"})
	case errors.Is(err, errs.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	case errors.Is(err, errs.ErrExpired):
		writeJSON(w, http.StatusGone, errorBody{Error: "expired"})
	case errors.Is(err, errs.ErrExhausted):
		writeJSON(w, http.StatusGone, errorBody{Error: "view limit exhausted"})
	case errors.Is(err, errs.ErrInactive):
		writeJSON(w, http.StatusGone, errorBody{Error: "inactive"})
	case errors.Is(err, errs.ErrAlreadyExists):
		writeJSON(w, http.StatusConflict, errorBody{Error: "already exists"})
	default:
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "malformed request body"})
		return false
	}
	return true
}
