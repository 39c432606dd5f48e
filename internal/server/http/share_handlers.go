package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid/v5"
)

type shareIssueRequest struct {
	SecretID   string `json:"secret_id"`
	TTLSeconds int    `json:"ttl_seconds"`
	MaxViews   int    `json:"max_views"`
}

type shareIssueResponse struct {
	Token     string     `json:"token"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	MaxViews  *int       `json:"max_views,omitempty"`
}

func (s *Server) handleShareIssue(w http.ResponseWriter, r *http.Request) {
	var req shareIssueRequest
	if !decodeBody(w, r, &req) {
		return
	}
	secretID, err := uuid.FromString(req.SecretID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad secret id"})
		return
	}
	if req.TTLSeconds < 0 || req.MaxViews < 0 {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "ttl_seconds and max_views must be non-negative"})
		return
	}
	link, err := s.shares.Issue(r.Context(), secretID, time.Duration(req.TTLSeconds)*time.Second, req.MaxViews)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, shareIssueResponse{
		Token:     link.Token,
		ExpiresAt: link.ExpiresAt,
		MaxViews:  link.MaxViews,
	})
}

type shareConsumeResponse struct {
	Name     string `json:"name"`
	Username string `json:"username,omitempty"`
	Value    string `json:"value"`
}

func (s *Server) handleShareConsume(w http.ResponseWriter, r *http.Request) {
	revealed, err := s.shares.Consume(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, shareConsumeResponse{
		Name:     revealed.Name,
		Username: revealed.Username,
		Value:    revealed.Value,
	})
}

func (s *Server) handleShareDeactivate(w http.ResponseWriter, r *http.Request) {
	if err := s.shares.Deactivate(r.Context(), chi.URLParam(r, "token")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
