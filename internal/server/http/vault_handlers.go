package httpserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid/v5"

	"github.com/atrimbitas/docuvault/internal/model"
	"github.com/atrimbitas/docuvault/internal/service"
)

type secretResponse struct {
	ID        string    `json:"id"`
	OrgID     string    `json:"org_id"`
	Name      string    `json:"name"`
	Username  string    `json:"username,omitempty"`
	URL       string    `json:"url,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	HasValue  bool      `json:"has_value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// toSecretResponse never exposes the stored blob, only whether one exists.
func toSecretResponse(s *model.SecretRecord) secretResponse {
	return secretResponse{
		ID:        s.ID.String(),
		OrgID:     s.OrgID.String(),
		Name:      s.Name,
		Username:  s.Username,
		URL:       s.URL,
		Notes:     s.Notes,
		HasValue:  len(s.Value) > 0,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func (s *Server) handleSecretList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := model.SecretFilter{
		Search:   q.Get("search"),
		Page:     atoiDefault(q.Get("page"), 1),
		PageSize: atoiDefault(q.Get("page_size"), 25),
	}
	if org := q.Get("org"); org != "" {
		id, err := uuid.FromString(org)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad org id"})
			return
		}
		f.OrgID = id
	}
	items, err := s.vault.List(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]secretResponse, 0, len(items))
	for i := range items {
		out = append(out, toSecretResponse(&items[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

type secretCreateRequest struct {
	OrgID    string `json:"org_id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	URL      string `json:"url"`
	Notes    string `json:"notes"`
	Value    string `json:"value"`
}

func (s *Server) handleSecretCreate(w http.ResponseWriter, r *http.Request) {
	a, ok := accountFromCtx(r.Context())
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
		return
	}
	var req secretCreateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	orgID, err := uuid.FromString(req.OrgID)
	if err != nil || req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "org_id and name are required"})
		return
	}
	rec, err := s.vault.Create(r.Context(), a.ID, remoteIP(r), service.CreateSecret{
		OrgID:    orgID,
		Name:     req.Name,
		Username: req.Username,
		URL:      req.URL,
		Notes:    req.Notes,
		Value:    req.Value,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSecretResponse(rec))
}

func (s *Server) handleSecretGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	rec, err := s.vault.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSecretResponse(rec))
}

type secretPatchRequest struct {
	Name     *string `json:"name"`
	Username *string `json:"username"`
	URL      *string `json:"url"`
	Notes    *string `json:"notes"`
	Value    *string `json:"value"`
}

func (s *Server) handleSecretUpdate(w http.ResponseWriter, r *http.Request) {
	a, ok := accountFromCtx(r.Context())
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req secretPatchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	rec, err := s.vault.Update(r.Context(), a.ID, remoteIP(r), id, model.SecretPatch{
		Name:     req.Name,
		Username: req.Username,
		URL:      req.URL,
		Notes:    req.Notes,
		Value:    req.Value,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSecretResponse(rec))
}

func (s *Server) handleSecretDelete(w http.ResponseWriter, r *http.Request) {
	a, ok := accountFromCtx(r.Context())
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.vault.Delete(r.Context(), a.ID, remoteIP(r), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type revealResponse struct {
	Value string `json:"value"`
}

func (s *Server) handleSecretReveal(w http.ResponseWriter, r *http.Request) {
	a, ok := accountFromCtx(r.Context())
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	value, err := s.vault.Reveal(r.Context(), a.ID, remoteIP(r), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, revealResponse{Value: value})
}

type auditEntryResponse struct {
	ID        string    `json:"id"`
	SecretID  string    `json:"secret_id"`
	AccountID string    `json:"account_id"`
	Action    string    `json:"action"`
	Origin    string    `json:"origin,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toAuditResponses(entries []model.AccessLogEntry) []auditEntryResponse {
	out := make([]auditEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, auditEntryResponse{
			ID:        e.ID.String(),
			SecretID:  e.SecretID.String(),
			AccountID: e.AccountID.String(),
			Action:    string(e.Action),
			Origin:    e.Origin,
			CreatedAt: e.CreatedAt,
		})
	}
	return out
}

func (s *Server) handleSecretAudit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	entries, err := s.vault.Audit(r.Context(), model.AuditFilter{SecretID: id, PageSize: 100})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAuditResponses(entries))
}

func (s *Server) handleAuditList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := model.AuditFilter{
		Action:   model.AccessAction(q.Get("action")),
		Page:     atoiDefault(q.Get("page"), 1),
		PageSize: atoiDefault(q.Get("page_size"), 25),
	}
	if f.Action != "" && !f.Action.Valid() {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad action"})
		return
	}
	if sid := q.Get("secret_id"); sid != "" {
		id, err := uuid.FromString(sid)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad secret id"})
			return
		}
		f.SecretID = id
	}
	entries, err := s.vault.Audit(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAuditResponses(entries))
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad id"})
		return uuid.Nil, false
	}
	return id, true
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
