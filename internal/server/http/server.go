package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/atrimbitas/docuvault/internal/service"
)

// Server wires services into HTTP handlers.
type Server struct {
	auth   service.AuthService
	vault  service.VaultService
	shares service.ShareService
	logger *zap.Logger
}

// New constructs a Server with injected services.
func New(auth service.AuthService, vault service.VaultService, shares service.ShareService, logger *zap.Logger) *Server {
	return &Server{auth: auth, vault: vault, shares: shares, logger: logger}
}

// Router assembles all routes. Everything under /api/v1 except login,
// refresh, logout and anonymous share consumption requires an access token.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(Recover(s.logger))
	r.Use(Logging(s.logger))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/mfa-verify", s.handleMfaVerify)
		r.Post("/auth/refresh", s.handleRefresh)
		r.Post("/auth/logout", s.handleLogout)

		r.Get("/shared/{token}", s.handleShareConsume)

		r.Group(func(r chi.Router) {
			r.Use(RequireAuth(s.auth))

			r.Get("/mfa/status", s.handleMfaStatus)
			r.Post("/mfa/setup", s.handleMfaSetup)
			r.Post("/mfa/enable", s.handleMfaEnable)
			r.Post("/mfa/disable", s.handleMfaDisable)

			r.Get("/secrets", s.handleSecretList)
			r.Post("/secrets", s.handleSecretCreate)
			r.Get("/secrets/{id}", s.handleSecretGet)
			r.Patch("/secrets/{id}", s.handleSecretUpdate)
			r.Delete("/secrets/{id}", s.handleSecretDelete)
			r.Post("/secrets/{id}/reveal", s.handleSecretReveal)
			r.Get("/secrets/{id}/audit", s.handleSecretAudit)

			r.Get("/audit-logs", s.handleAuditList)

			r.Post("/shares", s.handleShareIssue)
			r.Delete("/shares/{token}", s.handleShareDeactivate)
		})
	})

	return r
}
