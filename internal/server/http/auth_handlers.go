package httpserver

import (
	"encoding/base64"
	"net/http"
)

type loginRequest struct {
	Handle   string `json:"handle"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type loginResponse struct {
	MfaRequired  bool   `json:"mfa_required"`
	MfaToken     string `json:"mfa_token,omitempty"`
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := s.auth.Login(r.Context(), req.Handle, req.Password, remoteIP(r))
	if err != nil {
		writeError(w, err)
		return
	}
	if res.MfaRequired {
		writeJSON(w, http.StatusOK, loginResponse{MfaRequired: true, MfaToken: res.MfaToken})
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken:  res.Tokens.AccessToken,
		RefreshToken: res.Tokens.RefreshToken,
	})
}

type mfaVerifyRequest struct {
	MfaToken string `json:"mfa_token"`
	Code     string `json:"code"`
}

func (s *Server) handleMfaVerify(w http.ResponseWriter, r *http.Request) {
	var req mfaVerifyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	pair, err := s.auth.MfaVerify(r.Context(), req.MfaToken, req.Code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decodeBody(w, r, &req) {
		return
	}
	pair, err := s.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	// Stateless tokens: nothing to revoke server-side.
	s.auth.Logout()
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

type mfaStatusResponse struct {
	Enabled bool `json:"enabled"`
}

func (s *Server) handleMfaStatus(w http.ResponseWriter, r *http.Request) {
	a, ok := accountFromCtx(r.Context())
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
		return
	}
	on, err := s.auth.MfaStatus(r.Context(), a.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mfaStatusResponse{Enabled: on})
}

type mfaSetupResponse struct {
	Secret          string `json:"secret"`
	ProvisioningURI string `json:"provisioning_uri"`
	QRPNGBase64     string `json:"qr_png_base64"`
}

func (s *Server) handleMfaSetup(w http.ResponseWriter, r *http.Request) {
	a, ok := accountFromCtx(r.Context())
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
		return
	}
	enr, err := s.auth.MfaEnroll(r.Context(), a.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mfaSetupResponse{
		Secret:          enr.Secret,
		ProvisioningURI: enr.ProvisioningURI,
		QRPNGBase64:     base64.StdEncoding.EncodeToString(enr.QRPNG),
	})
}

type mfaCodeRequest struct {
	Code string `json:"code"`
}

func (s *Server) handleMfaEnable(w http.ResponseWriter, r *http.Request) {
	a, ok := accountFromCtx(r.Context())
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
		return
	}
	var req mfaCodeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.auth.MfaConfirm(r.Context(), a.ID, req.Code); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "mfa enabled"})
}

func (s *Server) handleMfaDisable(w http.ResponseWriter, r *http.Request) {
	a, ok := accountFromCtx(r.Context())
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
		return
	}
	var req mfaCodeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.auth.MfaDisable(r.Context(), a.ID, req.Code); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "mfa disabled"})
}
