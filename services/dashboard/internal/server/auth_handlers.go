package server

import (
	"errors"
	"net/http"
	"strings"

	"polimata/internal/util"
	"polimata/pkg/crmclient"
	"polimata/pkg/domain"
	"polimata/pkg/session"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.loginLimiter, "too many login attempts") {
		s.audit(r, "dashboard.login", "rate_limited")
		return
	}
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		s.audit(r, "dashboard.login", "fail", "reason", "invalid_json")
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password required")
		return
	}
	sid := session.NewSessionID()
	state, err := s.app.Auth(s.sessions.Bind(sid)).Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.audit(r, "dashboard.login", "fail", "status", crmclient.StatusOf(err))
		s.writeAuthError(w, r, err)
		return
	}
	if old, ok := s.session(r); ok {
		_ = old.Clear(r.Context())
	}
	s.setCookie(w, r, sid)
	s.audit(r, "dashboard.login", "success", "user_id", state.User.ID)
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.loginLimiter, "too many signup attempts") {
		s.audit(r, "dashboard.register", "rate_limited")
		return
	}
	var req domain.RegisterInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password required")
		return
	}
	user, err := s.app.Auth(session.NewMemoryStore()).Register(r.Context(), req)
	if err != nil {
		s.audit(r, "dashboard.register", "fail", "status", crmclient.StatusOf(err))
		s.writeAuthError(w, r, err)
		return
	}
	s.audit(r, "dashboard.register", "success", "user_id", user.ID)
	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if sess, ok := s.session(r); ok {
		if err := s.app.Auth(sess).Logout(r.Context()); err != nil {
			s.audit(r, "dashboard.logout", "fail", "reason", err.Error())
			writeError(w, http.StatusInternalServerError, "could not end session")
			return
		}
	}
	s.clearCookie(w, r)
	s.audit(r, "dashboard.logout", "success")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	sess, ok := s.session(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	state, err := s.app.Auth(sess).Bootstrap(r.Context())
	if err != nil {
		s.writeAuthError(w, r, err)
		return
	}
	if !state.Authenticated {
		s.clearCookie(w, r)
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// writeAuthError surfaces the backend's own status and message for auth
// failures. Session store outages get their own status so they are not
// mistaken for the CRM being down.
func (s *Server) writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *crmclient.APIError
	switch {
	case errors.Is(err, session.ErrStoreUnavailable):
		util.LoggerFromContext(r.Context()).Error("session store failed", "err", err)
		writeError(w, http.StatusServiceUnavailable, "session store unavailable")
	case errors.As(err, &apiErr):
		writeError(w, apiErr.Status, apiErr.Message)
	default:
		util.LoggerFromContext(r.Context()).Warn("auth request failed", "err", err)
		writeError(w, http.StatusBadGateway, "crm backend unavailable")
	}
}
