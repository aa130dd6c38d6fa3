package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"polimata/internal/ratelimit"
	"polimata/internal/util"
	"polimata/pkg/crmclient"
	"polimata/pkg/domain"
	"polimata/pkg/leads"
	"polimata/pkg/session"
	"polimata/services/dashboard/internal/app"
	"polimata/services/dashboard/internal/site"
)

const (
	defaultCookieName = "polimata_session"
	maxBodyBytes      = 1 << 20
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App                       *app.App
	Sessions                  *session.RedisStore
	Content                   site.Content
	RedisAddr                 string
	RedisPassword             string
	CookieName                string
	CookieSecure              bool
	AllowedOrigins            []string
	TrustedProxies            *util.TrustedProxies
	LoginRateLimitPerMinute   int
	ContactRateLimitPerMinute int
	ChatRateLimitPerMinute    int
}

// Server exposes the site and dashboard JSON API.
type Server struct {
	app            *app.App
	sessions       *session.RedisStore
	content        site.Content
	mux            *http.ServeMux
	cookieName     string
	cookieSecure   bool
	allowedOrigins []string
	trusted        *util.TrustedProxies
	loginLimiter   *ratelimit.FixedWindowLimiter
	contactLimiter *ratelimit.FixedWindowLimiter
	chatLimiter    *ratelimit.FixedWindowLimiter
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	if cfg.App == nil || cfg.Sessions == nil {
		return nil, errors.New("server requires app and session store")
	}
	newLimiter := func(name string, limit, fallback int) (*ratelimit.FixedWindowLimiter, error) {
		if limit <= 0 {
			limit = fallback
		}
		limiter, err := ratelimit.NewFixedWindowLimiter(ratelimit.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			Prefix:   "polimata:dashboard:ratelimit:" + name,
			Limit:    limit,
			Window:   time.Minute,
		})
		if err != nil {
			return nil, fmt.Errorf("init %s limiter: %w", name, err)
		}
		return limiter, nil
	}
	loginLimiter, err := newLimiter("login", cfg.LoginRateLimitPerMinute, 10)
	if err != nil {
		return nil, err
	}
	contactLimiter, err := newLimiter("contact", cfg.ContactRateLimitPerMinute, 5)
	if err != nil {
		_ = loginLimiter.Close()
		return nil, err
	}
	chatLimiter, err := newLimiter("chat", cfg.ChatRateLimitPerMinute, 20)
	if err != nil {
		_ = loginLimiter.Close()
		_ = contactLimiter.Close()
		return nil, err
	}
	cookieName := strings.TrimSpace(cfg.CookieName)
	if cookieName == "" {
		cookieName = defaultCookieName
	}
	s := &Server{
		app:            cfg.App,
		sessions:       cfg.Sessions,
		content:        cfg.Content,
		mux:            http.NewServeMux(),
		cookieName:     cookieName,
		cookieSecure:   cfg.CookieSecure,
		allowedOrigins: cfg.AllowedOrigins,
		trusted:        cfg.TrustedProxies,
		loginLimiter:   loginLimiter,
		contactLimiter: contactLimiter,
		chatLimiter:    chatLimiter,
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler with the middleware chain applied.
func (s *Server) Router() http.Handler {
	var h http.Handler = s.mux
	h = util.WithCORS(s.allowedOrigins, h)
	h = util.WithSecurityHeaders(h)
	h = util.WithRequestLog("dashboard", h)
	return util.WithRequestID(h)
}

// Close releases the limiter connections.
func (s *Server) Close() error {
	return errors.Join(s.loginLimiter.Close(), s.contactLimiter.Close(), s.chatLimiter.Close())
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	// public site
	s.mux.HandleFunc("/api/site/content", s.handleSiteContent)
	s.mux.HandleFunc("/api/site/contact", s.handleSiteContact)
	s.mux.HandleFunc("/api/site/chat", s.handleSiteChat)

	// auth
	s.mux.HandleFunc("/api/auth/login", s.handleLogin)
	s.mux.HandleFunc("/api/auth/register", s.handleRegister)
	s.mux.HandleFunc("/api/auth/logout", s.handleLogout)
	s.mux.HandleFunc("/api/auth/me", s.handleMe)

	// dashboard (session required)
	s.mux.Handle("/api/dashboard/overview", s.authenticated(s.handleOverview))
	s.mux.Handle("/api/dashboard/contacts", s.authenticated(s.handleContacts))
	s.mux.Handle("/api/dashboard/contacts/", s.authenticated(s.handleContactByID))
	s.mux.Handle("/api/dashboard/analytics", s.authenticated(s.handleAnalytics))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type sessionHandler func(http.ResponseWriter, *http.Request, session.Store)

// authenticated resolves the session cookie to stored credentials. The
// cookie is only cleared when the store answers that it holds nothing.
func (s *Server) authenticated(next sessionHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.session(r)
		if !ok {
			s.audit(r, "dashboard.authorize", "fail", "reason", "missing_cookie")
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		_, ok, err := sess.Load(r.Context())
		if err != nil {
			s.audit(r, "dashboard.authorize", "fail", "reason", "store_error")
			util.LoggerFromContext(r.Context()).Error("session load failed", "err", err)
			writeError(w, http.StatusServiceUnavailable, "session store unavailable")
			return
		}
		if !ok {
			s.audit(r, "dashboard.authorize", "fail", "reason", "no_credentials")
			s.clearCookie(w, r)
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r, sess)
	})
}

func (s *Server) session(r *http.Request) (*session.RedisSession, bool) {
	cookie, err := r.Cookie(s.cookieName)
	if err != nil || strings.TrimSpace(cookie.Value) == "" {
		return nil, false
	}
	return s.sessions.Bind(cookie.Value), true
}

func (s *Server) setCookie(w http.ResponseWriter, r *http.Request, sid string) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    sid,
		Path:     "/",
		MaxAge:   int(s.sessions.TTL().Seconds()),
		HttpOnly: true,
		Secure:   s.cookieSecure || util.IsHTTPS(r),
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cookieSecure || util.IsHTTPS(r),
		SameSite: http.SameSiteLaxMode,
	})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) audit(r *http.Request, event, outcome string, attrs ...any) {
	logAttrs := []any{
		"event", event,
		"outcome", outcome,
		"path", r.URL.Path,
		"method", r.Method,
		"ip", s.clientIP(r),
	}
	logAttrs = append(logAttrs, attrs...)
	logger := util.LoggerFromContext(r.Context())
	if outcome == "success" {
		logger.Info("security_event", logAttrs...)
		return
	}
	logger.Warn("security_event", logAttrs...)
}

func (s *Server) allowRate(w http.ResponseWriter, r *http.Request, limiter *ratelimit.FixedWindowLimiter, msg string) bool {
	decision := limiter.Allow(r.Context(), r.URL.Path+"|"+s.clientIP(r))
	if decision.Allowed {
		return true
	}
	retry := int(decision.RetryAfter.Round(time.Second).Seconds())
	if retry < 1 {
		retry = 60
	}
	w.Header().Set("Retry-After", strconv.Itoa(retry))
	writeError(w, http.StatusTooManyRequests, msg)
	return false
}

func (s *Server) clientIP(r *http.Request) string {
	return util.ClientIP(r, s.trusted)
}

// writeCRMError maps backend and validation failures onto responses.
// A backend 401 has already discarded the stored credential; the cookie
// goes too so the page sends the user back to login.
func (s *Server) writeCRMError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *crmclient.APIError
	switch {
	case errors.Is(err, app.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, strings.TrimPrefix(err.Error(), app.ErrInvalidInput.Error()+": "))
	case errors.Is(err, domain.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, "status must be one of new, contacted, closed")
	case errors.Is(err, leads.ErrContactNotFound):
		writeError(w, http.StatusNotFound, "contact not found")
	case errors.Is(err, session.ErrStoreUnavailable):
		util.LoggerFromContext(r.Context()).Error("session store failed", "err", err)
		writeError(w, http.StatusServiceUnavailable, "session store unavailable")
	case errors.Is(err, crmclient.ErrUnauthorized):
		s.audit(r, "dashboard.session", "expired")
		s.clearCookie(w, r)
		writeError(w, http.StatusUnauthorized, "session expired")
	case errors.As(err, &apiErr):
		writeError(w, apiErr.Status, apiErr.Message)
	default:
		util.LoggerFromContext(r.Context()).Error("crm request failed", "err", err)
		writeError(w, http.StatusBadGateway, "crm backend unavailable")
	}
}
