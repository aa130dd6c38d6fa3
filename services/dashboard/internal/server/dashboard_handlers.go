package server

import (
	"net/http"
	"strconv"
	"strings"

	"polimata/pkg/domain"
	"polimata/pkg/leads"
	"polimata/pkg/session"
)

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request, sess session.Store) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	summary, err := s.app.Overview(r.Context(), sess)
	if err != nil {
		s.writeCRMError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleContacts(w http.ResponseWriter, r *http.Request, sess session.Store) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	filter, err := domain.ParseStatusFilter(r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "status must be one of all, new, contacted, closed")
		return
	}
	list, err := s.app.Contacts(r.Context(), sess, leads.Query{
		Text:   r.URL.Query().Get("q"),
		Status: filter,
	})
	if err != nil {
		s.writeCRMError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

type statusRequest struct {
	Status string `json:"status"`
}

// handleContactByID serves /api/dashboard/contacts/{id} and /{id}/status.
func (s *Server) handleContactByID(w http.ResponseWriter, r *http.Request, sess session.Store) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/dashboard/contacts/"), "/")
	parts := strings.Split(rest, "/")
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	switch {
	case len(parts) == 1:
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		contact, err := s.app.Contact(r.Context(), sess, id)
		if err != nil {
			s.writeCRMError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, contact)
	case len(parts) == 2 && parts[1] == "status":
		if r.Method != http.MethodPut && r.Method != http.MethodPatch {
			methodNotAllowed(w)
			return
		}
		var req statusRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		contact, err := s.app.UpdateStatus(r.Context(), sess, id, req.Status)
		if err != nil {
			s.writeCRMError(w, r, err)
			return
		}
		s.audit(r, "dashboard.contact_status", "success", "contact_id", id, "status", contact.Status)
		writeJSON(w, http.StatusOK, contact)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request, sess session.Store) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	days := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("days")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "days must be a number")
			return
		}
		if n == 0 {
			n = -1
		}
		days = n
	}
	analytics, err := s.app.Analytics(r.Context(), sess, days)
	if err != nil {
		s.writeCRMError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analytics)
}
