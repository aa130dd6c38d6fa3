package server

import (
	"net/http"

	"polimata/pkg/domain"
)

func (s *Server) handleSiteContent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, s.content)
}

func (s *Server) handleSiteContact(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.contactLimiter, "too many contact submissions") {
		return
	}
	var req domain.ContactInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	contact, err := s.app.SubmitContact(r.Context(), req)
	if err != nil {
		s.writeCRMError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, contact)
}

type chatRequest struct {
	Content string `json:"content"`
	Type    string `json:"type,omitempty"`
}

func (s *Server) handleSiteChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.chatLimiter, "too many chat messages") {
		return
	}
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	reply, err := s.app.Chat(r.Context(), req.Content)
	if err != nil {
		s.writeCRMError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}
