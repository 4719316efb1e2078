package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lazyai/lazyai/internal/session"
)

// APISession is the wire form of a session.
type APISession struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Issue     string    `json:"issue,omitempty"`
	PR        string    `json:"pr,omitempty"`
}

// SessionsResponse wraps the session listing.
type SessionsResponse struct {
	Sessions []APISession `json:"sessions"`
}

// ErrorResponse is the error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.store.List()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	out := make([]APISession, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, s.apiSession(sess))
	}
	writeJSON(w, http.StatusOK, SessionsResponse{Sessions: out})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if !session.IsSessionID(id) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid session id"})
		return
	}

	sess := s.store.Get(id)
	if !s.store.Exists(sess) {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "session not found"})
		return
	}
	writeJSON(w, http.StatusOK, s.apiSession(sess))
}

func (s *Server) apiSession(sess session.Session) APISession {
	out := APISession{ID: sess.ID, CreatedAt: sess.CreatedAt}
	if v, ok := s.store.ReadCorrelation(sess, session.KindIssue); ok {
		out.Issue = v
	}
	if v, ok := s.store.ReadCorrelation(sess, session.KindPR); ok {
		out.PR = v
	}
	return out
}
