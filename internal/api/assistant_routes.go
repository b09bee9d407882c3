package api

import (
	"net/http"

	"github.com/kjannette/maichez-backend/internal/dataurl"
	"github.com/kjannette/maichez-backend/internal/transcript"
)

const defaultHistoryLimit = 50

type sendMessageRequest struct {
	Text string `json:"text" validate:"max=10000"`
}

type attachImageRequest struct {
	DataURL string `json:"dataUrl" validate:"required"`
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request, userID string) {
	writeJSON(w, http.StatusCreated, s.deps.Assistant.Start(r.Context(), userID))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request, userID string) {
	snap, err := s.deps.Assistant.Snapshot(userID, r.PathValue("id"))
	if err != nil {
		writeFailure(w, r, err, "fetch session")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request, userID string) {
	var req sendMessageRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	snap, err := s.deps.Assistant.Send(r.Context(), userID, r.PathValue("id"), req.Text)
	if err != nil {
		writeFailure(w, r, err, "send message")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleAttachImage(w http.ResponseWriter, r *http.Request, userID string) {
	var req attachImageRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if _, err := dataurl.ValidateImage(req.DataURL, s.maxImageBytes); err != nil {
		writeFailure(w, r, err, "attach image")
		return
	}
	snap, err := s.deps.Assistant.AttachImage(r.Context(), userID, r.PathValue("id"), req.DataURL)
	if err != nil {
		writeFailure(w, r, err, "attach image")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleClearImage(w http.ResponseWriter, r *http.Request, userID string) {
	snap, err := s.deps.Assistant.AttachImage(r.Context(), userID, r.PathValue("id"), "")
	if err != nil {
		writeFailure(w, r, err, "clear image")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleLogDraft(w http.ResponseWriter, r *http.Request, userID string) {
	entry, err := s.deps.Assistant.LogDraft(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeFailure(w, r, err, "log trade")
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request, userID string) {
	if err := s.deps.Assistant.End(r.Context(), userID, r.PathValue("id")); err != nil {
		writeFailure(w, r, err, "end session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleHistory returns the student's archived messages, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request, userID string) {
	if s.deps.Transcripts == nil {
		writeJSON(w, http.StatusOK, []transcript.Entry{})
		return
	}
	entries, err := s.deps.Transcripts.Recent(r.Context(), userID, parseLimit(r, defaultHistoryLimit))
	if err != nil {
		writeFailure(w, r, err, "fetch history")
		return
	}
	if entries == nil {
		entries = []transcript.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
