package api

import (
	"net/http"
	"time"
)

type healthResponse struct {
	Status    string         `json:"status"`
	Timestamp string         `json:"timestamp"`
	Services  healthServices `json:"services"`
}

type healthServices struct {
	Database  string `json:"database"`
	Validator string `json:"validator"`
	Sessions  int    `json:"sessions"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbStatus := "connected"
	if s.deps.DB == nil || s.deps.DB.Ping(r.Context()) != nil {
		dbStatus = "disconnected"
	}
	sessions := 0
	if s.deps.Assistant != nil {
		sessions = s.deps.Assistant.SessionCount()
	}

	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services: healthServices{
			Database:  dbStatus,
			Validator: s.deps.Validator,
			Sessions:  sessions,
		},
	})
}
