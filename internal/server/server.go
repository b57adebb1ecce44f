// Package server exposes the conversation API over HTTP.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/pablomtz/saulo-agent/internal/chat"
)

// Server renders orchestrator results as JSON.
type Server struct {
	orchestrator *chat.Orchestrator
}

// New returns a Server around the orchestrator.
func New(orchestrator *chat.Orchestrator) *Server {
	return &Server{orchestrator: orchestrator}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/conversar", s.handleConverse).Methods(http.MethodPost)
	r.HandleFunc("/estado/{user_id}", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/reset/{user_id}", s.handleReset).Methods(http.MethodPost)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Use(corsMiddleware)
	return r
}

type conversePayload struct {
	UserID  string `json:"user_id"`
	Text    string `json:"text"`
	Command string `json:"command,omitempty"`
}

func (s *Server) handleConverse(w http.ResponseWriter, r *http.Request) {
	var payload conversePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.orchestrator.Converse(r.Context(), payload.UserID, payload.Text, payload.Command)
	if err != nil {
		// Only persistence failures reach this branch; model failures
		// degrade inside the orchestrator.
		slog.Error("turn failed", "user", payload.UserID, "error", err.Error())
		writeError(w, http.StatusInternalServerError, "state store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]
	report, err := s.orchestrator.Status(r.Context(), userID)
	if err != nil {
		slog.Error("status failed", "user", userID, "error", err.Error())
		writeError(w, http.StatusInternalServerError, "state store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]
	if err := s.orchestrator.Reset(r.Context(), userID); err != nil {
		slog.Error("reset failed", "user", userID, "error", err.Error())
		writeError(w, http.StatusInternalServerError, "state store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Saulo (" + userID + ") resetado a estado BASE",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
