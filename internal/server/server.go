// Package server exposes the assistant over HTTP as a thin front door: it
// normalizes the request into a turn, hands it to the supervisor and returns
// the arbitrated reply.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"chainsight/internal/analytics"
	"chainsight/internal/conversation"
	"chainsight/internal/logger"
	"chainsight/internal/metrics"
	"chainsight/internal/session"
)

// TurnRunner is the supervisor surface the server needs.
type TurnRunner interface {
	Run(ctx context.Context, turn conversation.Turn, key string) (conversation.Message, *metrics.TurnMetrics, error)
}

type Server struct {
	runner TurnRunner
	ready  func() bool
}

// New builds the front door. ready reports whether a completion backend is
// usable; nil means always ready.
func New(runner TurnRunner, ready func() bool) *Server {
	if ready == nil {
		ready = func() bool { return true }
	}
	return &Server{runner: runner, ready: ready}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)
	r.Post("/api/chat", s.handleChat)
	return r
}

// ListenAndServe blocks until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // a turn can span several model calls
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// chatRequest carries one turn. A client that does not track session keys may
// instead send its prior-history snapshot; the key is then derived from it.
type chatRequest struct {
	Text       string                 `json:"text"`
	SessionKey string                 `json:"session_key"`
	Triangle   string                 `json:"triangle"`
	History    []conversation.Message `json:"history,omitempty"`
}

type chatResponse struct {
	Text       string `json:"text"`
	SessionKey string `json:"session_key"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text must not be empty")
		return
	}
	if !s.ready() {
		writeError(w, http.StatusServiceUnavailable,
			"no completion backend is configured; set GEMINI_API_KEY or switch LLM_BACKEND to ollama")
		return
	}

	key := req.SessionKey
	if key == "" {
		key = session.ResolveKey(req.History)
	}
	turn := conversation.Turn{Text: req.Text}
	if req.Triangle != "" {
		turn.HintDataset = analytics.SanitizeDataset(req.Triangle)
	}

	msg, tm, err := s.runner.Run(r.Context(), turn, key)
	if err != nil {
		// The reply is still valid; only persistence failed.
		logger.Log.Printf("[Server] turn %s completed with persistence error: %v", tm.TurnID, err)
	}

	writeJSON(w, http.StatusOK, chatResponse{Text: msg.Content, SessionKey: key})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
