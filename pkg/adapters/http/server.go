// Package http exposes conversations over a JSON API.
//
//	POST   /sessions                 start a session and play its opening turn
//	GET    /sessions                 list session IDs
//	GET    /sessions/{id}            read a session
//	DELETE /sessions/{id}            end and remove a session
//	POST   /sessions/{id}/turns      send an utterance
//	GET    /events?session_id={id}   stream session diffs (SSE)
//	GET    /graph                    the conversation graph
//	GET    /health, /info, /metrics
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/arcade/internal/logging"
	"github.com/aretw0/arcade/pkg/domain"
	"github.com/aretw0/arcade/pkg/ports"
	"github.com/aretw0/arcade/pkg/runner"
	"github.com/aretw0/arcade/pkg/session"
)

// Server serves one conversation engine over HTTP.
type Server struct {
	Engine   ports.Conversation
	Sessions *session.Manager
	Streams  *StreamManager

	version  string
	gatherer prometheus.Gatherer
	logger   *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithMetrics serves the gatherer on /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithVersion sets the version reported by /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// StartRequest is the body of POST /sessions. Both fields are optional.
type StartRequest struct {
	SessionID string `json:"session_id,omitempty"`
}

// TurnRequest is the body of POST /sessions/{id}/turns.
type TurnRequest struct {
	Utterance string `json:"utterance"`
}

// TurnResponse reports the outcome of a turn.
type TurnResponse struct {
	SessionID string              `json:"session_id"`
	Turn      domain.Turn         `json:"turn"`
	NoMatch   bool                `json:"no_match,omitempty"`
	Diff      *domain.SessionDiff `json:"diff,omitempty"`
}

// NewServer creates a server over the engine and the session manager.
func NewServer(engine ports.Conversation, sessions *session.Manager, opts ...Option) *Server {
	s := &Server{
		Engine:   engine,
		Sessions: sessions,
		Streams:  NewStreamManager(),
		version:  "dev",
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams.logger = s.logger
	return s
}

// Handler returns the routes of the API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/graph", s.GetGraph)
	r.Get("/events", s.SubscribeEvents)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.StartSession)
		r.Get("/", s.ListSessions)
		r.Get("/{id}", s.GetSession)
		r.Delete("/{id}", s.DeleteSession)
		r.Post("/{id}/turns", s.PostTurn)
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// StartSession handles POST /sessions.
func (s *Server) StartSession(w http.ResponseWriter, r *http.Request) {
	var body StartRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			s.fail(w, http.StatusBadRequest, "invalid request body", err)
			return
		}
	}

	started, err := s.Sessions.Create(r.Context(), s.Engine, body.SessionID)
	if errors.Is(err, domain.ErrSessionExists) {
		s.fail(w, http.StatusConflict, "session already exists", nil)
		return
	}
	if err != nil {
		s.fail(w, http.StatusInternalServerError, "start failed", err)
		return
	}

	// The opening system turns need no utterance.
	next, turn, err := s.Sessions.Step(r.Context(), s.Engine, started.ID, "")
	if err != nil && !errors.Is(err, domain.ErrSessionEnded) {
		s.fail(w, http.StatusInternalServerError, "opening turn failed", err)
		return
	}
	s.logger.Info("Session started", "session_id", started.ID)

	s.writeJSON(w, http.StatusCreated, TurnResponse{
		SessionID: started.ID,
		Turn:      turn,
		Diff:      domain.Diff(nil, next),
	})
}

// PostTurn handles POST /sessions/{id}/turns.
func (s *Server) PostTurn(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.fail(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	utterance, err := runner.SanitizeInput(body.Utterance)
	if err != nil {
		s.fail(w, http.StatusBadRequest, "invalid input", err)
		return
	}

	before, after, turn, err := s.Sessions.Advance(r.Context(), s.Engine, id, utterance)
	resp := TurnResponse{SessionID: id, Turn: turn}
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNoMatch):
		resp.NoMatch = true
	case errors.Is(err, domain.ErrSessionNotFound):
		s.fail(w, http.StatusNotFound, "session not found", nil)
		return
	case errors.Is(err, domain.ErrSessionEnded):
		s.fail(w, http.StatusConflict, "session ended", nil)
		return
	default:
		s.fail(w, http.StatusInternalServerError, "step failed", err)
		return
	}

	resp.Diff = domain.Diff(before, after)
	if resp.Diff != nil {
		if data, err := json.Marshal(resp.Diff); err == nil {
			s.Streams.Broadcast(id, string(data))
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Sessions.Load(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, domain.ErrSessionNotFound) {
		s.fail(w, http.StatusNotFound, "session not found", nil)
		return
	}
	if err != nil {
		s.fail(w, http.StatusInternalServerError, "load failed", err)
		return
	}
	s.writeJSON(w, http.StatusOK, sess)
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Sessions.List(r.Context())
	if err != nil {
		s.fail(w, http.StatusInternalServerError, "list failed", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, http.StatusInternalServerError, "delete failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetGraph handles GET /graph.
func (s *Server) GetGraph(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Engine.Inspect())
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "arcade-http",
		"version": s.version,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "err", err)
	}
}

// fail writes a JSON error. Server side failures are logged with their cause.
func (s *Server) fail(w http.ResponseWriter, status int, msg string, err error) {
	body := map[string]string{"error": msg}
	if err != nil {
		body["detail"] = err.Error()
		if status >= http.StatusInternalServerError {
			s.logger.Error(fmt.Sprintf("Request failed: %s", msg), "status", status, "err", err)
		} else {
			s.logger.Warn(fmt.Sprintf("Request rejected: %s", msg), "status", status, "err", err)
		}
	}
	s.writeJSON(w, status, body)
}
