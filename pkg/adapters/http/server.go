// Package http serves live annotation sessions over a JSON API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/annotate"
	"github.com/aretw0/annotate/internal/logging"
	"github.com/aretw0/annotate/internal/ratelimit"
	"github.com/aretw0/annotate/pkg/domain"
	"github.com/aretw0/annotate/pkg/ports"
	"github.com/aretw0/annotate/pkg/registry"
	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// Server exposes the sessions of a registry.
type Server struct {
	Sessions *registry.Registry[ports.Controller]
	Streams  *StreamManager

	limiter     *ratelimit.Limiter
	metrics     http.Handler
	afterChange func(ctx context.Context, c ports.Controller)
	logger      *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithRateLimit limits requests per session to rps with the given burst.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Server) {
		s.limiter = ratelimit.New(rps, burst, 10*time.Minute)
	}
}

// WithMetrics mounts h at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithAfterChange registers a callback run after every request that may have changed a session,
// typically to persist its snapshot.
func WithAfterChange(fn func(ctx context.Context, c ports.Controller)) Option {
	return func(s *Server) {
		s.afterChange = fn
	}
}

// WithLogger configures a logger for the Server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// New creates a Server over sessions.
func New(sessions *registry.Registry[ports.Controller], opts ...Option) *Server {
	s := &Server{
		Sessions: sessions,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams = NewStreamManager(s.logger)
	return s
}

// NewHandler creates a new HTTP handler for the sessions of a registry.
func NewHandler(sessions *registry.Registry[ports.Controller], opts ...Option) http.Handler {
	return New(sessions, opts...).Handler()
}

// Handler returns the API with CORS headers applied.
func (s *Server) Handler() http.Handler {
	return enableCORS(s.Router())
}

// Router builds the chi router.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(rawSpec)
	})
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/sessions", s.ListSessions)

	r.Route("/sessions/{sessionId}", func(r chi.Router) {
		r.Use(s.rateLimit)
		r.Get("/", s.wrap(s.GetSession))
		r.Get("/commands", s.wrap(s.ListCommands))
		r.Post("/commands/{command}", s.wrap(func(w http.ResponseWriter, r *http.Request, c ports.Controller) {
			var command string
			if err := bindPath(r, "command", &command); err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			s.ExecuteCommand(w, r, c, command)
		}))
		r.Post("/keys", s.wrap(s.PressKeys))
		r.Patch("/flags", s.wrap(s.SetFlags))
		r.Post("/interfaces", s.wrap(s.AddInterface))
		r.Get("/events", s.wrap(s.SubscribeEvents))
	})

	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// bindPath decodes a simple-style path parameter, as generated chi servers do.
func bindPath(r *http.Request, name string, dest any) error {
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), dest,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return fmt.Errorf("invalid format for parameter %s: %w", name, err)
	}
	return nil
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow(chi.URLParam(r, "sessionId"), time.Now()) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// wrap binds the session path parameter and resolves it to a controller.
func (s *Server) wrap(h func(http.ResponseWriter, *http.Request, ports.Controller)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var sessionID string
		if err := bindPath(r, "sessionId", &sessionID); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		c, ok := s.Sessions.Lookup(sessionID)
		if !ok {
			writeError(w, http.StatusNotFound, domain.ErrSessionNotFound.Error())
			return
		}
		h(w, r, c)
	}
}

func (s *Server) changed(ctx context.Context, c ports.Controller) {
	if s.afterChange != nil {
		s.afterChange(ctx, c)
	}
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if doc, err := LoadSpec(r.Context()); err == nil && doc.Info != nil {
		apiVersion = doc.Info.Version
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "annotate-http",
		"version":     strings.TrimSpace(annotate.Version),
		"api_version": apiVersion,
	})
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Sessions.Names())
}

// GetSession handles GET /sessions/{sessionId}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request, c ports.Controller) {
	writeJSON(w, http.StatusOK, c.Snapshot())
}

// ListCommands handles GET /sessions/{sessionId}/commands.
func (s *Server) ListCommands(w http.ResponseWriter, r *http.Request, c ports.Controller) {
	writeJSON(w, http.StatusOK, c.Commands())
}

// CommandResult is the response of command and key requests.
type CommandResult struct {
	Command string `json:"command,omitempty"`
	Handled bool   `json:"handled"`
}

// ExecuteCommand handles POST /sessions/{sessionId}/commands/{command}.
func (s *Server) ExecuteCommand(w http.ResponseWriter, r *http.Request, c ports.Controller, command string) {
	handled, err := c.Execute(r.Context(), command)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownCommand) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		s.logger.Error("ExecuteCommand failed", "session_id", c.ID(), "command", command, "err", err)
		return
	}
	s.changed(r.Context(), c)
	writeJSON(w, http.StatusOK, CommandResult{Command: command, Handled: handled})
}

// PressKeys handles POST /sessions/{sessionId}/keys.
func (s *Server) PressKeys(w http.ResponseWriter, r *http.Request, c ports.Controller) {
	var body struct {
		Keys string `json:"keys"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.Keys) == "" {
		writeError(w, http.StatusBadRequest, "body must be {\"keys\": \"<combo>\"}")
		return
	}

	handled, err := c.Dispatch(r.Context(), body.Keys)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		s.logger.Error("PressKeys failed", "session_id", c.ID(), "keys", body.Keys, "err", err)
		return
	}
	s.changed(r.Context(), c)
	writeJSON(w, http.StatusOK, CommandResult{Handled: handled})
}

// SetFlags handles PATCH /sessions/{sessionId}/flags.
func (s *Server) SetFlags(w http.ResponseWriter, r *http.Request, c ports.Controller) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ignored, err := c.SetFlagsFromMap(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if ignored == nil {
		ignored = []string{}
	}
	s.changed(r.Context(), c)
	writeJSON(w, http.StatusOK, map[string]any{
		"flags":   c.Snapshot().Flags,
		"ignored": ignored,
	})
}

// AddInterface handles POST /sessions/{sessionId}/interfaces.
func (s *Server) AddInterface(w http.ResponseWriter, r *http.Request, c ports.Controller) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.Name) == "" {
		writeError(w, http.StatusBadRequest, "body must be {\"name\": \"<capability>\"}")
		return
	}
	c.AddInterface(body.Name)
	s.changed(r.Context(), c)
	w.WriteHeader(http.StatusNoContent)
}

// SubscribeEvents handles GET /sessions/{sessionId}/events (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request, c ports.Controller) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(c.ID())
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

type streamEvent struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Hooks returns lifecycle hooks that publish command and guard events to SSE subscribers.
func (s *Server) Hooks() domain.LifecycleHooks {
	publish := func(sessionID, kind string, data any) {
		if sessionID == "" {
			return
		}
		b, err := json.Marshal(streamEvent{Type: kind, Data: data})
		if err != nil {
			return
		}
		s.Streams.Broadcast(sessionID, string(b))
	}
	return domain.LifecycleHooks{
		OnCommand: func(_ context.Context, e *domain.CommandEvent) {
			publish(e.SessionID, "command", e)
		},
		OnGuardEngage: func(_ context.Context, e *domain.GuardEvent) {
			publish(e.SessionID, "guard_engage", e)
		},
		OnGuardRelease: func(_ context.Context, e *domain.GuardEvent) {
			publish(e.SessionID, "guard_release", e)
		},
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
