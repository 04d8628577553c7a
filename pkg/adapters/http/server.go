package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aretw0/foundry/internal/logging"
	"github.com/aretw0/foundry/internal/presentation/graph"
	"github.com/aretw0/foundry/internal/sanitize"
	"github.com/aretw0/foundry/pkg/domain"
	"github.com/aretw0/foundry/pkg/ports"
	"github.com/aretw0/foundry/pkg/run"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// maxBodyBytes bounds run request bodies.
const maxBodyBytes = 1 << 20

// Server exposes an Engine and its runs over HTTP.
type Server struct {
	Engine  ports.Engine
	Runs    *run.Manager
	logger  *slog.Logger
	metrics http.Handler
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics mounts h under GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// RunRequest is the body of POST /alignments/{id}/runs.
type RunRequest struct {
	RunID       string  `json:"run_id,omitempty"`
	Instruction *string `json:"instruction,omitempty"`
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine ports.Engine, runs *run.Manager, opts ...Option) http.Handler {
	s := &Server{
		Engine: engine,
		Runs:   runs,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/apparatuses", s.ListApparatuses)
	r.Route("/alignments", func(r chi.Router) {
		r.Get("/", s.ListAlignments)
		r.Get("/{id}", s.GetAlignment)
		r.Get("/{id}/graph", s.GetGraph)
		r.Post("/{id}/runs", s.StartRun)
	})
	r.Route("/runs", func(r chi.Router) {
		r.Get("/", s.ListRuns)
		r.Get("/{id}", s.GetRun)
		r.Delete("/{id}", s.DeleteRun)
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
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

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// ListApparatuses handles GET /apparatuses.
func (s *Server) ListApparatuses(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, s.Engine.Apparatuses())
}

// ListAlignments handles GET /alignments.
func (s *Server) ListAlignments(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Engine.List()
	if err != nil {
		s.fail(w, r, http.StatusInternalServerError, fmt.Errorf("list alignments: %w", err))
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, r, http.StatusOK, ids)
}

// GetAlignment handles GET /alignments/{id}.
func (s *Server) GetAlignment(w http.ResponseWriter, r *http.Request) {
	a, ok := s.load(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, r, http.StatusOK, a)
}

// GetGraph handles GET /alignments/{id}/graph and renders a Mermaid flowchart.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	a, ok := s.load(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, graph.GenerateMermaid(a, nil))
}

// StartRun handles POST /alignments/{id}/runs.
//
// A failed run still answers with its record, under 422.
func (s *Server) StartRun(w http.ResponseWriter, r *http.Request) {
	a, ok := s.load(w, r)
	if !ok {
		return
	}

	var body RunRequest
	if r.ContentLength != 0 {
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&body); err != nil {
			s.fail(w, r, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
			return
		}
	}
	if body.Instruction != nil {
		instruction, err := sanitize.Instruction(*body.Instruction)
		if err != nil {
			s.fail(w, r, http.StatusBadRequest, err)
			return
		}
		a = a.WithInstruction(instruction)
	}

	if err := s.Engine.Validate(a); err != nil {
		s.fail(w, r, http.StatusBadRequest, err)
		return
	}

	record, err := s.Runs.Run(r.Context(), s.Engine, body.RunID, a)
	switch {
	case record == nil:
		s.fail(w, r, http.StatusInternalServerError, err)
	case err != nil:
		s.logger.WarnContext(r.Context(), "run failed", "run_id", record.ID, "alignment", a.Name, "err", err)
		s.writeJSON(w, r, http.StatusUnprocessableEntity, record)
	default:
		s.writeJSON(w, r, http.StatusOK, record)
	}
}

// ListRuns handles GET /runs.
func (s *Server) ListRuns(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Runs.List(r.Context())
	if err != nil {
		s.fail(w, r, http.StatusInternalServerError, fmt.Errorf("list runs: %w", err))
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, r, http.StatusOK, ids)
}

// GetRun handles GET /runs/{id}.
func (s *Server) GetRun(w http.ResponseWriter, r *http.Request) {
	record, err := s.Runs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, statusOf(err), err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, record)
}

// DeleteRun handles DELETE /runs/{id}.
func (s *Server) DeleteRun(w http.ResponseWriter, r *http.Request) {
	if err := s.Runs.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, statusOf(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) load(w http.ResponseWriter, r *http.Request) (*domain.Alignment, bool) {
	id := chi.URLParam(r, "id")
	a, err := s.Engine.Load(id)
	if err != nil {
		s.fail(w, r, loadStatus(err), fmt.Errorf("alignment %q: %w", id, err))
		return nil, false
	}
	return a, true
}

func loadStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrAlignmentNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidAlignment):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func statusOf(err error) int {
	if errors.Is(err, domain.ErrRunNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "status", status, "err", err)
	} else {
		s.logger.DebugContext(r.Context(), "request rejected", "path", r.URL.Path, "status", status, "err", err)
	}
	s.writeJSON(w, r, status, errorResponse{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.ErrorContext(r.Context(), "response encode failed", "path", r.URL.Path, "err", err)
	}
}
