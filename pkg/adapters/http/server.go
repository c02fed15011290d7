// Package http serves registered operations over HTTP: direct invocation,
// OpenAI-style tool-call batches, an OpenAPI document and Prometheus metrics.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/relay/pkg/adapters/openai"
	"github.com/aretw0/relay/pkg/domain"
	"github.com/aretw0/relay/pkg/dsl"
	"github.com/aretw0/relay/pkg/registry"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes a registry over HTTP.
type Server struct {
	Registry *registry.Registry

	batch    openai.BatchMode
	gatherer prometheus.Gatherer
	logger   *slog.Logger
	title    string
	version  string
}

// Option configures a Server.
type Option func(*Server)

// WithBatchMode selects how POST /tool-calls executes a batch.
func WithBatchMode(m openai.BatchMode) Option {
	return func(s *Server) { s.batch = m }
}

// WithMetrics exposes g on GET /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithInfo sets the title and version of the OpenAPI document.
func WithInfo(title, version string) Option {
	return func(s *Server) {
		s.title = title
		s.version = version
	}
}

// InvokeRequest is the body of a direct invocation.
type InvokeRequest struct {
	Input   any            `json:"input,omitempty"`
	Context domain.Context `json:"context,omitempty"`
}

// InvokeResponse wraps the result of a direct invocation.
type InvokeResponse struct {
	Result any `json:"result"`
}

// ToolCallsRequest carries an assistant message, or a chat completion whose
// first choice holds it.
type ToolCallsRequest struct {
	Message        *domain.Message        `json:"message,omitempty"`
	ChatCompletion *domain.ChatCompletion `json:"chat_completion,omitempty"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// NewHandler creates the HTTP handler for reg.
func NewHandler(reg *registry.Registry, opts ...Option) http.Handler {
	s := &Server{
		Registry: reg,
		logger:   slog.Default(),
		title:    "relay",
		version:  "dev",
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/tools", s.ListTools)
	r.Post("/tool-calls", s.HandleToolCalls)
	r.Post("/functions/{function}", s.InvokeFunction)
	r.Post("/containers/{container}/operations/{operation}", s.InvokeOperation)
	r.Get("/openapi.json", s.OpenAPI)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"app":        s.title,
		"version":    strings.TrimSpace(s.version),
		"containers": len(s.Registry.Containers()),
		"functions":  len(s.Registry.Functions()),
	})
}

// ListTools handles GET /tools.
func (s *Server) ListTools(w http.ResponseWriter, r *http.Request) {
	tools := s.Registry.Functions()
	if tools == nil {
		tools = []domain.FunctionDefinition{}
	}
	s.writeJSON(w, http.StatusOK, tools)
}

// HandleToolCalls handles POST /tool-calls.
func (s *Server) HandleToolCalls(w http.ResponseWriter, r *http.Request) {
	var body ToolCallsRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.logger.Warn("tool-calls: invalid request body", "error", err)
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	adapter := openai.New(s.Registry.Containers(),
		openai.WithBatchMode(s.batch),
		openai.WithLogger(s.logger),
		openai.WithInvoker(s.Registry.Invoke),
	)
	out := adapter.Handle(r.Context(), openai.Request{Message: body.Message, ChatCompletion: body.ChatCompletion})
	s.writeJSON(w, http.StatusOK, out)
}

// InvokeFunction handles POST /functions/{function}. The body is the input.
func (s *Server) InvokeFunction(w http.ResponseWriter, r *http.Request) {
	var input any
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	res, err := s.Registry.Invoke(r.Context(), chi.URLParam(r, "function"), input)
	if err != nil {
		s.writeError(w, statusOf(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, InvokeResponse{Result: res})
}

// InvokeOperation handles POST /containers/{container}/operations/{operation}.
func (s *Server) InvokeOperation(w http.ResponseWriter, r *http.Request) {
	var body InvokeRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	name := chi.URLParam(r, "container")
	unit, ok := s.Registry.Lookup(name)
	if !ok || unit.Kind != registry.KindContainer {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("container %q not found", name))
		return
	}
	inv, err := unit.Container.Run(chi.URLParam(r, "operation"))
	if err != nil {
		s.writeError(w, statusOf(err), err)
		return
	}

	res, err := inv.Handle(r.Context(), dsl.Invocation{Input: body.Input, Context: body.Context})
	if err != nil {
		s.logger.Warn("operation failed", "container", name, "operation", inv.Operation().Name(), "error", err)
		s.writeError(w, statusOf(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, InvokeResponse{Result: res})
}

func statusOf(err error) int {
	var verr *dsl.ValidationError
	switch {
	case errors.Is(err, dsl.ErrOperationNotFound), errors.Is(err, registry.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &verr) && verr.Stage == dsl.StageInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	res := dsl.NewErrorResult(err)
	s.writeJSON(w, status, ErrorResponse{Error: res.Error, Details: res.Details})
}
