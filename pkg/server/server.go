// Package server hosts an agent behind an A2A JSON-RPC endpoint.
//
// Each Server wraps one agent: POST / accepts JSON-RPC (message/send,
// tasks/get), the agent card is published at /.well-known/agent-card.json,
// and /health and /metrics serve operational endpoints.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/trace"

	"github.com/agentwire/crosstalk/pkg/agent"
	"github.com/agentwire/crosstalk/pkg/auth"
	"github.com/agentwire/crosstalk/pkg/observability"
	"github.com/agentwire/crosstalk/pkg/session"
)

const AgentCardPath = "/.well-known/agent-card.json"

type Server struct {
	agent      agent.Agent
	store      *session.Store
	addr       string
	baseURL    string
	tracer     trace.Tracer
	metrics    *observability.Metrics
	validator  *auth.JWTValidator
	logger     *slog.Logger
	httpServer *http.Server
}

type Options struct {
	Agent   agent.Agent
	Store   *session.Store
	Host    string
	Port    int
	Tracer  trace.Tracer
	Metrics *observability.Metrics

	// Validator enables bearer-token auth on the RPC endpoint when set.
	Validator *auth.JWTValidator

	Logger *slog.Logger
}

func New(opts Options) (*Server, error) {
	if opts.Agent == nil {
		return nil, fmt.Errorf("server requires an agent")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("server requires a session store")
	}
	if opts.Port == 0 {
		return nil, fmt.Errorf("server requires a port")
	}
	if opts.Host == "" {
		opts.Host = "localhost"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Server{
		agent:     opts.Agent,
		store:     opts.Store,
		addr:      fmt.Sprintf("%s:%d", opts.Host, opts.Port),
		baseURL:   fmt.Sprintf("http://%s:%d", opts.Host, opts.Port),
		tracer:    opts.Tracer,
		metrics:   opts.Metrics,
		validator: opts.Validator,
		logger:    opts.Logger,
	}, nil
}

func (s *Server) Addr() string { return s.addr }

func (s *Server) BaseURL() string { return s.baseURL }

// Router assembles the HTTP handler. Exposed for tests.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	if s.metrics != nil || s.tracer != nil {
		r.Use(observability.HTTPMiddleware(s.tracer, s.metrics))
	}

	r.Get(AgentCardPath, s.handleAgentCard)
	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		if s.validator != nil {
			r.Use(s.validator.HTTPMiddleware)
		}
		if s.tracer != nil {
			r.Use(ThreadMetadataMiddleware(s.tracer, s.agent.Name()))
		}
		r.Post("/", s.handleJSONRPC)
	})

	return r
}

// Start runs the server until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Agent endpoint listening",
			"agent", s.agent.Name(),
			"addr", s.addr,
			"card", s.baseURL+AgentCardPath)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("agent endpoint %s failed: %w", s.agent.Name(), err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("agent endpoint %s shutdown: %w", s.agent.Name(), err)
		}
		s.logger.Info("Agent endpoint stopped", "agent", s.agent.Name())
		return nil
	}
}

func (s *Server) handleAgentCard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.agent.Card(s.baseURL))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok", "agent": s.agent.Name()})
}
