package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/agentwire/crosstalk/pkg/agent"
	"github.com/agentwire/crosstalk/pkg/auth"
	"github.com/agentwire/crosstalk/pkg/config"
	"github.com/agentwire/crosstalk/pkg/llms"
	"github.com/agentwire/crosstalk/pkg/observability"
	"github.com/agentwire/crosstalk/pkg/server"
	"github.com/agentwire/crosstalk/pkg/session"
	"github.com/agentwire/crosstalk/pkg/tools"
)

// ServeCmd hosts every agent declared in the configuration, one HTTP
// server per agent.
type ServeCmd struct {
	Watch bool `help:"Watch the config file and log when it changes."`
}

func (c *ServeCmd) Run(cli *CLI) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cli.Config)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if len(cfg.Agents) == 0 {
		return fmt.Errorf("no agents configured")
	}

	tp, err := observability.InitTracer(ctx, cfg.Tracing)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer observability.Shutdown(context.Background(), tp)

	metrics, err := observability.InitMetrics(cfg.Metrics)
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	defer func() { _ = metrics.Shutdown(context.Background()) }()

	var validator *auth.JWTValidator
	if cfg.Auth.Enabled {
		validator, err = auth.NewJWTValidator(cfg.Auth)
		if err != nil {
			return fmt.Errorf("failed to initialize auth: %w", err)
		}
	}

	var provider llms.Provider
	if needsLLM(cfg) {
		p := llms.NewOpenAIProvider(cfg.LLM, metrics)
		defer func() { _ = p.Close() }()
		provider = p
	}

	registry := tools.NewRegistry(metrics)
	if err := registry.Register(tools.NewCalculatorTool()); err != nil {
		return err
	}

	tracer := tp.Tracer("crosstalk/server")

	servers := make([]*server.Server, 0, len(cfg.Agents))
	for name, agentCfg := range cfg.Agents {
		ag, store, err := buildAgent(name, agentCfg, provider, registry)
		if err != nil {
			return err
		}
		srv, err := server.New(server.Options{
			Agent:     ag,
			Store:     store,
			Host:      agentCfg.Host,
			Port:      agentCfg.Port,
			Tracer:    tracer,
			Metrics:   metrics,
			Validator: validator,
		})
		if err != nil {
			return fmt.Errorf("agent %q: %w", name, err)
		}
		servers = append(servers, srv)
		slog.Info("Hosting agent", "agent", name, "address", srv.BaseURL(), "static", agentCfg.Static)
	}

	if c.Watch && cli.Config != "" {
		stopWatch, err := config.Watch(cli.Config, func(next *config.Config) {
			slog.Info("Config file changed; restart to apply", "agents", len(next.Agents))
		})
		if err != nil {
			return fmt.Errorf("failed to watch config: %w", err)
		}
		defer func() { _ = stopWatch() }()
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		g.Go(func() error { return srv.Start(gctx) })
	}

	err = g.Wait()
	slog.Info("All agent servers stopped")
	return err
}

func needsLLM(cfg *config.Config) bool {
	for _, a := range cfg.Agents {
		if !a.Static {
			return true
		}
	}
	return false
}

func buildAgent(name string, cfg config.AgentConfig, provider llms.Provider, registry *tools.Registry) (agent.Agent, *session.Store, error) {
	store := session.NewStore()
	if cfg.Static {
		return agent.NewStaticAgent(name, cfg.Description, store, nil), store, nil
	}
	ag, err := agent.NewLLMAgent(agent.LLMAgentOptions{
		Name:        name,
		Description: cfg.Description,
		Instruction: cfg.Instruction,
		Provider:    provider,
		Registry:    registry,
		Store:       store,
	})
	if err != nil {
		return nil, nil, err
	}
	return ag, store, nil
}
