package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/agentwire/crosstalk/pkg/a2a"
	"github.com/agentwire/crosstalk/pkg/config"
	"github.com/agentwire/crosstalk/pkg/observability"
	"github.com/agentwire/crosstalk/pkg/relay"
)

// RelayCmd drives a conversation between two already-running agent
// endpoints. Flags override the relay section of the config file.
type RelayCmd struct {
	TargetA string `help:"Base URL of the first endpoint." placeholder:"URL"`
	TargetB string `help:"Base URL of the second endpoint." placeholder:"URL"`
	Rounds  int    `help:"Number of rounds to run."`
	Message string `help:"Message that opens the conversation."`
	Delay   int    `help:"Pause between rounds in milliseconds." default:"-1"`
	Token   string `help:"Bearer token sent with every request." env:"CROSSTALK_RELAY_TOKEN"`
	Quiet   bool   `short:"q" help:"Suppress the per-turn transcript."`
}

func (c *RelayCmd) Run(cli *CLI) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cli.Config)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	rc := c.merge(cfg.Relay)
	if rc.TargetA == "" || rc.TargetB == "" {
		return fmt.Errorf("relay requires both --target-a and --target-b (or relay.target_a/target_b in the config)")
	}

	tp, err := observability.InitTracer(ctx, cfg.Tracing)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer observability.Shutdown(context.Background(), tp)

	clientCfg := &a2a.ClientConfig{}
	if rc.Timeout > 0 {
		clientCfg.Timeout = time.Duration(rc.Timeout) * time.Second
	}
	if rc.BearerToken != "" {
		clientCfg.Auth = &a2a.AuthCredentials{Type: "bearer", Token: rc.BearerToken}
	}

	driver, err := relay.New(relay.Options{
		EndpointA:      relay.Endpoint{Name: "agent-a", URL: rc.TargetA},
		EndpointB:      relay.Endpoint{Name: "agent-b", URL: rc.TargetB},
		Rounds:         rc.Rounds,
		InitialMessage: rc.InitialMessage,
		RoundDelay:     time.Duration(rc.RoundDelayMS) * time.Millisecond,
		Client:         a2a.NewClient(clientCfg),
	})
	if err != nil {
		return err
	}

	result, runErr := driver.Run(ctx)

	if !c.Quiet {
		for _, turn := range result.Turns {
			fmt.Printf("[round %d] -> %s: %s\n", turn.Round, turn.Endpoint, turn.Sent)
			fmt.Printf("[round %d] <- %s: %s\n", turn.Round, turn.Endpoint, turn.Received)
		}
	}
	fmt.Printf("Relay finished: state=%s rounds=%d/%d\n", result.State, result.RoundsComplete, rc.Rounds)

	if runErr != nil {
		return fmt.Errorf("relay aborted: %w", runErr)
	}
	return nil
}

// merge applies flag overrides on top of the configured relay settings.
func (c *RelayCmd) merge(rc config.RelayConfig) config.RelayConfig {
	if c.TargetA != "" {
		rc.TargetA = c.TargetA
	}
	if c.TargetB != "" {
		rc.TargetB = c.TargetB
	}
	if c.Rounds > 0 {
		rc.Rounds = c.Rounds
	}
	if c.Message != "" {
		rc.InitialMessage = c.Message
	}
	if c.Delay >= 0 {
		rc.RoundDelayMS = c.Delay
	}
	if c.Token != "" {
		rc.BearerToken = c.Token
	}
	return rc
}
