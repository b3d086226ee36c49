package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/agentwire/crosstalk/pkg/config"
)

// ValidateCmd validates a configuration file without starting anything.
type ValidateCmd struct {
	Config string `arg:"" name:"config" help:"Configuration file path." placeholder:"PATH"`

	// PrintConfig prints the expanded configuration with defaults applied
	// and environment variables resolved.
	PrintConfig bool `short:"p" name:"print-config" help:"Print the expanded configuration."`
}

func (c *ValidateCmd) Run(cli *CLI) error {
	cfg, err := config.Load(c.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "✗ %s: %v\n", c.Config, err)
		return fmt.Errorf("configuration is invalid")
	}

	if c.PrintConfig {
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return fmt.Errorf("failed to render config: %w", err)
		}
		return enc.Close()
	}

	fmt.Printf("✓ %s is valid (%d agent(s) configured)\n", c.Config, len(cfg.Agents))
	return nil
}
