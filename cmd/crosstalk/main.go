// Command crosstalk hosts A2A agent endpoints and drives multi-round
// conversations between them.
//
// Usage:
//
//	crosstalk serve --config config.yaml
//	crosstalk relay --config config.yaml --rounds 5
//	crosstalk validate config.yaml
package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/alecthomas/kong"

	"github.com/agentwire/crosstalk/pkg/logger"
)

// CLI defines the command-line interface.
type CLI struct {
	Version  VersionCmd  `cmd:"" help:"Show version information."`
	Serve    ServeCmd    `cmd:"" help:"Host the configured agent endpoints."`
	Relay    RelayCmd    `cmd:"" help:"Run a relayed conversation between two endpoints."`
	Validate ValidateCmd `cmd:"" help:"Validate a configuration file."`
	Schema   SchemaCmd   `cmd:"" help:"Generate JSON Schema for the configuration."`

	Config    string `short:"c" help:"Path to config file." type:"path"`
	LogLevel  string `help:"Log level (debug, info, warn, error)." default:"info"`
	LogFormat string `help:"Log format (text or json)." default:"text"`
	LogFile   string `help:"Log file path (empty = stderr)."`
}

// VersionCmd shows version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	version := "dev"
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			version = info.Main.Version
		}
	}
	fmt.Printf("crosstalk version %s\n", version)
	return nil
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("crosstalk"),
		kong.Description("A2A conversation relay between hosted agents"),
		kong.UsageOnError(),
	)

	_, closeLog, err := logger.Setup(logger.Options{
		Level:  cli.LogLevel,
		Format: cli.LogFormat,
		File:   cli.LogFile,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = closeLog() }()

	err = ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}
