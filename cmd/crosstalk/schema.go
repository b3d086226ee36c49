package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/invopop/jsonschema"

	"github.com/agentwire/crosstalk/pkg/config"
)

// SchemaCmd generates JSON Schema from the config structs. Output goes to
// stdout so it can be redirected.
type SchemaCmd struct {
	Compact bool `help:"Compact JSON output (no indentation)."`
}

func (c *SchemaCmd) Run(cli *CLI) error {
	reflector := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		// Inline all definitions, no $ref
		DoNotReference: true,
	}

	schema := reflector.Reflect(&config.Config{})
	schema.ID = "https://github.com/agentwire/crosstalk/schemas/config.json"
	schema.Title = "Crosstalk Configuration Schema"
	schema.Description = "Configuration schema for crosstalk agent hosting and conversation relay"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	var (
		out []byte
		err error
	)
	if c.Compact {
		out, err = json.Marshal(schema)
	} else {
		out, err = json.MarshalIndent(schema, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal schema: %w", err)
	}

	fmt.Fprintln(os.Stdout, string(out))
	return nil
}
