package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/invopop/jsonschema"
	"github.com/marmos91/dittoweb/pkg/config"
)

func main() {
	schemaJSON, err := generateSchema()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling schema: %v\n", err)
		os.Exit(1)
	}

	outputFile := "config.schema.json"
	if len(os.Args) > 1 {
		outputFile = os.Args[1]
	}

	if err := os.WriteFile(outputFile, schemaJSON, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing schema file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("JSON schema written to %s\n", outputFile)
}

// generateSchema reflects config.Config using the same keys as the YAML file.
func generateSchema() ([]byte, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		// Route specs nest, so definitions must stay referenced.
		DoNotReference: false,
		FieldNameTag:   "yaml",
	}

	schema := reflector.Reflect(&config.Config{})

	schema.Title = "DittoWeb Configuration"
	schema.Description = "Configuration schema for the DittoWeb server"
	schema.Version = "1.0.0"

	return json.MarshalIndent(schema, "", "  ")
}
