// Command genschema writes the JSON schema of config.toml, referenced by the
// #:schema comment that taskstodo init puts at the top of the file.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/invopop/jsonschema"

	"github.com/bolasblack/taskstodo/internal/config"
)

func main() {
	r := jsonschema.Reflector{
		// Property names follow the toml tags of config.toml
		FieldNameTag:               "toml",
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
	}

	schema := r.Reflect(&config.Config{})
	schema.Title = "taskstodo Configuration"
	schema.Description = "Configuration schema for taskstodo config.toml"
	schema.ID = ""

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if len(os.Args) > 1 {
		if err := os.WriteFile(os.Args[1], data, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
			os.Exit(1)
		}
	} else {
		fmt.Println(string(data))
	}
}
