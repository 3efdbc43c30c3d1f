// Package cmd provides the jcbot CLI commands.
package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Output format values accepted by the --output flag.
const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

// renderOutput writes v to w in the requested structured format. The text
// format is handled by each command itself.
func renderOutput(w io.Writer, format string, v interface{}) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(v)
	default:
		return fmt.Errorf("unknown output format %q (want json or yaml)", format)
	}
}

// maskToken hides all but the last four characters of a secret.
func maskToken(token string) string {
	if token == "" {
		return "(not set)"
	}
	if len(token) <= 4 {
		return "****"
	}
	return "****" + token[len(token)-4:]
}
