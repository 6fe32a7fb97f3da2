package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var outputFormats = []string{"table", "json", "yaml"}

// addOutputFlag registers -o/--output on cmd.
func addOutputFlag(cmd *cobra.Command, target *string, def string) {
	cmd.Flags().StringVarP(target, "output", "o", def, "Output format ("+strings.Join(outputFormats, "|")+")")
}

// ValidateFormatWithSuggestion rejects unknown formats, naming the
// closest supported one when the mistake looks like a typo.
func ValidateFormatWithSuggestion(format string, valid []string) error {
	format = strings.ToLower(format)
	for _, v := range valid {
		if format == v {
			return nil
		}
	}
	for _, v := range valid {
		if format != "" && (strings.HasPrefix(v, format) || strings.HasPrefix(format, v)) {
			return fmt.Errorf("invalid format %q, did you mean %q? (supported: %s)", format, v, strings.Join(valid, ", "))
		}
	}
	return fmt.Errorf("invalid format %q (supported: %s)", format, strings.Join(valid, ", "))
}

// writeOutput encodes v as json or yaml, or calls table for table output.
func writeOutput(w io.Writer, format string, v any, table func(io.Writer) error) error {
	if err := ValidateFormatWithSuggestion(format, outputFormats); err != nil {
		return err
	}
	switch strings.ToLower(format) {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(v)
	case "yaml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		defer encoder.Close()
		return encoder.Encode(v)
	default:
		return table(w)
	}
}
