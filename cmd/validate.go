package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/pagecraft/internal/codec"
	"github.com/conneroisu/pagecraft/internal/document"
	"github.com/conneroisu/pagecraft/internal/errors"
	"github.com/conneroisu/pagecraft/internal/logging"
	"github.com/conneroisu/pagecraft/internal/props"
	"github.com/conneroisu/pagecraft/internal/registry"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Check document files against the component registry",
	Long: `Load each document the way the editor would and report problems.

Structural errors (missing ROOT, cycles, malformed JSON) and props that
fail validation are errors. Nodes the loader heals, such as unknown
component types or orphans, are warnings unless --strict is set.

Examples:
  pagecraft validate page.json
  pagecraft validate --strict pages/*.json
  cat page.json | pagecraft validate -`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

var validateStrict bool

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().BoolVar(&validateStrict, "strict", false, "Treat warnings as errors")
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	reg := registry.Default()
	reg.Freeze()
	out := cmd.OutOrStdout()

	failed := 0
	for _, path := range args {
		data, err := readDocument(cmd.InOrStdin(), path)
		if err != nil {
			return err
		}

		tree, diagnostics, err := validateDocument(data, reg, logger)
		if err != nil {
			failed++
			fmt.Fprintf(out, "✗ %s: %v\n", path, err)
			continue
		}

		bad := false
		for i := range diagnostics {
			d := diagnostics[i]
			fmt.Fprintf(out, "  %s\n", d.Error())
			if d.Severity == errors.ErrorSeverityError || validateStrict {
				bad = true
			}
		}
		if bad {
			failed++
			fmt.Fprintf(out, "✗ %s: %d problem(s)\n", path, len(diagnostics))
			continue
		}
		fmt.Fprintf(out, "✓ %s (%d nodes)\n", path, tree.Len())
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d document(s) failed validation", failed, len(args))
	}
	return nil
}

// validateDocument decodes data and checks every node's props. Structural
// problems come back as the error; everything else as diagnostics.
func validateDocument(data []byte, reg *registry.Registry, logger logging.Logger) (*document.Tree, []errors.Diagnostic, error) {
	collector := errors.NewErrorCollector()
	c := codec.Codec{Registry: reg, Logger: logger, Diagnostics: collector}

	tree, err := c.Decode(data)
	if err != nil {
		return nil, nil, err
	}

	tree.Walk(func(n *document.Node, _ int) bool {
		if n.Type == props.TypeUnknown {
			return true
		}
		if _, err := reg.ResolveProps(n.Type, n.Props); err != nil {
			msg := err.Error()
			var ee *errors.EditorError
			if errors.As(err, &ee) {
				msg = ee.Message
			}
			collector.Add(errors.Diagnostic{
				NodeID:    n.ID,
				Component: n.Type,
				Message:   msg,
				Severity:  errors.ErrorSeverityError,
			})
		}
		return true
	})

	return tree, collector.GetDiagnostics(), nil
}
