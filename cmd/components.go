package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/conneroisu/pagecraft/internal/registry"
)

var componentsCmd = &cobra.Command{
	Use:     "components",
	Aliases: []string{"c"},
	Short:   "List the component palette",
	Long: `List the components the editor can place, with their category and
whether they accept children.

Examples:
  pagecraft components             # Table
  pagecraft components -o json     # Full descriptors with defaults and rules
  pagecraft components --all       # Include components hidden from the palette`,
	Args: cobra.NoArgs,
	RunE: runComponents,
}

var (
	componentsFormat string
	componentsAll    bool
)

func init() {
	rootCmd.AddCommand(componentsCmd)
	addOutputFlag(componentsCmd, &componentsFormat, "table")
	componentsCmd.Flags().BoolVar(&componentsAll, "all", false, "Include hidden components")
}

func runComponents(cmd *cobra.Command, args []string) error {
	reg := registry.Default()

	var list []*registry.Descriptor
	if componentsAll {
		for _, name := range reg.Names() {
			d, err := reg.Resolve(name)
			if err != nil {
				return err
			}
			list = append(list, d)
		}
	} else {
		list = reg.Palette()
	}

	return writeOutput(cmd.OutOrStdout(), componentsFormat, list, func(w io.Writer) error {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tDISPLAY NAME\tCATEGORY\tCANVAS")
		for _, d := range list {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%t\n", d.Name, d.DisplayName, d.Category, d.IsCanvas)
		}
		return tw.Flush()
	})
}
