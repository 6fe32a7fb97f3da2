package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/conneroisu/pagecraft/internal/codec"
	"github.com/conneroisu/pagecraft/internal/config"
	"github.com/conneroisu/pagecraft/internal/layouts"
	"github.com/conneroisu/pagecraft/internal/registry"
)

var layoutsCmd = &cobra.Command{
	Use:     "layouts",
	Aliases: []string{"l"},
	Short:   "Manage saved layouts",
	Long: `Save, list, show and delete reusable layouts: headers, footers,
sections and whole pages. Layouts live in the database named by
storage.layouts_db.

Examples:
  pagecraft layouts list
  pagecraft layouts list --type header -o json
  pagecraft layouts save "Main header" header.json --type header
  pagecraft layouts show layout_1234 -o yaml
  pagecraft layouts delete layout_1234`,
}

var layoutsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved layouts",
	Args:  cobra.NoArgs,
	RunE:  runLayoutsList,
}

var layoutsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one saved layout with its document",
	Args:  cobra.ExactArgs(1),
	RunE:  runLayoutsShow,
}

var layoutsSaveCmd = &cobra.Command{
	Use:   "save <name> <file|->",
	Short: "Save a document as a layout",
	Args:  cobra.ExactArgs(2),
	RunE:  runLayoutsSave,
}

var layoutsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a saved layout",
	Args:  cobra.ExactArgs(1),
	RunE:  runLayoutsDelete,
}

var (
	layoutsListFormat string
	layoutsShowFormat string
	layoutsListType   string
	layoutsSaveType string
)

func init() {
	rootCmd.AddCommand(layoutsCmd)
	layoutsCmd.AddCommand(layoutsListCmd, layoutsShowCmd, layoutsSaveCmd, layoutsDeleteCmd)

	addOutputFlag(layoutsListCmd, &layoutsListFormat, "table")
	layoutsListCmd.Flags().StringVarP(&layoutsListType, "type", "t", "", "Only list layouts of this type (header, footer, page, section)")

	addOutputFlag(layoutsShowCmd, &layoutsShowFormat, "json")

	layoutsSaveCmd.Flags().StringVarP(&layoutsSaveType, "type", "t", string(layouts.KindPage), "Layout type (header, footer, page, section)")
}

// layoutSummary is the list view of a layout, without its document.
type layoutSummary struct {
	ID        string       `json:"id" yaml:"id"`
	Name      string       `json:"name" yaml:"name"`
	Type      layouts.Kind `json:"type" yaml:"type"`
	CreatedAt time.Time    `json:"createdAt" yaml:"created_at"`
	UpdatedAt time.Time    `json:"updatedAt" yaml:"updated_at"`
}

type layoutDetail struct {
	layoutSummary `yaml:",inline"`
	Document      any `json:"craftJson" yaml:"craft_json"`
}

func summarize(l layouts.Layout) layoutSummary {
	return layoutSummary{ID: l.ID, Name: l.Name, Type: l.Type, CreatedAt: l.CreatedAt, UpdatedAt: l.UpdatedAt}
}

// openLayouts opens the configured store. An empty path keeps layouts in
// memory for the life of the process.
func openLayouts(cfg *config.Config) (layouts.Store, error) {
	if cfg.Storage.LayoutsDB == "" {
		return layouts.NewMemoryStore(), nil
	}
	store, err := layouts.OpenSQLite(cfg.Storage.LayoutsDB)
	if err != nil {
		return nil, fmt.Errorf("failed to open layouts database: %w", err)
	}
	return store, nil
}

func withLayouts(fn func(store layouts.Store) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openLayouts(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func runLayoutsList(cmd *cobra.Command, args []string) error {
	var kind layouts.Kind
	if layoutsListType != "" {
		k, err := layouts.ParseKind(layoutsListType)
		if err != nil {
			return err
		}
		kind = k
	}

	return withLayouts(func(store layouts.Store) error {
		list, err := store.ListByType(cmd.Context(), kind)
		if err != nil {
			return err
		}
		summaries := make([]layoutSummary, 0, len(list))
		for _, l := range list {
			summaries = append(summaries, summarize(l))
		}

		return writeOutput(cmd.OutOrStdout(), layoutsListFormat, summaries, func(w io.Writer) error {
			if len(summaries) == 0 {
				_, err := fmt.Fprintln(w, "No layouts saved.")
				return err
			}
			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tTYPE\tUPDATED")
			for _, s := range summaries {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.ID, s.Name, s.Type, s.UpdatedAt.Local().Format(time.DateTime))
			}
			return tw.Flush()
		})
	})
}

func runLayoutsShow(cmd *cobra.Command, args []string) error {
	return withLayouts(func(store layouts.Store) error {
		l, err := store.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		detail := layoutDetail{layoutSummary: summarize(*l)}
		if err := json.Unmarshal(l.CraftJSON, &detail.Document); err != nil {
			return fmt.Errorf("layout %s holds invalid JSON: %w", l.ID, err)
		}

		return writeOutput(cmd.OutOrStdout(), layoutsShowFormat, detail, func(w io.Writer) error {
			fmt.Fprintf(w, "ID:      %s\nName:    %s\nType:    %s\nUpdated: %s\n\n",
				l.ID, l.Name, l.Type, l.UpdatedAt.Local().Format(time.DateTime))
			_, err := w.Write(append(l.CraftJSON, '\n'))
			return err
		})
	})
}

func runLayoutsSave(cmd *cobra.Command, args []string) error {
	name, path := args[0], args[1]
	kind, err := layouts.ParseKind(layoutsSaveType)
	if err != nil {
		return err
	}

	data, err := readDocument(cmd.InOrStdin(), path)
	if err != nil {
		return err
	}
	// Refuse documents the editor could not load.
	tree, err := codec.Deserialize(data, registry.Default())
	if err != nil {
		return fmt.Errorf("%s is not a loadable document: %w", path, err)
	}
	canonical, err := codec.Serialize(tree)
	if err != nil {
		return err
	}

	l, err := layouts.New(name, kind, canonical)
	if err != nil {
		return err
	}

	return withLayouts(func(store layouts.Store) error {
		if err := store.Save(cmd.Context(), l); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %s layout %q as %s\n", l.Type, l.Name, l.ID)
		return nil
	})
}

func runLayoutsDelete(cmd *cobra.Command, args []string) error {
	return withLayouts(func(store layouts.Store) error {
		if err := store.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted layout %s\n", args[0])
		return nil
	})
}
