package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/conneroisu/pagecraft/internal/config"
	"github.com/conneroisu/pagecraft/internal/logging"
	"github.com/conneroisu/pagecraft/internal/renderer"
	"github.com/conneroisu/pagecraft/internal/watcher"
)

var renderCmd = &cobra.Command{
	Use:   "render <file|->",
	Short: "Render a document to standalone HTML",
	Long: `Render a stored document to HTML with no editor runtime.

The page title and language default to the export section of the
configuration. With --watch the document is re-rendered every time the
file is saved; --watch needs a file argument and --out.

Examples:
  pagecraft render page.json
  pagecraft render page.json --out page.html --title "Landing"
  pagecraft render page.json --fragment
  pagecraft render page.json --out page.html --watch`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

var (
	renderOut      string
	renderTitle    string
	renderLang     string
	renderFragment bool
	renderLint     bool
	renderWatch    bool
)

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringVar(&renderOut, "out", "", "Write HTML to this file instead of stdout")
	renderCmd.Flags().StringVar(&renderTitle, "title", "", "Page title (default from export.title)")
	renderCmd.Flags().StringVar(&renderLang, "lang", "", "Page language (default from export.lang)")
	renderCmd.Flags().BoolVar(&renderFragment, "fragment", false, "Render only the node tree, without the page wrapper")
	renderCmd.Flags().BoolVar(&renderLint, "lint", false, "Fail if the rendered markup has unbalanced tags")
	renderCmd.Flags().BoolVarP(&renderWatch, "watch", "w", false, "Re-render when the file changes")
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	path := args[0]

	if renderWatch && (path == "-" || renderOut == "") {
		return fmt.Errorf("--watch needs a document file and --out")
	}

	r := renderer.New(nil, logger)
	opts := renderOptions(cfg)

	once := func() error {
		data, err := readDocument(cmd.InOrStdin(), path)
		if err != nil {
			return err
		}
		html, err := renderHTML(cmd.Context(), r, data, opts)
		if err != nil {
			return err
		}
		if renderOut == "" {
			_, err := fmt.Fprint(cmd.OutOrStdout(), html)
			return err
		}
		if err := os.WriteFile(renderOut, []byte(html), 0o644); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
		return nil
	}

	if err := once(); err != nil {
		return err
	}
	if renderOut != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", renderOut)
	}
	if !renderWatch {
		return nil
	}

	return watchAndRender(cmd, path, logger, once)
}

func renderOptions(cfg *config.Config) renderer.Options {
	opts := renderer.Options{Title: cfg.Export.Title, Lang: cfg.Export.Lang}
	if renderTitle != "" {
		opts.Title = renderTitle
	}
	if renderLang != "" {
		opts.Lang = renderLang
	}
	return opts
}

func renderHTML(ctx context.Context, r *renderer.Renderer, data []byte, opts renderer.Options) (string, error) {
	var (
		html string
		err  error
	)
	if renderFragment {
		html, err = r.RenderFragment(ctx, data)
	} else {
		html, err = r.RenderDocument(ctx, data, opts)
	}
	if err != nil {
		return "", err
	}

	if renderLint {
		if err := renderer.Lint(strings.NewReader(html)); err != nil {
			return "", fmt.Errorf("rendered markup is malformed: %w", err)
		}
	}
	return html, nil
}

func watchAndRender(cmd *cobra.Command, path string, logger logging.Logger, render func() error) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fw, err := watcher.NewFileWatcher(200*time.Millisecond, logger)
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fw.Stop()

	abs, err := fw.WatchFile(path)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	fw.AddHandler(func(events []watcher.ChangeEvent) error {
		for _, e := range events {
			if e.Type == watcher.EventTypeDeleted {
				return nil
			}
		}
		if err := render(); err != nil {
			logger.Error(ctx, err, "Render failed", "file", abs)
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Re-rendered %s\n", renderOut)
		return nil
	})

	if err := fw.Start(ctx); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Watching %s (Ctrl+C to stop)\n", abs)

	<-ctx.Done()
	return nil
}
