package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/pagecraft/internal/backend"
	"github.com/conneroisu/pagecraft/internal/codec"
	"github.com/conneroisu/pagecraft/internal/config"
	"github.com/conneroisu/pagecraft/internal/document"
	"github.com/conneroisu/pagecraft/internal/editor"
	"github.com/conneroisu/pagecraft/internal/history"
	"github.com/conneroisu/pagecraft/internal/logging"
	"github.com/conneroisu/pagecraft/internal/registry"
	"github.com/conneroisu/pagecraft/internal/renderer"
	"github.com/conneroisu/pagecraft/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the editor API server",
	Long: `Start an HTTP server that holds one editing session and exposes it
to a drag-and-drop front end: node mutations, selection, undo and redo,
saved layouts, preview and export, and a websocket change feed.

Examples:
  pagecraft serve
  pagecraft serve --port 3000
  pagecraft serve --document page.json`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "localhost", "Host to bind to")
	serveCmd.Flags().StringP("document", "d", "", "Document to open at startup")

	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("editor.initial_document", serveCmd.Flags().Lookup("document"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	srv, cleanup, err := buildServer(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(cmd.OutOrStdout(), "Editor API on http://%s\n", cfg.Addr())
	return srv.Start(ctx)
}

// buildServer wires the engine, stores and backend client the config
// names. cleanup closes the layout store.
func buildServer(cfg *config.Config, logger logging.Logger) (*server.Server, func(), error) {
	reg := registry.Default()
	reg.Freeze()

	tree, err := initialTree(cfg, reg, logger)
	if err != nil {
		return nil, nil, err
	}

	engine, err := editor.New(tree, editor.Options{
		Registry: reg,
		History:  history.New(cfg.Editor.HistoryCapacity),
		Logger:   logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start editor: %w", err)
	}

	store, err := openLayouts(cfg)
	if err != nil {
		return nil, nil, err
	}

	var client backend.Client
	if cfg.Backend.BaseURL != "" {
		client = backend.NewHTTPClient(cfg.Backend.BaseURL, cfg.Backend.Token, cfg.Backend.Timeout, logger)
	}

	srv, err := server.New(server.Options{
		Config:   cfg,
		Engine:   engine,
		Layouts:  store,
		Renderer: renderer.New(nil, logger),
		Backend:  client,
		Logger:   logger,
	})
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return srv, func() { store.Close() }, nil
}

// initialTree loads editor.initial_document, or returns nil for an empty
// canvas.
func initialTree(cfg *config.Config, reg *registry.Registry, logger logging.Logger) (*document.Tree, error) {
	path := cfg.Editor.InitialDocument
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading initial document: %w", err)
	}
	c := codec.Codec{Registry: reg, Logger: logger}
	tree, err := c.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return tree, nil
}
