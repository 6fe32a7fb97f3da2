// Package server exposes one editor session over HTTP: a JSON API for
// the mutations a drag-and-drop UI performs, preview and export of the
// rendered page, saved layouts and a websocket change feed.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/cors"

	"github.com/conneroisu/pagecraft/internal/backend"
	"github.com/conneroisu/pagecraft/internal/config"
	"github.com/conneroisu/pagecraft/internal/editor"
	"github.com/conneroisu/pagecraft/internal/errors"
	"github.com/conneroisu/pagecraft/internal/layouts"
	"github.com/conneroisu/pagecraft/internal/logging"
	"github.com/conneroisu/pagecraft/internal/renderer"
)

// Options wires a Server. Engine is required.
type Options struct {
	Config   *config.Config
	Engine   *editor.Engine
	Layouts  layouts.Store
	Renderer *renderer.Renderer
	// Backend is optional; without it the save endpoint is unavailable.
	Backend backend.Client
	Logger  logging.Logger
}

// Server serves the editor API for a single session.
type Server struct {
	config   *config.Config
	session  *Session
	layouts  layouts.Store
	renderer *renderer.Renderer
	backend  backend.Client
	logger   logging.Logger
	errors   *errors.ErrorHandler
	hub      *hub

	httpServer   *http.Server
	serverMutex  sync.RWMutex
	cancel       context.CancelFunc
	shutdownOnce sync.Once
}

// New builds a Server and starts its change feed.
func New(opts Options) (*Server, error) {
	if opts.Engine == nil {
		return nil, errors.NewInternalError("server requires an editor engine", nil)
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = &config.Config{}
	}
	logger := logging.OrNop(opts.Logger).WithComponent("server")
	if opts.Layouts == nil {
		opts.Layouts = layouts.NewMemoryStore()
	}
	if opts.Renderer == nil {
		opts.Renderer = renderer.New(nil, opts.Logger)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		config:   cfg,
		session:  NewSession(opts.Engine, cfg.Editor.CheckpointDelay, opts.Logger),
		layouts:  opts.Layouts,
		renderer: opts.Renderer,
		backend:  opts.Backend,
		logger:   logger,
		errors:   errors.NewErrorHandler(logger),
		hub:      newHub(originPatterns(cfg.Server.AllowedOrigins), logger),
		cancel:   cancel,
	}
	go s.hub.run(ctx, opts.Engine)
	return s, nil
}

// Session returns the session the server edits.
func (s *Server) Session() *Session {
	return s.session
}

// Handler returns the routed handler with CORS and request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/document", s.handleGetDocument)
	mux.HandleFunc("PUT /api/document", s.handlePutDocument)

	mux.HandleFunc("POST /api/nodes", s.handleAddNode)
	mux.HandleFunc("DELETE /api/nodes", s.handleClearCanvas)
	mux.HandleFunc("GET /api/nodes/{id}", s.handleGetNode)
	mux.HandleFunc("DELETE /api/nodes/{id}", s.handleDeleteNode)
	mux.HandleFunc("PATCH /api/nodes/{id}/props", s.handleSetProps)
	mux.HandleFunc("POST /api/nodes/{id}/hidden", s.handleSetHidden)
	mux.HandleFunc("POST /api/nodes/{id}/move", s.handleMoveNode)
	mux.HandleFunc("POST /api/nodes/{id}/duplicate", s.handleDuplicateNode)

	mux.HandleFunc("GET /api/selection", s.handleGetSelection)
	mux.HandleFunc("POST /api/selection", s.handleSelect)
	mux.HandleFunc("POST /api/keys", s.handleKey)

	mux.HandleFunc("GET /api/mode", s.handleGetMode)
	mux.HandleFunc("POST /api/mode", s.handleSetMode)

	mux.HandleFunc("GET /api/history", s.handleHistoryStatus)
	mux.HandleFunc("POST /api/history/{action}", s.handleHistoryAction)

	mux.HandleFunc("GET /api/components", s.handleComponents)
	mux.HandleFunc("GET /api/components/{name}", s.handleComponent)

	mux.HandleFunc("GET /api/layouts", s.handleListLayouts)
	mux.HandleFunc("POST /api/layouts", s.handleSaveLayout)
	mux.HandleFunc("GET /api/layouts/{id}", s.handleGetLayout)
	mux.HandleFunc("DELETE /api/layouts/{id}", s.handleDeleteLayout)
	mux.HandleFunc("POST /api/layouts/{id}/load", s.handleLoadLayout)

	mux.HandleFunc("POST /api/pages/save", s.handleSavePage)

	mux.HandleFunc("GET /preview", s.handlePreview)
	mux.HandleFunc("GET /export", s.handleExport)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	mux.HandleFunc("GET /health", s.handleHealth)

	c := cors.New(cors.Options{
		AllowedOrigins:   s.config.Server.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})
	return c.Handler(s.logRequests(mux))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Unwrap lets http.ResponseController reach the hijacker the websocket
// upgrade needs.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug(r.Context(), "Request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}

// Start listens on the configured address until ctx is cancelled or
// Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr())
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled or Shutdown is called.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.serverMutex.Lock()
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	server := s.httpServer
	s.serverMutex.Unlock()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn(shutdownCtx, err, "Shutdown failed")
		}
	}()

	s.logger.Info(ctx, "Editor server listening", "addr", ln.Addr().String())
	if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown closes websocket clients, records pending edits and stops the
// HTTP server. It is safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.logger.Info(ctx, "Shutting down editor server")
		s.cancel()
		s.hub.closeAll()
		s.session.Close()

		s.serverMutex.RLock()
		server := s.httpServer
		s.serverMutex.RUnlock()

		if server != nil {
			shutdownErr = server.Shutdown(ctx)
		}
	})

	return shutdownErr
}

// originPatterns turns allowed origins into host patterns for the
// websocket origin check.
func originPatterns(origins []string) []string {
	patterns := make([]string, 0, len(origins))
	for _, o := range origins {
		if o == "*" {
			patterns = append(patterns, "*")
			continue
		}
		u, err := url.Parse(o)
		if err != nil || u.Host == "" {
			continue
		}
		patterns = append(patterns, u.Host)
	}
	return patterns
}
