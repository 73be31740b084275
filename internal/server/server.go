// Package server hosts the floor-plan engine over HTTP.
//
// Each stored session gets one Editor guarded by a mutex, so commands on a
// session apply strictly one at a time; concurrent clients serialize at the
// session boundary rather than corrupting engine state. Sessions live in a
// pluggable store and are loaded into memory on first touch.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/floorsmith/pkg/config"
	"github.com/matzehuels/floorsmith/pkg/editor"
	"github.com/matzehuels/floorsmith/pkg/store"
)

// Options configures the server.
type Options struct {
	Store  store.Store
	Config config.Config
	Logger *log.Logger
}

// Server routes HTTP traffic to per-session editors.
type Server struct {
	store  store.Store
	cfg    config.Config
	logger *log.Logger
	router chi.Router

	mu       sync.Mutex
	sessions map[string]*actor
}

// actor owns one session's editor; its mutex enforces the single-writer
// command discipline.
type actor struct {
	mu     sync.Mutex
	editor *editor.Editor
	name   string
}

// New builds a Server over the given store and configuration.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	s := &Server{
		store:    opts.Store,
		cfg:      opts.Config,
		logger:   logger,
		sessions: make(map[string]*actor),
	}
	s.router = s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api/sessions", func(r chi.Router) {
		r.Get("/", s.handleListSessions)
		r.Post("/", s.handleCreateSession)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)
			r.Post("/commands", s.handleCommand)
			r.Get("/plan", s.handleGetPlan)
			r.Get("/render", s.handleRender)
			r.Post("/save", s.handleSave)
		})
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// session returns the loaded actor for id, pulling it from the store on
// first access.
func (s *Server) session(ctx context.Context, id string) (*actor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a, ok := s.sessions[id]; ok {
		return a, nil
	}

	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	a := &actor{
		editor: editor.New(sess.Spaces, sess.Walls, s.editorOptions()),
		name:   sess.Name,
	}
	s.sessions[id] = a
	return a, nil
}

func (s *Server) editorOptions() editor.Options {
	return editor.Options{
		GridUnit:  s.cfg.Layout.GridUnit,
		Tolerance: s.cfg.Layout.Tolerance,
		Logger:    s.logger,
	}
}

// evict drops the in-memory actor for a deleted session.
func (s *Server) evict(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
		)
	})
}
