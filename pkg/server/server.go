// Package server exposes identicon rendering and in-memory placement
// canvases over HTTP.
//
// # Routes
//
//	GET    /healthz
//	GET    /identicons/{content}                       digest, color and pattern
//	GET    /identicons/{content}/svg?size=&scale=
//	GET    /identicons/{content}/{format}?size=&width=&height=
//	POST   /canvases                                   create a canvas
//	GET    /canvases/{id}                              snapshot of every item
//	GET    /canvases/{id}/svg                          composite SVG
//	POST   /canvases/{id}/items                        craft {content}
//	POST   /canvases/{id}/items/{item}/commit          {drop_x, drop_y, dx, dy}
//	POST   /canvases/{id}/items/{item}/relocate        {x, y}
//	DELETE /canvases/{id}/items/{item}
//
// Canvases live in process memory and are lost on restart. Rendered
// artifacts go through the pipeline runner and its cache.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/etulastrada/ideconfy/pkg/config"
	"github.com/etulastrada/ideconfy/pkg/observability"
	"github.com/etulastrada/ideconfy/pkg/pipeline"
)

// Server is the ideconfy HTTP API.
type Server struct {
	cfg      *config.Config
	runner   *pipeline.Runner
	canvases *Store
	logger   *log.Logger
	router   chi.Router
}

// New creates a server. A nil cfg uses config.Default; a nil runner renders
// without a cache.
func New(cfg *config.Config, runner *pipeline.Runner, logger *log.Logger) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = log.Default()
	}
	if runner == nil {
		runner = pipeline.NewRunner(nil, nil, logger)
	}
	s := &Server{
		cfg:      cfg,
		runner:   runner,
		canvases: NewStore(cfg.Canvas, cfg.Server.MaxCanvases, logger),
		logger:   logger,
	}
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Canvases returns the canvas store.
func (s *Server) Canvases() *Store {
	return s.canvases
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/identicons/{content}", func(r chi.Router) {
		r.Get("/", s.handleIdenticon)
		r.Get("/{format}", s.handleIdenticonArtifact)
	})

	r.Route("/canvases", func(r chi.Router) {
		r.Post("/", s.handleCreateCanvas)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetCanvas)
			r.Get("/svg", s.handleCanvasSVG)
			r.Post("/items", s.handleCraft)
			r.Post("/items/{item}/commit", s.handleCommit)
			r.Post("/items/{item}/relocate", s.handleRelocate)
			r.Delete("/items/{item}", s.handleRemove)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Code: "NOT_FOUND", Message: "route not found"})
	})
	return r
}

// ListenAndServe serves on the configured address until ctx is canceled,
// then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Server.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is canceled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	read, write, shutdown := s.cfg.Server.Timeouts()
	srv := &http.Server{
		Handler:           s.router,
		ReadTimeout:       read,
		ReadHeaderTimeout: read,
		WriteTimeout:      write,
		IdleTimeout:       2 * write,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", ln.Addr().String())
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down", "timeout", shutdown)
	sctx, cancel := context.WithTimeout(context.Background(), shutdown)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// requestLogger logs each request and reports it to the HTTP hooks.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		hooks := observability.HTTP()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		hooks.OnResponse(r.Context(), r.Method, route, status, elapsed)

		s.logger.Debug("request",
			"method", r.Method,
			"route", route,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", elapsed,
			"request_id", middleware.GetReqID(r.Context()))
	})
}
