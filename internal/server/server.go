// Package server exposes the to-do list over HTTP for htmx clients.
//
// Every handler reads or mutates the store, renders the affected fragment
// and, when other regions of the page are now stale, sets
//
//	HX-Trigger: modifiedPosts
//
// The #todos region listens for that event and refetches /todos.
//
// Middleware, outermost first: request id, tracing (otelgin), access log
// with metrics, panic recovery.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/roach88/todox/internal/metrics"
	"github.com/roach88/todox/internal/todo"
)

// Change notification contract shared with the page markup.
const (
	TriggerHeader = "HX-Trigger"
	ChangeEvent   = "modifiedPosts"
)

// DefaultShutdownGrace bounds how long Serve waits for in-flight requests.
const DefaultShutdownGrace = 5 * time.Second

// Options configures a Server. The zero value is usable.
type Options struct {
	// StaticDir is served for paths no route matches. Empty disables it.
	StaticDir string

	// Logger receives access and error logs. Defaults to slog.Default().
	Logger *slog.Logger

	// Metrics is exposed on /metrics and fed by the access middleware.
	// Nil disables both.
	Metrics *metrics.Metrics

	// ServiceName names the tracing middleware. Defaults to "todox".
	ServiceName string
}

// Server is the HTTP front end over a todo.Store.
type Server struct {
	store   todo.Store
	log     *slog.Logger
	metrics *metrics.Metrics
	engine  *gin.Engine
}

// New builds the gin engine with all routes registered.
//
// The caller owns st and closes it after the server stops.
func New(st todo.Store, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	name := opts.ServiceName
	if name == "" {
		name = "todox"
	}

	s := &Server{
		store:   st,
		log:     logger,
		metrics: opts.Metrics,
		engine:  gin.New(),
	}

	s.engine.Use(
		requestID(),
		otelgin.Middleware(name),
		accessLog(s.log, s.metrics),
		gin.Recovery(),
	)
	s.setupRoutes(opts.StaticDir)
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe listens on addr and serves until ctx is cancelled, then
// shuts down gracefully within grace.
func (s *Server) ListenAndServe(ctx context.Context, addr string, grace time.Duration) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln, grace)
}

// Serve accepts connections on ln until ctx is cancelled.
// A clean shutdown returns nil.
func (s *Server) Serve(ctx context.Context, ln net.Listener, grace time.Duration) error {
	if grace <= 0 {
		grace = DefaultShutdownGrace
	}

	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down", "grace", grace)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.log.Info("server stopped")
	return nil
}
