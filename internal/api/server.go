// Package api exposes the store over HTTP with gin.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/Makepad-fr/tada/internal/store"
)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithToken requires "Authorization: Bearer <token>" on every /v1 route.
func WithToken(token string) Option {
	return func(s *Server) { s.token = stripBearer(token) }
}

// Server wires the store into a gin engine.
type Server struct {
	store   *store.Store
	log     *log.Logger
	token   string
	metrics *metrics
	engine  *gin.Engine
}

func NewServer(s *store.Store, opts ...Option) *Server {
	srv := &Server{
		store: s,
		log:   log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(srv)
	}
	srv.metrics = newMetrics(s)
	srv.engine = srv.routes()
	return srv
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// Close detaches the server's store observers.
func (s *Server) Close() { s.metrics.close() }

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLog(), s.metrics.middleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(s.metrics.handler()))

	v1 := r.Group("/v1", s.requireToken())
	{
		v1.GET("/todos", s.listTodos)
		v1.POST("/todos", s.createTodo)
		v1.GET("/todos/watch", s.watchTodos)
		v1.GET("/todos/:id", s.getTodo)
		v1.PUT("/todos/:id", s.updateTodo)
		v1.POST("/todos/:id/toggle", s.toggleTodo)
		v1.DELETE("/todos/:id", s.deleteTodo)
		v1.POST("/validate/title", s.validateTitle)
	}
	return r
}

// Run serves on addr until ctx is canceled.
func (s *Server) Run(ctx context.Context, addr string) error {
	hs := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http api listening", "addr", addr)
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	s.log.Info("http api stopped")
	return nil
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"dur", time.Since(start),
		)
	}
}
