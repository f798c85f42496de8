// Package server exposes the engine over HTTP with gin.
//
// Routes:
//
//	GET  /healthz
//	GET  /v1/metadata
//	GET  /v1/state
//	POST /v1/instantiate        {"constructor"?, "caller"?}
//	POST /v1/query/:message     {"args"?, "caller"?}
//	POST /v1/tx/:message        {"args"?, "caller"?}
//	POST /v1/call               {"data", "tx"?, "caller"?}
//
// Failures answer {"error": {"code", "message"}}.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/roach88/advcases/internal/abi"
	"github.com/roach88/advcases/internal/engine"
	"github.com/roach88/advcases/internal/metadata"
)

// Server routes HTTP requests to an engine.
type Server struct {
	engine   *engine.Engine
	metadata *metadata.Metadata
	caller   abi.AccountID
	router   *gin.Engine
}

// New builds the router. caller is used when a request names none.
func New(eng *engine.Engine, md *metadata.Metadata, caller abi.AccountID) *Server {
	s := &Server{
		engine:   eng,
		metadata: md,
		caller:   caller,
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/healthz", s.health)
	v1 := r.Group("/v1")
	v1.GET("/metadata", s.getMetadata)
	v1.GET("/state", s.getState)
	v1.POST("/instantiate", s.instantiate)
	v1.POST("/query/:message", s.query)
	v1.POST("/tx/:message", s.transact)
	v1.POST("/call", s.callData)

	r.NoRoute(func(c *gin.Context) {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "route not found")
	})

	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down,
// giving in-flight requests five seconds to finish.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	slog.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
