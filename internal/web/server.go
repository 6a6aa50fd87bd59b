// Package web exposes the query API over HTTP: aggregated per-phase series,
// a health probe, and Prometheus metrics.
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/gridpulse/dsmrflow/internal/models"
	middleware "github.com/gridpulse/dsmrflow/internal/web/middlewares"
)

// ServerConfig holds configuration options for the HTTP server
type ServerConfig struct {
	CacheSize      int     // Size of the LRU response cache
	RateLimit      float64 // Requests per second
	RateLimitBurst int     // Maximum burst size for rate limiting
}

// DefaultServerConfig returns a ServerConfig with sensible defaults
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		CacheSize:      1000,
		RateLimit:      5.0, // 5 requests per second
		RateLimitBurst: 10,  // Burst of 10 requests
	}
}

// SeriesRepository defines the query side of the storage the API needs.
type SeriesRepository interface {
	QuerySeries(
		ctx context.Context,
		quantity string,
		phase int,
		start, end time.Time,
		window, aggregation string,
	) ([]models.SeriesPoint, error)
}

// Server wraps http.Server with the configured middleware chain.
type Server struct {
	server *http.Server
	logger *logrus.Logger
}

// NewServer builds the server with all middleware wired in. Middleware
// runs in order: request id first, rate limiting early, then logging (with
// the request id available), metrics, and response caching last so errors
// are never cached.
func NewServer(addr string, repo SeriesRepository, logger *logrus.Logger, config ServerConfig) (*Server, error) {
	if err := middleware.InitializeCache(config.CacheSize); err != nil {
		return nil, err
	}
	limiter := rate.NewLimiter(rate.Limit(config.RateLimit), config.RateLimitBurst)

	h := &seriesHandler{repo: repo, validator: NewRequestValidator()}

	mux := http.NewServeMux()
	mux.Handle("/v1/series", methodHandler(http.MethodGet, h.handleSeries))
	mux.Handle("/healthz", methodHandler(http.MethodGet, handleHealthz))
	mux.Handle("/metrics", promhttp.Handler())

	handler := chainMiddleware(mux,
		middleware.RequestIDMiddleware,
		middleware.RateLimitMiddleware(limiter),
		middleware.LoggingMiddleware(logger),
		middleware.MetricsMiddleware,
		middleware.CachingMiddleware,
	)

	return &Server{
		server: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}, nil
}

// Handler returns the configured handler chain.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Run starts the HTTP server and shuts it down when ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.WithFields(logrus.Fields{"addr": s.server.Addr}).Info("Starting HTTP server")
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// chainMiddleware applies the middleware around the handler, first entry
// outermost.
func chainMiddleware(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

func methodHandler(expected string, handler http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != expected {
			w.Header().Set("Allow", expected)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		handler(w, r)
	})
}
