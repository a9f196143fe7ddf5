// Package server serves the GraphQL schemas over HTTP.
//
// Requests to the library endpoint run one at a time: the store has no
// locking of its own.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/graphql-go/graphql"
	"github.com/graphql-go/handler"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const RequestIDHeader = "X-Request-Id"

type Options struct {
	Library  graphql.Schema
	Hello    graphql.Schema
	GraphiQL bool
	Logger   *slog.Logger
	// Registry receives the server's metrics and is served on /metrics.
	// Nil means a fresh registry.
	Registry *prometheus.Registry
}

type Server struct {
	mux     *http.ServeMux
	logger  *slog.Logger
	metrics *metrics
	serial  sync.Mutex
}

func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}

	s := &Server{
		mux:     http.NewServeMux(),
		logger:  opts.Logger,
		metrics: newMetrics(opts.Registry),
	}

	s.mux.Handle("/graphql", s.serialized(s.graphql("graphql", opts.Library, opts.GraphiQL)))
	s.mux.Handle("/hello", s.graphql("hello", opts.Hello, opts.GraphiQL))
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{}))
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok\n")) //nolint:errcheck
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.withRequestID(s.mux).ServeHTTP(w, r)
}

func (s *Server) graphql(endpoint string, schema graphql.Schema, graphiql bool) http.Handler {
	h := handler.New(&handler.Config{
		Schema:   &schema,
		Pretty:   true,
		GraphiQL: graphiql,
		ResultCallbackFn: func(ctx context.Context, _ *graphql.Params, result *graphql.Result, _ []byte) {
			s.metrics.operations.WithLabelValues(endpoint).Inc()
			if len(result.Errors) == 0 {
				return
			}
			s.metrics.errors.WithLabelValues(endpoint).Add(float64(len(result.Errors)))
			for _, e := range result.Errors {
				s.logger.InfoContext(ctx, "graphql error",
					"request_id", RequestID(ctx),
					"endpoint", endpoint,
					"error", e.Message,
					"path", e.Path,
				)
			}
		},
	})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		h.ContextHandler(r.Context(), w, r)
		s.metrics.duration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	})
}

func (s *Server) serialized(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.serial.Lock()
		defer s.serial.Unlock()
		next.ServeHTTP(w, r)
	})
}

// =================
// Request ids and access log
// =================

type requestIDKey struct{}

// RequestID returns the id assigned to the request carrying ctx, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))

		s.logger.DebugContext(r.Context(), "request",
			"request_id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
