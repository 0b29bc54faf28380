// Package server binds the GraphQL engine to a TCP listener.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/ksuid"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	graphql "github.com/graph-gophers/graphql-gateway"
	"github.com/graph-gophers/graphql-gateway/config"
	"github.com/graph-gophers/graphql-gateway/errors"
	"github.com/graph-gophers/graphql-gateway/log"
	"github.com/graph-gophers/graphql-gateway/playground"
	"github.com/graph-gophers/graphql-gateway/relay"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-Id"

// Gateway routes HTTP requests on the configured path into an engine.
// Everything else is answered with 404.
type Gateway struct {
	cfg      *config.Config
	engine   *graphql.Engine
	logger   *zap.Logger
	registry *prometheus.Registry
	metrics  *metrics
	inFlight atomic.Int64
	handler  http.Handler
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger sets the logger for access and lifecycle logs. The default
// discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(g *Gateway) {
		g.logger = l
	}
}

// WithRegistry sets the registry the gateway metrics are registered with and
// served from. Each gateway gets a fresh registry by default.
func WithRegistry(r *prometheus.Registry) Option {
	return func(g *Gateway) {
		g.registry = r
	}
}

// New builds a gateway serving engine. A nil cfg means config.Default().
func New(cfg *config.Config, engine *graphql.Engine, opts ...Option) *Gateway {
	if cfg == nil {
		cfg = config.Default()
	}
	g := &Gateway{
		cfg:    cfg,
		engine: engine,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.registry == nil {
		g.registry = prometheus.NewRegistry()
	}
	g.metrics = newMetrics(g.registry, func() float64 {
		return float64(g.inFlight.Load())
	})

	g.handler = g.withRequestID(g.accessLog(g.metrics.instrument(g.recoverer(g.router()))))
	return g
}

func (g *Gateway) router() *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = http.NotFoundHandler()
	r.MethodNotAllowedHandler = http.NotFoundHandler()

	gql := &relay.Handler{Engine: g.engine}
	r.Handle(g.cfg.Path, gql).Methods(http.MethodPost)
	r.Handle(g.cfg.Path, gql).Methods(http.MethodGet).Queries("query", "{query}")
	if g.cfg.Playground {
		r.Handle(g.cfg.Path, playground.Handler(g.cfg.Path)).Methods(http.MethodGet)
	}
	return r
}

// ServeHTTP makes the gateway usable without a listener.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.handler.ServeHTTP(w, r)
}

// MetricsHandler serves the gateway metrics in the Prometheus text format.
func (g *Gateway) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(g.registry, promhttp.HandlerOpts{})
}

// InFlight returns the number of requests being served.
func (g *Gateway) InFlight() int64 {
	return g.inFlight.Load()
}

// Start binds the listener and begins serving in the background. It returns
// once the socket is bound, so the gateway is ready when Start returns. A
// bind failure is reported as an *errors.StartupError and nothing is served.
func (g *Gateway) Start(ctx context.Context) (*ListenHandle, error) {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", g.cfg.Addr())
	if err != nil {
		return nil, errors.Startup("listen on "+g.cfg.Addr(), err)
	}

	h := &ListenHandle{
		srv:    &http.Server{Handler: g.handler, ReadHeaderTimeout: 10 * time.Second},
		addr:   ln.Addr(),
		path:   g.cfg.Path,
		logger: g.logger,
		done:   make(chan struct{}),
	}

	var metricsLn net.Listener
	if g.cfg.MetricsPort != 0 {
		addr := fmt.Sprintf(":%d", g.cfg.MetricsPort)
		metricsLn, err = lc.Listen(ctx, "tcp", addr)
		if err != nil {
			ln.Close()
			return nil, errors.Startup("listen on "+addr, err)
		}
		mr := mux.NewRouter()
		mr.Handle("/metrics", g.MetricsHandler()).Methods(http.MethodGet)
		h.metricsSrv = &http.Server{Handler: mr, ReadHeaderTimeout: 10 * time.Second}
	}

	go h.serve(ln)
	if metricsLn != nil {
		go func() {
			if err := h.metricsSrv.Serve(metricsLn); err != nil && err != http.ErrServerClosed {
				g.logger.Error("metrics listener stopped", zap.Error(err))
			}
		}()
		g.logger.Info("metrics available", zap.String("addr", metricsLn.Addr().String()))
	}

	g.logger.Info("server ready at "+h.URL(), zap.String("url", h.URL()))
	return h, nil
}

func (g *Gateway) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := ksuid.Parse(id); err != nil {
			id = ksuid.New().String()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(log.WithRequestID(r.Context(), id)))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

func (g *Gateway) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		g.inFlight.Inc()
		defer g.inFlight.Dec()

		start := time.Now()
		sw := &statusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r)
		g.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", sw.status),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", log.RequestID(r.Context())),
		)
	})
}

// recoverer keeps a panicking handler from taking the connection down with
// it. Resolver panics never get here; the engine recovers those per field.
func (g *Gateway) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				(&log.ZapLogger{L: g.logger}).LogPanic(r.Context(), rec)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// LogOperations logs a summary of every executed operation at debug level.
func LogOperations(logger *zap.Logger) graphql.Middleware {
	return func(next graphql.Exec) graphql.Exec {
		return func(ctx context.Context, req *graphql.Request) *graphql.Response {
			resp := next(ctx, req)
			if ce := logger.Check(zap.DebugLevel, "operation"); ce != nil {
				ops, err := graphql.Summarize(req.Query)
				fields := []zap.Field{
					zap.String("request_id", log.RequestID(ctx)),
					zap.String("operation_name", req.OperationName),
					zap.Int("errors", len(resp.Errors)),
				}
				if err != nil {
					fields = append(fields, zap.Error(err))
				} else {
					fields = append(fields, zap.Any("operations", ops))
				}
				ce.Write(fields...)
			}
			return resp
		}
	}
}
