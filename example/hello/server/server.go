// Command server serves the hello schema over HTTP.
//
// The listening port comes from PORT (default 4000). The remaining settings
// are read from GATEWAY_* variables, and tracing is configured from the
// standard JAEGER_* variables when GATEWAY_TRACING is set.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	opentracing "github.com/opentracing/opentracing-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/viper"
	jaegercfg "github.com/uber/jaeger-client-go/config"
	jaegerzap "github.com/uber/jaeger-client-go/log/zap"
	jaegerprom "github.com/uber/jaeger-lib/metrics/prometheus"
	"go.uber.org/zap"

	graphql "github.com/graph-gophers/graphql-gateway"
	"github.com/graph-gophers/graphql-gateway/config"
	"github.com/graph-gophers/graphql-gateway/errors"
	"github.com/graph-gophers/graphql-gateway/example/hello"
	"github.com/graph-gophers/graphql-gateway/log"
	"github.com/graph-gophers/graphql-gateway/server"
	gatewaytrace "github.com/graph-gophers/graphql-gateway/trace/opentracing"
)

const serviceName = "graphql-gateway"

func main() {
	cfg, err := config.Load(viper.New())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	var logger *zap.Logger
	if cfg.Development {
		logger = log.NewDevelopment()
	} else if logger, err = log.New(cfg.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "invalid log level %q: %v\n", cfg.LogLevel, err)
		os.Exit(1)
	}
	zap.ReplaceGlobals(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server failed", zap.Error(err), zap.Stringer("kind", errors.KindOf(err)))
		logger.Sync()
		os.Exit(1)
	}
	logger.Sync()
}

func run(cfg *config.Config, logger *zap.Logger) error {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	opts := []graphql.EngineOpt{
		graphql.MaxParallelism(cfg.MaxParallelism),
		graphql.Logger(&log.ZapLogger{L: logger}),
		graphql.UseMiddleware(server.LogOperations(logger)),
	}
	if cfg.Tracing {
		closer, err := initTracing(logger, registry)
		if err != nil {
			return errors.Startup("init tracing", err)
		}
		defer closer.Close()
		opts = append(opts, graphql.Tracer(gatewaytrace.Tracer{}))
	}

	engine, err := graphql.NewEngine(hello.Registry(), opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gw := server.New(cfg, engine, server.WithLogger(logger), server.WithRegistry(registry))
	h, err := gw.Start(ctx)
	if err != nil {
		return err
	}

	select {
	case <-h.Done():
		return h.Err()
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return h.Shutdown(shutdownCtx)
}

// initTracing installs a Jaeger tracer as the global OpenTracing tracer.
func initTracing(logger *zap.Logger, registry prometheus.Registerer) (io.Closer, error) {
	jcfg, err := jaegercfg.FromEnv()
	if err != nil {
		return nil, err
	}
	if jcfg.ServiceName == "" {
		jcfg.ServiceName = serviceName
	}
	tracer, closer, err := jcfg.NewTracer(
		jaegercfg.Logger(jaegerzap.NewLogger(logger)),
		jaegercfg.Metrics(jaegerprom.New(jaegerprom.WithRegisterer(registry))),
	)
	if err != nil {
		return nil, err
	}
	opentracing.SetGlobalTracer(tracer)
	logger.Info("tracing enabled", zap.String("service", jcfg.ServiceName))
	return closer, nil
}
