package dhttpapp

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/advdv/dhttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// ServerConfig holds optional configuration for the HTTP server.
type ServerConfig struct {
	HealthHandler func(http.ResponseWriter, *http.Request)
}

// ServerParams holds the dependencies for creating an HTTP server.
type ServerParams struct {
	fx.In

	Env        Environment
	Dispatcher *dhttp.Dispatcher
	Metrics    *Metrics
	Logger     *zap.Logger
	TracerProv trace.TracerProvider
	Propagator propagation.TextMapPropagator
}

// NewServer creates an HTTP server with the dispatcher mounted at the root
// next to the health and metrics endpoints.
func NewServer(params ServerParams, cfg ServerConfig) *http.Server {
	// Register the health check endpoint at the path specified by
	// DHTTP_HEALTH_CHECK_PATH. The handler can be customized via
	// ServerConfig.HealthHandler; defaults to 200 OK.
	// Tracing is disabled for this path to avoid noisy probe traces.
	healthPath := params.Env.healthCheckPath()
	healthHandler := cfg.HealthHandler
	if healthHandler == nil {
		healthHandler = defaultHealthHandler
	}

	metricsPath := params.Env.metricsPath()

	mux := http.NewServeMux()
	mux.HandleFunc(healthPath, healthHandler)
	mux.Handle(metricsPath, params.Metrics.Handler())

	// Everything else goes through the dispatcher, which answers unknown
	// paths with its own not-implemented envelope.
	mux.Handle("/", params.Dispatcher)

	// Add tracing with explicit provider injection (no globals).
	handler := withTracing(
		params.TracerProv, params.Propagator, params.Env.serviceName(),
		healthPath, metricsPath,
	)(mux)

	// HTTP/2 cleartext for deployments behind a terminating proxy.
	if params.Env.h2cEnabled() {
		handler = h2c.NewHandler(handler, &http2.Server{})
	}

	readHeaderTimeout, readTimeout, writeTimeout, idleTimeout := serverTimeouts(params.Env.requestTimeout())

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", params.Env.port()),
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
}

// serverTimeouts returns http.Server timeout values derived from the
// per-request timeout. The dispatcher cancels request contexts itself; these
// are outer bounds that also cover header reads and idle keep-alives.
func serverTimeouts(requestTimeout time.Duration) (readHeaderTimeout, readTimeout, writeTimeout, idleTimeout time.Duration) {
	timeout := requestTimeout
	if timeout <= 0 {
		timeout = time.Minute
	}

	// The outer bound sits above the request timeout so the dispatcher can
	// still deliver an error envelope when a handler runs out of time.
	timeout += 5 * time.Second

	// ReadHeaderTimeout: how long to wait for request headers.
	readHeaderTimeout = min(timeout, 5*time.Second)

	// ReadTimeout: time from connection accept to request body fully read.
	readTimeout = timeout

	// WriteTimeout: time from request header read end to response write end.
	writeTimeout = timeout

	// IdleTimeout: how long to keep idle keep-alive connections.
	idleTimeout = timeout

	return
}

// startServerHook registers lifecycle hooks for the HTTP server.
func startServerHook(lc fx.Lifecycle, server *http.Server, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("starting server", zap.String("addr", server.Addr))
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("server error", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping server")
			return server.Shutdown(ctx)
		},
	})
}

func defaultHealthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
