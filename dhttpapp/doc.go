// Package dhttpapp provides a batteries-included harness for serving
// [github.com/advdv/dhttp] collections as a standalone HTTP service.
//
// # Overview
//
// dhttpapp handles the boilerplate around a dispatcher: environment parsing,
// structured logging, OpenTelemetry tracing, Prometheus metrics, route
// loading with optional hot reload, and graceful shutdown. A complete
// application can be created in a single call:
//
//	dhttpapp.NewApp[Env](dhttp.MustCollections(
//	    dhttp.Collection{Name: "users", Handlers: map[string]dhttp.HandlerFunc{
//	        "get":  getUser,
//	        "list": listUsers,
//	    }},
//	)).Run()
//
// # Environment Configuration
//
// Define your environment by embedding [BaseEnvironment]:
//
//	type Env struct {
//	    dhttpapp.BaseEnvironment
//	    UpstreamURL string `env:"UPSTREAM_URL,required"`
//	}
//
// BaseEnvironment provides the following environment variables:
//
//	| Variable                | Required | Default  | Description                                    |
//	|-------------------------|----------|----------|------------------------------------------------|
//	| DHTTP_PORT              | Yes      | -        | Port the HTTP server listens on                |
//	| DHTTP_SERVICE_NAME      | Yes      | -        | Service name for logging and tracing           |
//	| DHTTP_HEALTH_CHECK_PATH | No       | /healthz | Health check endpoint path                     |
//	| DHTTP_METRICS_PATH      | No       | /metrics | Prometheus metrics endpoint path               |
//	| DHTTP_LOG_LEVEL         | No       | info     | Log level (debug, info, warn, error)           |
//	| DHTTP_OTEL_EXPORTER     | No       | stdout   | Trace exporter: "stdout" or "none"             |
//	| DHTTP_ROUTES_FILE       | No       | -        | YAML file with endpoint descriptors            |
//	| DHTTP_WATCH_ROUTES      | No       | false    | Reload the routes file when it changes         |
//	| DHTTP_STACK_TRACES      | No       | false    | Include stack traces in error envelopes        |
//	| DHTTP_REQUEST_TIMEOUT   | No       | 30s      | Per-request timeout (e.g. "30s", "2m")         |
//	| DHTTP_H2C               | No       | false    | Serve HTTP/2 cleartext behind a plain listener |
//
// # Routes
//
// The dispatcher needs endpoint descriptors binding paths to collection
// handlers. They usually come from the YAML file named by DHTTP_ROUTES_FILE:
//
//	endpoints:
//	  - collection: users
//	    handler: get
//	    method: GET
//	    path: /${API_PREFIX:-api}/users/:id
//
// Values may reference environment variables with ${VAR} or ${VAR:-default}.
// With DHTTP_WATCH_ROUTES=true the file is watched and reloaded atomically;
// a broken edit keeps the previous routes serving. Programs that build their
// descriptors in code pass [WithDescriptorSource] instead.
//
// # Dependency Injection
//
// Instead of ready-made collections, [NewApp] also accepts a constructor for
// them. Constructors participate in the fx graph via [WithFx] and can request
// anything the app provides: the typed environment, *zap.Logger, the
// instrumented *http.Client, the trace.TracerProvider.
//
//	dhttpapp.NewApp[Env](func(store *Store) *dhttp.Collections {
//	    return dhttp.MustCollections(store.Collection())
//	},
//	    dhttpapp.WithFx(fx.Provide(NewStore)),
//	)
//
// # Observability
//
// Every request is traced with otelhttp, counted in Prometheus metrics, and
// visible in the structured logs at debug level. The health check and metrics
// endpoints are excluded from tracing. Error envelopes written by the
// dispatcher are logged with the original error and counted by status and
// application code.
package dhttpapp
