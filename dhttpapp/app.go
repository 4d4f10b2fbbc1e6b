package dhttpapp

import (
	"context"
	"net/http"

	"github.com/advdv/dhttp"
	"github.com/cockroachdb/errors"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// App wraps an fx.App for lifecycle management.
type App struct {
	app *fx.App
}

// AppConfig holds configuration for the app.
type AppConfig struct {
	ServerConfig
	Source            dhttp.DescriptorSource
	DispatcherOptions []dhttp.DispatcherOption
	FxOptions         []fx.Option
}

// Option configures the App.
type Option func(*AppConfig)

// WithFx adds fx options for dependency injection.
func WithFx(fxOpts ...fx.Option) Option {
	return func(c *AppConfig) {
		c.FxOptions = append(c.FxOptions, fxOpts...)
	}
}

// WithHealthHandler sets a custom health check handler.
// If not set, a default handler returning 200 OK is used.
func WithHealthHandler(h func(http.ResponseWriter, *http.Request)) Option {
	return func(c *AppConfig) {
		c.HealthHandler = h
	}
}

// WithDescriptorSource sets the endpoint descriptor source directly, instead
// of reading the file named by DHTTP_ROUTES_FILE.
func WithDescriptorSource(src dhttp.DescriptorSource) Option {
	return func(c *AppConfig) {
		c.Source = src
	}
}

// WithDispatcherOptions appends dispatcher options after the ones derived
// from the environment, so they take precedence.
func WithDispatcherOptions(opts ...dhttp.DispatcherOption) Option {
	return func(c *AppConfig) {
		c.DispatcherOptions = append(c.DispatcherOptions, opts...)
	}
}

// dispatcherParams holds dependencies for the dispatcher.
type dispatcherParams struct {
	fx.In

	Env     Environment
	Logger  *zap.Logger
	Metrics *Metrics
	Cols    *dhttp.Collections
}

// routesParams holds dependencies for loading and watching routes.
type routesParams struct {
	fx.In

	Env        Environment
	Dispatcher *dhttp.Dispatcher
	Source     dhttp.DescriptorSource
	Logger     *zap.Logger
}

// FxOptions returns the full dependency graph of an app serving the given
// collections. Use [NewApp] unless you are embedding the graph elsewhere,
// like dhttpapptest does.
func FxOptions[E Environment](collections any, opts ...Option) []fx.Option {
	var cfg AppConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	baseOpts := make([]fx.Option, 0, 16+len(cfg.FxOptions))
	baseOpts = append(baseOpts, []fx.Option{
		fx.NopLogger,
		fx.Provide(ParseEnv[E]()),
		fx.Provide(func(e E) Environment { return e }),
		fx.Provide(func(e E) (*zap.Logger, error) { return NewLogger(e) }),
		fx.Provide(NewTracerProvider),
		fx.Provide(NewPropagator),
		fx.Provide(NewMetrics),
		fx.Provide(NewHTTPTransport),
		fx.Provide(NewHTTPClient),
		collectionsOption(collections),
		fx.Provide(func(env Environment) (dhttp.DescriptorSource, error) {
			if cfg.Source != nil {
				return cfg.Source, nil
			}
			if path := env.routesFile(); path != "" {
				return NewFileSource(path), nil
			}
			return nil, errors.New("no endpoint descriptors: set DHTTP_ROUTES_FILE or pass WithDescriptorSource")
		}),
		fx.Provide(func(p dispatcherParams) *dhttp.Dispatcher {
			dopts := []dhttp.DispatcherOption{
				dhttp.WithLogger(newZapDispatchLogger(p.Logger)),
				dhttp.WithEventSink(dhttp.MultiSink(newLoggingSink(p.Logger), p.Metrics.Sink())),
				dhttp.WithStackTraces(p.Env.includeStackTraces()),
				dhttp.WithRequestTimeout(p.Env.requestTimeout()),
			}
			dopts = append(dopts, cfg.DispatcherOptions...)
			return dhttp.NewDispatcher(p.Cols, dopts...)
		}),
		fx.Supply(cfg.ServerConfig),
		fx.Provide(NewServer),
		fx.Invoke(loadRoutesHook),
		fx.Invoke(startServerHook),
	}...)

	baseOpts = append(baseOpts, cfg.FxOptions...)
	return baseOpts
}

// NewApp creates a batteries-included app serving the given collections.
//
// The collections argument is either a ready *[dhttp.Collections] or a
// constructor returning one; constructors can request any type the fx graph
// provides. Routes come from the YAML file named by DHTTP_ROUTES_FILE, or
// from a source passed with [WithDescriptorSource]. Example:
//
//	dhttpapp.NewApp[Env](dhttp.MustCollections(
//	    dhttp.Collection{Name: "users", Handlers: map[string]dhttp.HandlerFunc{
//	        "get": getUser,
//	    }},
//	)).Run()
func NewApp[E Environment](collections any, opts ...Option) *App {
	return &App{app: fx.New(FxOptions[E](collections, opts...)...)}
}

// collectionsOption turns the collections argument of [NewApp] into its fx
// option: ready-made collections are supplied as a value, anything else is
// treated as a constructor for them.
func collectionsOption(collections any) fx.Option {
	if cols, ok := collections.(*dhttp.Collections); ok {
		return fx.Supply(cols)
	}

	return fx.Provide(collections)
}

// loadRoutesHook loads the endpoint descriptors on startup and, when
// DHTTP_WATCH_ROUTES is set and the source is a file, reloads them on change.
func loadRoutesHook(lc fx.Lifecycle, p routesParams) error {
	reload := func(ctx context.Context) error {
		return p.Dispatcher.Load(ctx, p.Source)
	}

	fileSrc, isFile := p.Source.(*FileSource)
	if !p.Env.watchRoutes() || !isFile {
		if p.Env.watchRoutes() && !isFile {
			p.Logger.Warn("route watching requires a file source, watching disabled")
		}
		lc.Append(fx.Hook{OnStart: reload})
		return nil
	}

	watcher, err := NewRouteWatcher(fileSrc.Path(), reload, p.Logger)
	if err != nil {
		return err
	}

	lc.Append(fx.Hook{
		OnStart: watcher.Start,
		OnStop:  func(context.Context) error { return watcher.Stop() },
	})

	return nil
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() {
	a.app.Run()
}

// Start starts the application and blocks until the given context is
// canceled, then stops it gracefully within the fx stop timeout.
func (a *App) Start(ctx context.Context) error {
	if err := a.app.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), a.app.StopTimeout())
	defer cancel()

	return a.app.Stop(stopCtx)
}
