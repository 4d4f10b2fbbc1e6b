package dhttp

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

// DefaultMaxForwardDepth bounds how many times a single request may be
// forwarded between handlers before it fails. Forward loops between handlers
// are cheap to write by accident; the bound turns them into an error response
// instead of a spinning goroutine.
const DefaultMaxForwardDepth = 16

// Dispatcher routes requests to collection handlers and owns the full
// request lifecycle: route lookup, middleware, handler invocation, result
// handling, payload formatting, and the error envelope. It implements
// http.Handler.
//
// The route table is swapped atomically by [Dispatcher.Load], so descriptors
// can be reloaded while requests are in flight: every request observes either
// the old table or the new one, never a mix.
type Dispatcher struct {
	cols       *Collections
	formatters FormatterProvider
	logs       Logger
	sink       EventSink
	newContext ContextFactory
	middleware []Middleware

	bufLimit     int
	maxDepth     int
	includeStack bool
	timeout      time.Duration
	newRequestID func() string

	table atomic.Pointer[RouteTable]
}

// DispatcherOption configures a [Dispatcher] at construction.
type DispatcherOption func(*Dispatcher)

// WithBufferLimit caps the number of response bytes buffered per request.
// Writes past the limit fail with [ErrBufferFull]. Negative means no limit,
// which is also the default.
func WithBufferLimit(limit int) DispatcherOption {
	return func(d *Dispatcher) { d.bufLimit = limit }
}

// WithLogger replaces the default standard library logger.
func WithLogger(logs Logger) DispatcherOption {
	return func(d *Dispatcher) { d.logs = logs }
}

// WithEventSink receives the dispatcher's lifecycle events. Defaults to a
// sink that discards them.
func WithEventSink(sink EventSink) DispatcherOption {
	return func(d *Dispatcher) { d.sink = sink }
}

// WithFormatters replaces how response payloads are negotiated and rendered.
// The default serves JSON only.
func WithFormatters(p FormatterProvider) DispatcherOption {
	return func(d *Dispatcher) { d.formatters = p }
}

// WithMiddleware appends middleware to run, in order, between route lookup
// and handler invocation.
func WithMiddleware(mws ...Middleware) DispatcherOption {
	return func(d *Dispatcher) { d.middleware = append(d.middleware, mws...) }
}

// WithMaxForwardDepth bounds forward hops per request. Depth must be at
// least 1.
func WithMaxForwardDepth(depth int) DispatcherOption {
	if depth < 1 {
		panic("dhttp: forward depth must be at least 1")
	}

	return func(d *Dispatcher) { d.maxDepth = depth }
}

// WithStackTraces includes stack traces in error envelopes. Enable this in
// development deployments only, stacks leak implementation detail.
func WithStackTraces(include bool) DispatcherOption {
	return func(d *Dispatcher) { d.includeStack = include }
}

// WithRequestTimeout bounds each request's context. Handlers observe the
// deadline through [Context.Context]. Zero disables the bound.
func WithRequestTimeout(timeout time.Duration) DispatcherOption {
	return func(d *Dispatcher) { d.timeout = timeout }
}

// WithContextFactory replaces how per-invocation handler contexts are
// created, for tests that want to observe or decorate them.
func WithContextFactory(f ContextFactory) DispatcherOption {
	return func(d *Dispatcher) { d.newContext = f }
}

// WithRequestIDFunc replaces how request ids are generated, for deterministic
// tests. The default generates UUIDs.
func WithRequestIDFunc(f func() string) DispatcherOption {
	return func(d *Dispatcher) { d.newRequestID = f }
}

// NewDispatcher creates a dispatcher for the given collections. The route
// table starts empty: call [Dispatcher.Load] with a descriptor source before
// serving, or every request resolves to the not-implemented error.
func NewDispatcher(cols *Collections, opts ...DispatcherOption) *Dispatcher {
	if cols == nil {
		panic("dhttp: dispatcher requires collections")
	}

	d := &Dispatcher{
		cols:         cols,
		formatters:   NewAcceptFormatters(JSONFormatter{}),
		logs:         NewStdLogger(log.Default()),
		sink:         NopSink(),
		newContext:   NewContext,
		bufLimit:     -1,
		maxDepth:     DefaultMaxForwardDepth,
		newRequestID: uuid.NewString,
	}

	for _, opt := range opts {
		opt(d)
	}

	d.table.Store(&RouteTable{
		byMethod:     make(map[string][]*CompiledRoute),
		byCollection: make(map[string]map[string]*CompiledRoute),
	})

	return d
}

// Load fetches descriptors from the source, compiles them against the
// dispatcher's collections, and swaps the route table in atomically. On any
// error the current table stays in place, so a bad reload never takes down
// routes that were serving fine.
func (d *Dispatcher) Load(ctx context.Context, src DescriptorSource) error {
	descs, err := src.Descriptors(ctx)
	if err != nil {
		return errors.Wrap(err, "fetch endpoint descriptors")
	}

	table, err := BuildRouteTable(descs, d.cols)
	if err != nil {
		return errors.Wrap(err, "build route table")
	}

	d.table.Store(table)

	return nil
}

// Len returns the number of routes currently loaded.
func (d *Dispatcher) Len() int { return d.table.Load().Len() }

// Reverse builds a concrete path for the endpoint registered under the
// collection and handler names.
func (d *Dispatcher) Reverse(collection, handler string, vals ...string) (string, error) {
	return d.table.Load().Reverse(collection, handler, vals...)
}

// ServeHTTP implements http.Handler. The response is buffered so that a
// failure at any point in the pipeline can replace everything written so far
// with the error envelope; the buffer is flushed implicitly when dispatch
// completes.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	bresp := NewResponseWriter(w, d.bufLimit)
	defer bresp.Free()

	if d.timeout > 0 {
		ctx, cancel := context.WithTimeout(r.Context(), d.timeout)
		defer cancel()

		r = r.WithContext(ctx)
	}

	requestID := r.Header.Get("X-Request-Id")
	if requestID == "" {
		requestID = d.newRequestID()
	}

	bresp.Header().Set("X-Request-Id", requestID)

	d.sink.Emit(EventIncomingMessage, IncomingMessagePayload{
		RequestID: requestID,
		Method:    r.Method,
		Path:      requestPath(r),
	})

	if err := d.serve(bresp, r, requestID); err != nil {
		d.fail(bresp, requestID, err)
	}

	if err := bresp.FlushBuffer(); err != nil {
		d.logs.LogImplicitFlushError(err)
	}
}

// serve runs the pipeline up to a rendered response: lookup, middleware,
// then dispatch into the matched handler. Any error it returns is turned
// into the error envelope by the caller.
func (d *Dispatcher) serve(w *ResponseBuffer, r *http.Request, requestID string) error {
	table := d.table.Load()
	path := requestPath(r)

	route, params, err := table.Lookup(r.Method, path)
	if err != nil {
		return err
	}

	if route == nil {
		return NotImplementedError(
			fmt.Sprintf("Resource or collection '%s' not implemented in API", path), "")
	}

	state := make(State)
	if err := runMiddleware(d.middleware, w, r, state); err != nil {
		return err
	}

	return d.dispatch(w, r, table, route, params, state, requestID, 0)
}

// dispatch invokes the route's handler and acts on its result. Forwarded
// requests re-enter here with the same writer, parameters, and state but a
// fresh handler context; depth counts the hops taken so far.
func (d *Dispatcher) dispatch(
	w *ResponseBuffer,
	r *http.Request,
	table *RouteTable,
	route *CompiledRoute,
	params map[string]string,
	state State,
	requestID string,
	depth int,
) error {
	c := d.newContext(r, w, route, params, state, requestID)

	res, err := route.fn(c)
	if err != nil {
		return err
	}

	switch res.kind {
	case resultNotFound:
		return NotFoundError(res.message, res.code)

	case resultForward:
		hop := depth + 1
		if hop > d.maxDepth {
			return InternalServerError(
				fmt.Sprintf("Forward depth exceeded (%d)", d.maxDepth),
				CodeForwardDepthExceeded)
		}

		target, err := table.ForwardTarget(res.collection, res.handler)
		if err != nil {
			return err
		}

		d.sink.Emit(EventForwarding, ForwardingPayload{
			RequestID:  requestID,
			Collection: res.collection,
			Handler:    res.handler,
			Depth:      hop,
		})

		return d.dispatch(w, r, table, target, params, state, requestID, hop)

	default:
		return d.respond(c, res.value)
	}
}

// respond negotiates a formatter and renders the payload into the buffered
// response. HEAD requests negotiate like any other but never get a body.
func (d *Dispatcher) respond(c *Context, v any) error {
	fmtr, ok := d.formatters.Negotiate(c.Request)
	if !ok {
		return InternalServerError("Not found formatter", "")
	}

	header := c.Response.Header()
	if header.Get("Content-Type") == "" {
		header.Set("Content-Type", fmtr.ContentType())
	}

	if c.Request.Method == http.MethodHead {
		c.Response.WriteHeader(c.Status())
		return nil
	}

	buf, err := fmtr.Format(c, v)
	if err != nil {
		return errors.Wrapf(err, "format response as %s", fmtr.ContentType())
	}

	if _, err := c.Response.Write(buf); err != nil {
		return errors.Wrap(err, "write formatted response")
	}

	if br, ok := c.Response.(*ResponseBuffer); ok && !br.Flushed() {
		header.Set("Content-Length", strconv.Itoa(br.Buffered()))
	}

	c.Response.WriteHeader(c.Status())

	return nil
}

// fail renders err as the JSON error envelope, replacing anything the
// pipeline buffered so far. When part of the response already reached the
// client the envelope is skipped: those bytes cannot be unsent.
func (d *Dispatcher) fail(w *ResponseBuffer, requestID string, err error) {
	d.logs.LogUnhandledServeError(err)

	norm := Normalize(err, d.includeStack)

	d.sink.Emit(EventError, ErrorPayload{
		RequestID: requestID,
		Status:    norm.Status,
		Message:   norm.Message,
		Code:      norm.Code,
		Err:       err,
	})

	if w.Flushed() {
		return
	}

	w.Reset()
	w.Header().Set("X-Request-Id", requestID)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(norm.Status)

	body, merr := json.Marshal(map[string]*NormalizedError{"error": norm})
	if merr == nil {
		_, merr = w.Write(body)
	}

	if merr != nil {
		// if all fails we don't want the client to end up with a white
		// screen so we render a 500 error with the standard text.
		w.Reset()
		http.Error(w.Unwrap(),
			http.StatusText(http.StatusInternalServerError),
			http.StatusInternalServerError)
	}
}

// requestPath returns the request path in its encoded form so path
// parameters decode exactly once, during binding.
func requestPath(r *http.Request) string {
	return r.URL.EscapedPath()
}
