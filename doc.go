// Package dhttp dispatches HTTP requests to named collection handlers with
// buffered responses, declarative routing, and structured error envelopes.
//
// # Overview
//
// dhttp separates what an API serves from where it is served. Handlers are
// grouped into named collections; endpoint descriptors bind (method, path
// template) pairs to handlers by name. The [Dispatcher] compiles descriptors
// into a route table, resolves every request against it, and owns the full
// request lifecycle: lookup, middleware, handler invocation, result handling,
// payload formatting, and error rendering.
//
// A minimal example:
//
//	cols := dhttp.MustCollections(dhttp.Collection{
//	    Name: "users",
//	    Handlers: map[string]dhttp.HandlerFunc{
//	        "get": func(c *dhttp.Context) (dhttp.Result, error) {
//	            user, err := db.GetUser(c.Context(), c.Params["id"])
//	            if err != nil {
//	                return dhttp.Result{}, err
//	            }
//	            return dhttp.Ok(user), nil
//	        },
//	    },
//	})
//
//	disp := dhttp.NewDispatcher(cols)
//	err := disp.Load(ctx, dhttp.StaticDescriptors{
//	    {Collection: "users", Handler: "get", Method: "GET", Path: "/users/:id"},
//	})
//	if err != nil {
//	    log.Fatal(err) // unknown handler names or bad templates fail here
//	}
//
//	http.ListenAndServe(":8080", disp)
//
// # Handlers and Results
//
// Handlers receive a per-invocation [*Context] carrying the request, the
// buffered response writer, the decoded path parameters, and the shared
// request state. They return a [Result] value telling the dispatcher how to
// proceed:
//
//   - [Ok] resolves the request with a payload; a negotiated formatter
//     renders it into the response body.
//   - [NotFound] fails the request with HTTP 404, for lookups that matched a
//     route but found no entity behind it.
//   - [Forward] hands the request to another collection handler, which runs
//     with the same request, response writer, parameters, and state.
//
// Returning an error instead fails the request through the error envelope.
// Handlers never write status codes or envelopes by hand.
//
// # Routing
//
// Path templates use colon parameters: the template /users/:id/posts/:post
// matches paths with exactly those segments and binds id and post to the
// percent-decoded segment values. Trailing slashes are ignored on both sides
// of a match.
//
// Routes are matched per method in declaration order, first match wins.
// Descriptors referencing unknown collections or handlers, or carrying
// unparseable templates, fail [Dispatcher.Load] before anything is served.
// The table swap is atomic: reloading descriptors never exposes a partially
// built table to in-flight requests, and a failed reload keeps the previous
// table serving.
//
// # Buffered Responses
//
// The [ResponseWriter] given to handlers buffers all writes until the
// dispatcher is done with the request. This is what makes the error envelope reliable:
// whatever a handler wrote before failing is discarded, and the envelope is
// the complete response. Handlers that must stream can flush explicitly via
// http.NewResponseController, which sends the buffer to the client and gives
// up the ability to be replaced by an envelope.
//
// # Error Envelope
//
// Failed requests are answered with a JSON envelope under the "error" key:
//
//	{"error": {"status": 404, "message": "no such user", "code": "userNotFound"}}
//
// Create structured failures with [NewError] or the status helpers:
//
//	return dhttp.Result{}, dhttp.BadRequestError("invalid cursor", "badCursor")
//
// Any other error becomes a 500 envelope carrying the error's message, so no
// failure is ever dropped. [WithStackTraces] adds the %+v rendering of the
// error, including the stack captured at construction, for development
// deployments. Requests for paths no route matches are answered with a 501
// envelope, distinguishing "this API does not serve that" from a handler's
// 404.
//
// # Middleware
//
// Middleware runs serially between route lookup and handler invocation, in
// registration order, sharing the request [State] with the handler chain:
//
//	disp := dhttp.NewDispatcher(cols, dhttp.WithMiddleware(
//	    func(w dhttp.ResponseWriter, r *http.Request, state dhttp.State) error {
//	        user, err := authenticate(r)
//	        if err != nil {
//	            return dhttp.NewError(http.StatusUnauthorized, "authentication required", "")
//	        }
//	        state["user"] = user
//	        return nil
//	    },
//	))
//
// A middleware error aborts the request into the error envelope; the handler
// never runs.
//
// # Content Negotiation
//
// Payloads from [Ok] results are rendered by the formatter negotiated from
// the request's Accept header. The default setup serves JSON; register more
// with [WithFormatters]:
//
//	dhttp.WithFormatters(dhttp.NewAcceptFormatters(
//	    dhttp.JSONFormatter{}, dhttp.MsgpackFormatter{}, dhttp.TextFormatter{},
//	))
//
// Requests without an Accept preference get the first registered formatter.
// HEAD requests negotiate like any other but are always answered without a
// body.
//
// # Events
//
// The dispatcher emits lifecycle events ([EventIncomingMessage],
// [EventForwarding], [EventError]) to the [EventSink] given with
// [WithEventSink]. Sinks back metrics and logging without the dispatcher
// depending on either.
//
// # URL Reversing
//
// [Dispatcher.Reverse] builds concrete paths from the loaded route table by
// collection and handler name:
//
//	url, err := disp.Reverse("users", "get", "123") // "/users/123"
//
// Reversing goes through the same compiled patterns as matching, so a path
// that reverses is a path that routes.
//
// # Serving
//
// [Dispatcher] implements http.Handler and composes with any server or mux.
// The dhttpapp subpackage provides a production harness: environment-driven
// configuration, zap logging, OpenTelemetry tracing, Prometheus metrics, a
// YAML descriptor file source with hot reload, and an fx application wiring
// it all together.
package dhttp
