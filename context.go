package dhttp

import (
	"context"
	"net/http"
)

// State carries request-scoped values shared between middleware, the matched
// handler, and every handler the request is forwarded to. It is owned by the
// single in-flight request and must not be retained past it.
type State map[string]any

// Context carries everything a handler needs for one invocation. The
// dispatcher creates a fresh Context per invocation, so forwarded handlers
// get their own collection and handler names while sharing the request, the
// response writer, the parameters, and the state.
type Context struct {
	// Request is the incoming HTTP request. Its context carries deadlines
	// and cancellation.
	Request *http.Request

	// Response is the buffered response writer. Handlers may write to it
	// directly, though returning a payload via [Ok] is the usual way.
	Response ResponseWriter

	// Collection and Handler name the handler being invoked.
	Collection string
	Handler    string

	// Params holds the decoded path parameters of the matched route.
	Params map[string]string

	// State is shared across middleware and forwarded invocations.
	State State

	// RequestID identifies the request in events and logs.
	RequestID string

	status int
}

// Context returns the request's context for cancellation and deadlines.
func (c *Context) Context() context.Context { return c.Request.Context() }

// SetStatus overrides the HTTP status the response is sent with. It affects
// payloads resolved with [Ok]; failed requests take their status from the
// error instead.
func (c *Context) SetStatus(status int) { c.status = status }

// Status returns the response status, defaulting to 200 OK.
func (c *Context) Status() int {
	if c.status == 0 {
		return http.StatusOK
	}

	return c.status
}

// ContextFactory creates the per-invocation [Context]. The dispatcher uses
// [NewContext] unless replaced with [WithContextFactory], which tests can use
// to observe or decorate handler contexts.
type ContextFactory func(
	r *http.Request,
	w ResponseWriter,
	route *CompiledRoute,
	params map[string]string,
	state State,
	requestID string,
) *Context

// NewContext is the default [ContextFactory].
func NewContext(
	r *http.Request,
	w ResponseWriter,
	route *CompiledRoute,
	params map[string]string,
	state State,
	requestID string,
) *Context {
	return &Context{
		Request:    r,
		Response:   w,
		Collection: route.Collection(),
		Handler:    route.Handler(),
		Params:     params,
		State:      state,
		RequestID:  requestID,
	}
}
