package dhttp

import "net/http"

// Middleware for cross-cutting concerns. Middleware runs after route lookup
// and before handler invocation, strictly in registration order: each
// middleware completes before the next starts. It shares the request [State]
// with the handler and any forwarded invocations. Returning an error aborts
// the request into the error envelope; that is the only way middleware can
// terminate dispatch.
type Middleware func(w ResponseWriter, r *http.Request, state State) error

// runMiddleware runs the chain serially. The first error aborts it. A nil or
// empty chain is a no-op.
func runMiddleware(mws []Middleware, w ResponseWriter, r *http.Request, state State) error {
	for _, mw := range mws {
		if err := mw(w, r, state); err != nil {
			return err
		}
	}

	return nil
}
