// Package example implements an example API against the dispatcher from an
// outside package.
package example

import (
	"log/slog"
	"net/http"

	"github.com/advdv/dhttp"
)

// stateKey scopes the values this package stores in the request state.
const stateKey = "example.slog"

// Middleware provides an example for middleware that adds a request-scoped
// logger to the state.
func Middleware(logs *slog.Logger) dhttp.Middleware {
	return func(w dhttp.ResponseWriter, r *http.Request, state dhttp.State) error {
		state[stateKey] = logs.With(slog.String("method", r.Method))
		return nil
	}
}

// Log returns the logger [Middleware] stored in the request state.
func Log(state dhttp.State) *slog.Logger {
	v, _ := state[stateKey].(*slog.Logger)

	return v
}

// Collections declares the example API: a users collection and an orders
// collection that users.orders forwards to.
func Collections() *dhttp.Collections {
	return dhttp.MustCollections(
		dhttp.Collection{Name: "users", Handlers: map[string]dhttp.HandlerFunc{
			"get": func(c *dhttp.Context) (dhttp.Result, error) {
				if logs := Log(c.State); logs != nil {
					logs.Info("serving user", slog.String("id", c.Params["id"]))
				}

				return dhttp.Ok(map[string]string{"id": c.Params["id"]}), nil
			},
			"orders": func(c *dhttp.Context) (dhttp.Result, error) {
				return dhttp.Forward("orders", "forUser"), nil
			},
		}},
		dhttp.Collection{Name: "orders", Handlers: map[string]dhttp.HandlerFunc{
			"forUser": func(c *dhttp.Context) (dhttp.Result, error) {
				return dhttp.Ok([]map[string]string{
					{"order": "A-1", "user": c.Params["id"]},
					{"order": "A-2", "user": c.Params["id"]},
				}), nil
			},
		}},
	)
}

// Descriptors routes the example API.
func Descriptors() dhttp.StaticDescriptors {
	return dhttp.StaticDescriptors{
		{Collection: "users", Handler: "get", Method: "GET", Path: "/users/:id"},
		{Collection: "users", Handler: "orders", Method: "GET", Path: "/users/:id/orders"},
		{Collection: "orders", Handler: "forUser", Method: "GET", Path: "/orders/by-user/:id"},
	}
}
