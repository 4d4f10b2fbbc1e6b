package dhttp_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"

	"github.com/advdv/dhttp"
)

func Example() {
	cols := dhttp.MustCollections(dhttp.Collection{
		Name: "users",
		Handlers: map[string]dhttp.HandlerFunc{
			"get": func(c *dhttp.Context) (dhttp.Result, error) {
				if c.Params["id"] == "99" {
					return dhttp.NotFound("no user with id 99", "userNotFound"), nil
				}

				return dhttp.Ok(map[string]string{"id": c.Params["id"]}), nil
			},
		},
	})

	disp := dhttp.NewDispatcher(cols)
	if err := disp.Load(context.Background(), dhttp.StaticDescriptors{
		{Collection: "users", Handler: "get", Method: "GET", Path: "/users/:id"},
	}); err != nil {
		panic(err)
	}

	rec := httptest.NewRecorder()
	disp.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/42", nil))
	fmt.Println(rec.Code, rec.Body.String())

	rec = httptest.NewRecorder()
	disp.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/99", nil))
	fmt.Println(rec.Code, rec.Body.String())
	// Output:
	// 200 {"id":"42"}
	// 404 {"error":{"code":"userNotFound","message":"no user with id 99","status":404}}
}

func ExampleForward() {
	cols := dhttp.MustCollections(
		dhttp.Collection{
			Name: "users",
			Handlers: map[string]dhttp.HandlerFunc{
				"orders": func(c *dhttp.Context) (dhttp.Result, error) {
					return dhttp.Forward("orders", "forUser"), nil
				},
			},
		},
		dhttp.Collection{
			Name: "orders",
			Handlers: map[string]dhttp.HandlerFunc{
				"forUser": func(c *dhttp.Context) (dhttp.Result, error) {
					return dhttp.Ok(fmt.Sprintf("orders of user %s", c.Params["id"])), nil
				},
			},
		},
	)

	disp := dhttp.NewDispatcher(cols)
	if err := disp.Load(context.Background(), dhttp.StaticDescriptors{
		{Collection: "users", Handler: "orders", Method: "GET", Path: "/users/:id/orders"},
		{Collection: "orders", Handler: "forUser", Method: "GET", Path: "/orders/by-user/:id"},
	}); err != nil {
		panic(err)
	}

	rec := httptest.NewRecorder()
	disp.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/42/orders", nil))
	fmt.Println(rec.Body.String())
	// Output:
	// "orders of user 42"
}

func ExampleDispatcher_Reverse() {
	cols := dhttp.MustCollections(dhttp.Collection{
		Name: "users",
		Handlers: map[string]dhttp.HandlerFunc{
			"get": func(c *dhttp.Context) (dhttp.Result, error) { return dhttp.Ok(nil), nil },
		},
	})

	disp := dhttp.NewDispatcher(cols)
	if err := disp.Load(context.Background(), dhttp.StaticDescriptors{
		{Collection: "users", Handler: "get", Method: "GET", Path: "/users/:id"},
	}); err != nil {
		panic(err)
	}

	loc, _ := disp.Reverse("users", "get", "jo hn")
	fmt.Println(loc)
	// Output:
	// /users/jo%20hn
}

func ExampleWithMiddleware() {
	cols := dhttp.MustCollections(dhttp.Collection{
		Name: "ping",
		Handlers: map[string]dhttp.HandlerFunc{
			"get": func(c *dhttp.Context) (dhttp.Result, error) {
				return dhttp.Ok(c.State["greeting"]), nil
			},
		},
	})

	disp := dhttp.NewDispatcher(cols, dhttp.WithMiddleware(
		func(w dhttp.ResponseWriter, r *http.Request, state dhttp.State) error {
			state["greeting"] = "hello"
			return nil
		},
	))

	if err := disp.Load(context.Background(), dhttp.StaticDescriptors{
		{Collection: "ping", Handler: "get", Method: "GET", Path: "/ping"},
	}); err != nil {
		panic(err)
	}

	rec := httptest.NewRecorder()
	disp.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	fmt.Println(rec.Body.String())
	// Output:
	// "hello"
}
