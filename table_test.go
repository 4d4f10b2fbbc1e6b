package dhttp_test

import (
	"net/http"
	"testing"

	"github.com/advdv/dhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tableCollections(t *testing.T) *dhttp.Collections {
	t.Helper()

	cols, err := dhttp.NewCollections(
		dhttp.Collection{Name: "users", Handlers: map[string]dhttp.HandlerFunc{
			"get":  noopHandler,
			"list": noopHandler,
		}},
		dhttp.Collection{Name: "orders", Handlers: map[string]dhttp.HandlerFunc{
			"list": noopHandler,
		}},
	)
	require.NoError(t, err)

	return cols
}

func TestBuildRouteTable(t *testing.T) {
	cols := tableCollections(t)

	t.Run("should build and count routes", func(t *testing.T) {
		table, err := dhttp.BuildRouteTable([]dhttp.EndpointDescriptor{
			{Collection: "users", Handler: "get", Method: "GET", Path: "/users/:id"},
			{Collection: "users", Handler: "list", Method: "GET", Path: "/users"},
			{Collection: "orders", Handler: "list", Method: "GET", Path: "/orders"},
		}, cols)
		require.NoError(t, err)
		require.Equal(t, 3, table.Len())
	})

	t.Run("should reject unknown collections", func(t *testing.T) {
		_, err := dhttp.BuildRouteTable([]dhttp.EndpointDescriptor{
			{Collection: "nope", Handler: "get", Method: "GET", Path: "/"},
		}, cols)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `collection "nope" not found, got:`)
	})

	t.Run("should reject unknown handlers", func(t *testing.T) {
		_, err := dhttp.BuildRouteTable([]dhttp.EndpointDescriptor{
			{Collection: "users", Handler: "nope", Method: "GET", Path: "/"},
		}, cols)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `handler "nope" not found in collection "users", got:`)
	})

	t.Run("should reject missing methods", func(t *testing.T) {
		_, err := dhttp.BuildRouteTable([]dhttp.EndpointDescriptor{
			{Collection: "users", Handler: "get", Path: "/users/:id"},
		}, cols)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "has no method")
	})

	t.Run("should reject bad templates", func(t *testing.T) {
		_, err := dhttp.BuildRouteTable([]dhttp.EndpointDescriptor{
			{Collection: "users", Handler: "get", Method: "GET", Path: "users/:id"},
		}, cols)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "endpoint users.get")
	})

	t.Run("should reject duplicate endpoint pairs", func(t *testing.T) {
		_, err := dhttp.BuildRouteTable([]dhttp.EndpointDescriptor{
			{Collection: "users", Handler: "get", Method: "GET", Path: "/users/:id"},
			{Collection: "users", Handler: "get", Method: "POST", Path: "/users"},
		}, cols)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "endpoint users.get declared twice")
	})
}

func TestRouteTableLookup(t *testing.T) {
	cols := tableCollections(t)

	table, err := dhttp.BuildRouteTable([]dhttp.EndpointDescriptor{
		{Collection: "users", Handler: "list", Method: "GET", Path: "/users/special"},
		{Collection: "users", Handler: "get", Method: "GET", Path: "/users/:id"},
		{Collection: "orders", Handler: "list", Method: "POST", Path: "/orders"},
	}, cols)
	require.NoError(t, err)

	t.Run("should match in declaration order", func(t *testing.T) {
		route, params, err := table.Lookup("GET", "/users/special")
		require.NoError(t, err)
		require.NotNil(t, route)
		require.Equal(t, "list", route.Handler(), "earlier declaration should win")
		require.Empty(t, params)

		route, params, err = table.Lookup("GET", "/users/42")
		require.NoError(t, err)
		require.NotNil(t, route)
		require.Equal(t, "get", route.Handler())
		require.Equal(t, map[string]string{"id": "42"}, params)
	})

	t.Run("should be method scoped and case insensitive", func(t *testing.T) {
		route, _, err := table.Lookup("POST", "/users/42")
		require.NoError(t, err)
		require.Nil(t, route)

		route, _, err = table.Lookup("post", "/orders")
		require.NoError(t, err)
		require.NotNil(t, route)
		require.Equal(t, "orders", route.Collection())
	})

	t.Run("should ignore trailing slashes", func(t *testing.T) {
		route, params, err := table.Lookup("GET", "/users/42/")
		require.NoError(t, err)
		require.NotNil(t, route)
		require.Equal(t, map[string]string{"id": "42"}, params)
	})

	t.Run("should decode parameters", func(t *testing.T) {
		route, params, err := table.Lookup("GET", "/users/jo%20hn")
		require.NoError(t, err)
		require.NotNil(t, route)
		require.Equal(t, map[string]string{"id": "jo hn"}, params)
	})

	t.Run("should abort on undecodable parameters", func(t *testing.T) {
		_, _, err := table.Lookup("GET", "/users/%zz")
		require.Error(t, err)
		require.Equal(t, http.StatusBadRequest, dhttp.StatusOf(err))
		require.Equal(t, dhttp.CodeParameterDecodeFailed, dhttp.CodeOf(err))
	})

	t.Run("should miss unknown paths", func(t *testing.T) {
		route, _, err := table.Lookup("GET", "/nope")
		require.NoError(t, err)
		require.Nil(t, route)
	})
}

func TestRouteTableForwardTarget(t *testing.T) {
	cols := tableCollections(t)

	table, err := dhttp.BuildRouteTable([]dhttp.EndpointDescriptor{
		{Collection: "users", Handler: "get", Method: "GET", Path: "/users/:id"},
	}, cols)
	require.NoError(t, err)

	t.Run("should resolve registered pairs", func(t *testing.T) {
		route, err := table.ForwardTarget("users", "get")
		require.NoError(t, err)
		require.Equal(t, "users", route.Collection())
		require.Equal(t, "get", route.Handler())
	})

	t.Run("should fail on unknown collections", func(t *testing.T) {
		_, err := table.ForwardTarget("nope", "get")
		require.Error(t, err)
		require.Equal(t, http.StatusInternalServerError, dhttp.StatusOf(err))
		require.Equal(t, dhttp.CodeForwardCollectionNotFound, dhttp.CodeOf(err))
		assert.Contains(t, err.Error(), "Collection nope not found for forward")
	})

	t.Run("should fail on unknown handlers", func(t *testing.T) {
		_, err := table.ForwardTarget("users", "nope")
		require.Error(t, err)
		require.Equal(t, http.StatusInternalServerError, dhttp.StatusOf(err))
		require.Equal(t, dhttp.CodeForwardHandleNotFound, dhttp.CodeOf(err))
		assert.Contains(t, err.Error(), "Handle nope not found for forward")
	})
}

func TestRouteTableReverse(t *testing.T) {
	cols := tableCollections(t)

	table, err := dhttp.BuildRouteTable([]dhttp.EndpointDescriptor{
		{Collection: "users", Handler: "get", Method: "GET", Path: "/users/:id"},
		{Collection: "orders", Handler: "list", Method: "GET", Path: "/orders"},
	}, cols)
	require.NoError(t, err)

	t.Run("should build paths", func(t *testing.T) {
		loc, err := table.Reverse("users", "get", "jo hn")
		require.NoError(t, err)
		require.Equal(t, "/users/jo%20hn", loc)

		loc, err = table.Reverse("orders", "list")
		require.NoError(t, err)
		require.Equal(t, "/orders", loc)
	})

	t.Run("should fail on unknown names", func(t *testing.T) {
		_, err := table.Reverse("nope", "get")
		require.Error(t, err)
		assert.Contains(t, err.Error(), `no collection named: "nope", got:`)

		_, err = table.Reverse("users", "nope")
		require.Error(t, err)
		assert.Contains(t, err.Error(), `no handler named: "nope" in collection "users", got:`)
	})

	t.Run("should fail on wrong parameter counts", func(t *testing.T) {
		_, err := table.Reverse("users", "get")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to build")
	})
}
