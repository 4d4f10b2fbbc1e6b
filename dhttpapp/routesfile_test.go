package dhttpapp_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/advdv/dhttp"
	"github.com/advdv/dhttp/dhttpapp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRoutesFile(t testing.TB, dir, content string) string {
	t.Helper()

	path := filepath.Join(dir, "routes.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestFileSourceDescriptors(t *testing.T) {
	path := writeRoutesFile(t, t.TempDir(), `
endpoints:
  - collection: users
    handler: get
    method: GET
    path: /users/:id
  - collection: users
    handler: list
    method: GET
    path: /users
`)

	src := dhttpapp.NewFileSource(path)
	assert.Equal(t, path, src.Path())

	descs, err := src.Descriptors(context.Background())
	require.NoError(t, err)

	require.Len(t, descs, 2)
	assert.Equal(t, dhttp.EndpointDescriptor{
		Collection: "users", Handler: "get", Method: "GET", Path: "/users/:id",
	}, descs[0])
	assert.Equal(t, "/users", descs[1].Path)
}

func TestFileSourceEnvSubstitution(t *testing.T) {
	t.Setenv("DHTTPTEST_ROUTES_PREFIX", "api")

	path := writeRoutesFile(t, t.TempDir(), `
endpoints:
  - collection: users
    handler: get
    method: GET
    path: /${DHTTPTEST_ROUTES_PREFIX}/${DHTTPTEST_ROUTES_VERSION:-v1}/users/:id
`)

	descs, err := dhttpapp.NewFileSource(path).Descriptors(context.Background())
	require.NoError(t, err)

	require.Len(t, descs, 1)
	assert.Equal(t, "/api/v1/users/:id", descs[0].Path, "set variables substitute, unset ones fall back to their default")
}

func TestFileSourceEscapedDollar(t *testing.T) {
	path := writeRoutesFile(t, t.TempDir(), `
endpoints:
  - collection: users
    handler: get
    method: GET
    path: /users/$$weird
`)

	descs, err := dhttpapp.NewFileSource(path).Descriptors(context.Background())
	require.NoError(t, err)

	require.Len(t, descs, 1)
	assert.Equal(t, "/users/$weird", descs[0].Path)
}

func TestFileSourceMissingFile(t *testing.T) {
	src := dhttpapp.NewFileSource(filepath.Join(t.TempDir(), "nope.yml"))

	_, err := src.Descriptors(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read routes file")
}

func TestFileSourceMalformedYAML(t *testing.T) {
	path := writeRoutesFile(t, t.TempDir(), "endpoints: [")

	_, err := dhttpapp.NewFileSource(path).Descriptors(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse routes file")
}

func TestFileSourceLoadsIntoDispatcher(t *testing.T) {
	path := writeRoutesFile(t, t.TempDir(), `
endpoints:
  - collection: echo
    handler: ping
    method: GET
    path: /ping
`)

	cols := dhttp.MustCollections(dhttp.Collection{
		Name: "echo",
		Handlers: map[string]dhttp.HandlerFunc{
			"ping": func(c *dhttp.Context) (dhttp.Result, error) {
				return dhttp.Ok("pong"), nil
			},
		},
	})

	disp := dhttp.NewDispatcher(cols)
	require.NoError(t, disp.Load(context.Background(), dhttpapp.NewFileSource(path)))
	assert.Equal(t, 1, disp.Len())
}
