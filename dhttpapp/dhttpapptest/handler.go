package dhttpapptest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/advdv/dhttp"
)

// Serve dispatches a single request through a dispatcher built from the
// given collections and descriptors, returning the recorded response. It
// handles the boilerplate of constructing and loading a dispatcher for
// handler-level tests that don't need the full app.
func Serve(
	t testing.TB,
	cols *dhttp.Collections,
	descs []dhttp.EndpointDescriptor,
	req *http.Request,
	opts ...dhttp.DispatcherOption,
) *httptest.ResponseRecorder {
	t.Helper()

	disp := dhttp.NewDispatcher(cols, opts...)
	if err := disp.Load(context.Background(), dhttp.StaticDescriptors(descs)); err != nil {
		t.Fatalf("load endpoint descriptors: %v", err)
	}

	rec := httptest.NewRecorder()
	disp.ServeHTTP(rec, req)

	return rec
}
