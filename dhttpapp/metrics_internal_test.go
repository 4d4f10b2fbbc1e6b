package dhttpapp

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/advdv/dhttp"
	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsSinkCounts(t *testing.T) {
	m := NewMetrics()
	sink := m.Sink()

	sink.Emit(dhttp.EventIncomingMessage, dhttp.IncomingMessagePayload{RequestID: "r1", Method: "GET", Path: "/users/1"})
	sink.Emit(dhttp.EventIncomingMessage, dhttp.IncomingMessagePayload{RequestID: "r2", Method: "GET", Path: "/users/2"})
	sink.Emit(dhttp.EventIncomingMessage, dhttp.IncomingMessagePayload{RequestID: "r3", Method: "POST", Path: "/users"})
	sink.Emit(dhttp.EventForwarding, dhttp.ForwardingPayload{RequestID: "r1", Collection: "orders", Handler: "forUser", Depth: 1})
	sink.Emit(dhttp.EventError, dhttp.ErrorPayload{
		RequestID: "r3", Status: 404, Message: "no such user", Code: "userNotFound",
		Err: errors.New("no such user"),
	})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("GET")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("POST")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.forwards))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errors.WithLabelValues("404", "userNotFound")))
}

func TestMetricsSinkIgnoresUnknownPayloads(t *testing.T) {
	m := NewMetrics()
	m.Sink().Emit(dhttp.Event("custom"), struct{}{})

	assert.Zero(t, testutil.ToFloat64(m.forwards))
}

func TestMetricsHandlerServesExposition(t *testing.T) {
	m := NewMetrics()
	m.Sink().Emit(dhttp.EventIncomingMessage, dhttp.IncomingMessagePayload{RequestID: "r1", Method: "GET", Path: "/"})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "dhttp_dispatcher_requests_total")
}
