package dhttpapptest

import (
	"strconv"
	"testing"
	"time"
)

// Env provides a chainable builder for setting [dhttpapp.BaseEnvironment] env
// vars via t.Setenv. Create one with [SetBaseEnv].
type Env struct {
	t testing.TB
}

// SetBaseEnv sets all [dhttpapp.BaseEnvironment] env vars to sensible test
// defaults. Port is required because each test must use a unique port to
// avoid collisions.
//
// Defaults:
//   - DHTTP_SERVICE_NAME: "test"
//   - DHTTP_HEALTH_CHECK_PATH: "/healthz"
//   - DHTTP_METRICS_PATH: "/metrics"
//   - DHTTP_LOG_LEVEL: "error"
//   - DHTTP_OTEL_EXPORTER: "none"
//
// Use the returned [Env] to override individual values:
//
//	dhttpapptest.SetBaseEnv(t, 18085).RoutesFile(path).WatchRoutes(true)
func SetBaseEnv(t testing.TB, port int) *Env {
	t.Helper()
	t.Setenv("DHTTP_PORT", strconv.Itoa(port))
	t.Setenv("DHTTP_SERVICE_NAME", "test")
	t.Setenv("DHTTP_HEALTH_CHECK_PATH", "/healthz")
	t.Setenv("DHTTP_METRICS_PATH", "/metrics")
	t.Setenv("DHTTP_LOG_LEVEL", "error")
	t.Setenv("DHTTP_OTEL_EXPORTER", "none")
	return &Env{t: t}
}

// ServiceName overrides DHTTP_SERVICE_NAME.
func (e *Env) ServiceName(name string) *Env {
	e.t.Helper()
	e.t.Setenv("DHTTP_SERVICE_NAME", name)
	return e
}

// HealthCheckPath overrides DHTTP_HEALTH_CHECK_PATH.
func (e *Env) HealthCheckPath(path string) *Env {
	e.t.Helper()
	e.t.Setenv("DHTTP_HEALTH_CHECK_PATH", path)
	return e
}

// MetricsPath overrides DHTTP_METRICS_PATH.
func (e *Env) MetricsPath(path string) *Env {
	e.t.Helper()
	e.t.Setenv("DHTTP_METRICS_PATH", path)
	return e
}

// LogLevel overrides DHTTP_LOG_LEVEL.
func (e *Env) LogLevel(level string) *Env {
	e.t.Helper()
	e.t.Setenv("DHTTP_LOG_LEVEL", level)
	return e
}

// RoutesFile sets DHTTP_ROUTES_FILE.
func (e *Env) RoutesFile(path string) *Env {
	e.t.Helper()
	e.t.Setenv("DHTTP_ROUTES_FILE", path)
	return e
}

// WatchRoutes sets DHTTP_WATCH_ROUTES.
func (e *Env) WatchRoutes(watch bool) *Env {
	e.t.Helper()
	e.t.Setenv("DHTTP_WATCH_ROUTES", strconv.FormatBool(watch))
	return e
}

// StackTraces sets DHTTP_STACK_TRACES.
func (e *Env) StackTraces(include bool) *Env {
	e.t.Helper()
	e.t.Setenv("DHTTP_STACK_TRACES", strconv.FormatBool(include))
	return e
}

// RequestTimeout sets DHTTP_REQUEST_TIMEOUT.
func (e *Env) RequestTimeout(d time.Duration) *Env {
	e.t.Helper()
	e.t.Setenv("DHTTP_REQUEST_TIMEOUT", d.String())
	return e
}
