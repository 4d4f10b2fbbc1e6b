package dhttpapp

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap/zapcore"
)

// Environment defines the interface that all environment configurations must
// implement. Embed BaseEnvironment in your struct to satisfy this interface.
type Environment interface {
	port() int
	serviceName() string
	healthCheckPath() string
	metricsPath() string
	logLevel() zapcore.Level
	otelExporter() string
	routesFile() string
	watchRoutes() bool
	includeStackTraces() bool
	requestTimeout() time.Duration
	h2cEnabled() bool
}

// BaseEnvironment contains the environment variables every dispatcher app
// reads. Embed this in your custom environment struct.
type BaseEnvironment struct {
	Port            int           `env:"DHTTP_PORT,required"`
	ServiceName     string        `env:"DHTTP_SERVICE_NAME,required"`
	HealthCheckPath string        `env:"DHTTP_HEALTH_CHECK_PATH" envDefault:"/healthz"`
	MetricsPath     string        `env:"DHTTP_METRICS_PATH" envDefault:"/metrics"`
	LogLevel        zapcore.Level `env:"DHTTP_LOG_LEVEL" envDefault:"info"`
	OtelExporter    string        `env:"DHTTP_OTEL_EXPORTER" envDefault:"stdout"`
	// RoutesFile points at a YAML file of endpoint descriptors. It may be
	// left empty when the app is given a descriptor source directly via
	// WithDescriptorSource.
	RoutesFile  string `env:"DHTTP_ROUTES_FILE"`
	WatchRoutes bool   `env:"DHTTP_WATCH_ROUTES" envDefault:"false"`
	// StackTraces includes stack traces in error envelopes. Keep this off
	// in production deployments.
	StackTraces    bool          `env:"DHTTP_STACK_TRACES" envDefault:"false"`
	RequestTimeout time.Duration `env:"DHTTP_REQUEST_TIMEOUT" envDefault:"30s"`
	H2C            bool          `env:"DHTTP_H2C" envDefault:"false"`
}

func (e BaseEnvironment) port() int {
	return e.Port
}

func (e BaseEnvironment) serviceName() string {
	return e.ServiceName
}

func (e BaseEnvironment) healthCheckPath() string {
	return e.HealthCheckPath
}

func (e BaseEnvironment) metricsPath() string {
	return e.MetricsPath
}

func (e BaseEnvironment) logLevel() zapcore.Level {
	return e.LogLevel
}

func (e BaseEnvironment) otelExporter() string {
	return e.OtelExporter
}

func (e BaseEnvironment) routesFile() string {
	return e.RoutesFile
}

func (e BaseEnvironment) watchRoutes() bool {
	return e.WatchRoutes
}

func (e BaseEnvironment) includeStackTraces() bool {
	return e.StackTraces
}

func (e BaseEnvironment) requestTimeout() time.Duration {
	return e.RequestTimeout
}

func (e BaseEnvironment) h2cEnabled() bool {
	return e.H2C
}

var _ Environment = BaseEnvironment{}

// ParseEnv parses environment variables into the given Environment type.
func ParseEnv[E Environment]() func() (E, error) {
	return func() (e E, err error) {
		if err := env.Parse(&e); err != nil {
			return e, errors.Wrap(err, "failed to parse environment")
		}
		return e, nil
	}
}
