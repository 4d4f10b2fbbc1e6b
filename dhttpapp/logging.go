package dhttpapp

import (
	"github.com/advdv/dhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger creates a zap logger configured from the environment.
// Uses JSON encoding suitable for log aggregation.
// DHTTP_LOG_LEVEL controls the level (debug, info, warn, error).
func NewLogger(env Environment) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(env.logLevel())
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

type zapLogger struct{ *zap.Logger }

func (l zapLogger) LogUnhandledServeError(err error) {
	l.Logger.Error("unhandled server error", zap.Error(err))
}

func (l zapLogger) LogImplicitFlushError(err error) {
	l.Logger.Error("error while flushing implicitly", zap.Error(err))
}

func newZapDispatchLogger(l *zap.Logger) dhttp.Logger {
	return zapLogger{l.Named("dhttp").Named("dhttpapp")}
}

// newLoggingSink turns dispatcher events into structured log lines. Incoming
// messages and forwards log at debug so request logging can be switched on
// without redeploying; errors log at warn with the original error attached.
func newLoggingSink(l *zap.Logger) dhttp.EventSink {
	logs := l.Named("dhttp").Named("events")

	return dhttp.SinkFunc(func(event dhttp.Event, payload any) {
		switch p := payload.(type) {
		case dhttp.IncomingMessagePayload:
			logs.Debug("incoming message",
				zap.String("request_id", p.RequestID),
				zap.String("method", p.Method),
				zap.String("path", p.Path),
			)
		case dhttp.ForwardingPayload:
			logs.Debug("forwarding request",
				zap.String("request_id", p.RequestID),
				zap.String("collection", p.Collection),
				zap.String("handler", p.Handler),
				zap.Int("depth", p.Depth),
			)
		case dhttp.ErrorPayload:
			logs.Warn("request failed",
				zap.String("request_id", p.RequestID),
				zap.Int("status", p.Status),
				zap.String("message", p.Message),
				zap.String("code", p.Code),
				zap.Error(p.Err),
			)
		default:
			logs.Debug("dispatcher event", zap.String("event", string(event)))
		}
	})
}
