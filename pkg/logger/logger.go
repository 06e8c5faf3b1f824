// Package logger builds the structured loggers used throughout the store.
// An opened store passes one *zap.SugaredLogger, tagged with a service
// name, to every subsystem; Named can derive a child logger scoped to a
// single component.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production-configured, JSON-encoded logger tagged with the
// given service name. It writes to stderr so that a CLI using the store
// can keep stdout clean for data output.
func New(service string) *zap.SugaredLogger {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(cfg),
		zapcore.Lock(zapcore.AddSync(os.Stderr)),
		zapcore.InfoLevel,
	)

	base := zap.New(core).With(zap.String("service", service))
	return base.Sugar()
}

// Named returns a child logger scoped to a specific component, e.g.
// "storage" or "index", without constructing a new core.
func Named(log *zap.SugaredLogger, component string) *zap.SugaredLogger {
	return log.Named(component)
}
