package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates a zap logger matching the given environment. "local" logs everything
// down to debug, "development" uses the human readable encoder at info and anything
// else gets the production JSON logger.
func New(environment string) (*zap.Logger, error) {
	switch environment {
	case "local":
		return zap.NewDevelopment()
	case "development":
		c := zap.NewDevelopmentConfig()
		c.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		return c.Build()
	default:
		return zap.NewProduction()
	}
}
