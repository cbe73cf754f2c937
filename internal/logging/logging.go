// Package logging builds the zap loggers used by the CLI and server.
package logging

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates a zap.Logger at the given level. format is "json" or
// "console"; logs go to stderr so command output stays clean.
func New(level, format string) (*zap.Logger, error) {
	lvl := zapcore.InfoLevel
	if err := lvl.Set(strings.ToLower(level)); err != nil {
		lvl = zapcore.InfoLevel
	}
	encoding := strings.ToLower(format)
	switch encoding {
	case "json", "console":
	case "":
		encoding = "console"
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	cfg := zap.Config{
		Level:    zap.NewAtomicLevelAt(lvl),
		Encoding: encoding,
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey: "message",
			LevelKey:   "level",
			TimeKey:    "ts",
			EncodeLevel: func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
				enc.AppendString(l.String())
			},
			EncodeTime: zapcore.ISO8601TimeEncoder,
		},
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
	return cfg.Build()
}

// WithRequest returns log annotated with the chi request id in ctx, if any.
func WithRequest(ctx context.Context, log *zap.Logger) *zap.Logger {
	if id := middleware.GetReqID(ctx); id != "" {
		return log.With(zap.String("request_id", id))
	}
	return log
}
