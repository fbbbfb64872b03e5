// Package obs constructs the server's structured logger. Grounded on
// adred-codev-ws_poc's internal/logging/logging.go zap.Config pattern,
// simplified to this server's two operating modes (plain production JSON
// vs. a human-readable development console encoder).
package obs

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the root zap.Logger. development selects a
// console-encoded, debug-level logger suited to a terminal; otherwise a
// JSON-encoded, info-level logger suited to a log collector is built.
func NewLogger(development bool) (*zap.Logger, error) {
	level := zap.InfoLevel
	encoding := "json"
	if development {
		level = zap.DebugLevel
		encoding = "console"
	}

	cfg := zap.Config{
		Level:       zap.NewAtomicLevelAt(level),
		Development: development,
		Encoding:    encoding,
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			MessageKey:     "msg",
			StacktraceKey:  "stack",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
	return cfg.Build()
}
