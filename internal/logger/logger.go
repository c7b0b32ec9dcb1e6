package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Service is attached to every entry so matcher logs can be told apart when
// the server and workers ship to the same sink.
const Service = "resume-matcher"

// Options selects the encoding and verbosity of the process logger.
type Options struct {
	JSON  bool
	Debug bool
	// Command names the subcommand that owns the process, e.g. "serve".
	Command string
}

// New builds the process logger. Entries go to stderr so the report printed
// on stdout by the analyze command stays machine readable.
func New(opts Options) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if opts.Debug {
		level = zapcore.DebugLevel
	}

	encoding := "console"
	if opts.JSON {
		encoding = "json"
	}

	fields := map[string]interface{}{"service": Service}
	if cmd := strings.TrimSpace(opts.Command); cmd != "" {
		fields["command"] = cmd
	}

	cfg := zap.Config{
		Encoding:         encoding,
		Level:            zap.NewAtomicLevelAt(level),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		InitialFields:    fields,
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey:     "event",
			LevelKey:       "level",
			TimeKey:        "time",
			CallerKey:      "caller",
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
			EncodeDuration: zapcore.MillisDurationEncoder,
		},
	}
	if opts.Debug {
		cfg.Development = true
	}

	return cfg.Build()
}

// Preview shortens s to limit runes for log output, appending an ellipsis when
// truncated. Resume and job text only ever reaches the logs through Preview.
func Preview(s string, limit int) string {
	s = strings.TrimSpace(s)
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
