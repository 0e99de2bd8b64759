// Package logging provides the charmbracelet/log backed implementation of
// the domain Logger.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/ochairo/fetchrun/internal/domain/interfaces"
)

// Options configures a Logger
type Options struct {
	Level  string // debug, info, warn, error
	Format string // text, json, logfmt
	Output io.Writer
}

// Logger adapts *log.Logger to interfaces.Logger
type Logger struct {
	l *log.Logger
}

var _ interfaces.Logger = (*Logger)(nil)

// New creates a Logger. Output defaults to stderr so stdout stays free for
// command results.
func New(opts Options) (*Logger, error) {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	level := log.InfoLevel
	if opts.Level != "" {
		parsed, err := log.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}

	formatter := log.TextFormatter
	switch opts.Format {
	case "", "text":
	case "json":
		formatter = log.JSONFormatter
	case "logfmt":
		formatter = log.LogfmtFormatter
	default:
		return nil, fmt.Errorf("invalid log format %q", opts.Format)
	}

	return &Logger{
		l: log.NewWithOptions(out, log.Options{
			Level:           level,
			Formatter:       formatter,
			Prefix:          "fetchrun",
			ReportTimestamp: true,
		}),
	}, nil
}

// With returns a Logger that attaches fields to every entry
func (g *Logger) With(fields ...interfaces.Field) *Logger {
	return &Logger{l: g.l.With(interfaces.KeyVals(fields)...)}
}

// Debug logs debug-level messages
func (g *Logger) Debug(msg string, fields ...interfaces.Field) {
	g.l.Debug(msg, interfaces.KeyVals(fields)...)
}

// Info logs informational messages
func (g *Logger) Info(msg string, fields ...interfaces.Field) {
	g.l.Info(msg, interfaces.KeyVals(fields)...)
}

// Warn logs warning messages
func (g *Logger) Warn(msg string, fields ...interfaces.Field) {
	g.l.Warn(msg, interfaces.KeyVals(fields)...)
}

// Error logs error messages
func (g *Logger) Error(msg string, fields ...interfaces.Field) {
	g.l.Error(msg, interfaces.KeyVals(fields)...)
}
