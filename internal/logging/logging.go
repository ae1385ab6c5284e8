// Package logging configures the zerolog-based structured logging used
// across pybundle. Loggers travel on the context; components attach
// themselves with ComponentLogger and every CLI invocation is tagged with a
// ULID run ID.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// Config controls the root logger.
type Config struct {
	// Level is a zerolog level name ("debug", "info", ...). Defaults to
	// info; unparseable values also fall back to info.
	Level string `yaml:"level"`

	// Format is "console" or "json". Empty selects console when stderr is
	// a terminal and json otherwise.
	Format string `yaml:"format"`

	// File, when set, sends log output to the named file instead of
	// stderr. The file is opened in append mode and created if absent.
	File string `yaml:"file"`
}

const (
	// FormatConsole renders human-readable output.
	FormatConsole = "console"

	// FormatJSON renders one JSON object per line.
	FormatJSON = "json"
)

// runIDKey is the context key carrying the run ID.
type runIDKey struct{}

// New builds the root logger from cfg. The returned closer releases the log
// file handle when file output is configured and is a no-op otherwise.
func New(cfg Config) (zerolog.Logger, io.Closer, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	var out io.Writer = os.Stderr
	closer := io.Closer(nopCloser{})
	if cfg.File != "" {
		f, openErr := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if openErr != nil {
			return zerolog.Nop(), nopCloser{}, fmt.Errorf("opening log file: %w", openErr)
		}
		out = f
		closer = f
	}

	format := cfg.Format
	if format == "" {
		format = FormatJSON
		if cfg.File == "" && IsTerminal(os.Stderr) {
			format = FormatConsole
		}
	}
	if format == FormatConsole {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	logger := zerolog.New(out).Level(level).With().Timestamp().Logger()
	return logger, closer, nil
}

// Validate reports whether cfg's level and format are usable.
func (c Config) Validate() error {
	if c.Level != "" {
		if _, err := zerolog.ParseLevel(c.Level); err != nil {
			return fmt.Errorf("invalid log level %q: %w", c.Level, err)
		}
	}
	switch c.Format {
	case "", FormatConsole, FormatJSON:
		return nil
	default:
		return fmt.Errorf("invalid log format %q (want %s or %s)", c.Format, FormatConsole, FormatJSON)
	}
}

// FromContext returns the logger attached to ctx, or a disabled logger when
// none is attached.
func FromContext(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}

// ComponentLogger returns a child of logger tagged with a component name.
func ComponentLogger(logger zerolog.Logger, component string) zerolog.Logger {
	return logger.With().Str("component", component).Logger()
}

// NewRunID returns a ULID identifying a single pipeline run.
func NewRunID() string {
	return ulid.Make().String()
}

// ContextWithRunID stores a run ID on ctx.
func ContextWithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

// RunIDFromContext returns the run ID on ctx, or empty when absent.
func RunIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(runIDKey{}).(string); ok {
		return id
	}
	return ""
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
