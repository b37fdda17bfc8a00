package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger defines the subset of structured logging used by objinfo. The
// interface is intentionally small so hosts embedding the library can supply
// their own implementation.
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
	With(args ...any) Logger
}

// New returns a Logger backed by the provided slog.Logger. Passing nil binds to
// slog.Default().
func New(logger *slog.Logger) Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &slogLogger{logger: logger}
}

type slogLogger struct {
	logger *slog.Logger
}

func (l *slogLogger) Debug(ctx context.Context, msg string, args ...any) {
	l.logger.DebugContext(ctx, msg, args...)
}

func (l *slogLogger) Info(ctx context.Context, msg string, args ...any) {
	l.logger.InfoContext(ctx, msg, args...)
}

func (l *slogLogger) Warn(ctx context.Context, msg string, args ...any) {
	l.logger.WarnContext(ctx, msg, args...)
}

func (l *slogLogger) Error(ctx context.Context, msg string, args ...any) {
	l.logger.ErrorContext(ctx, msg, args...)
}

func (l *slogLogger) With(args ...any) Logger {
	return &slogLogger{logger: l.logger.With(args...)}
}

// NewZerolog adapts a zerolog.Logger. Arguments follow the slog convention:
// alternating keys and values, or slog.Attr values.
func NewZerolog(logger zerolog.Logger) Logger {
	return &zeroLogger{logger: logger}
}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return NewZerolog(zerolog.Nop())
}

type zeroLogger struct {
	logger zerolog.Logger
}

func (l *zeroLogger) Debug(ctx context.Context, msg string, args ...any) {
	l.logger.Debug().Ctx(ctx).Fields(fields(args)).Msg(msg)
}

func (l *zeroLogger) Info(ctx context.Context, msg string, args ...any) {
	l.logger.Info().Ctx(ctx).Fields(fields(args)).Msg(msg)
}

func (l *zeroLogger) Warn(ctx context.Context, msg string, args ...any) {
	l.logger.Warn().Ctx(ctx).Fields(fields(args)).Msg(msg)
}

func (l *zeroLogger) Error(ctx context.Context, msg string, args ...any) {
	l.logger.Error().Ctx(ctx).Fields(fields(args)).Msg(msg)
}

func (l *zeroLogger) With(args ...any) Logger {
	return &zeroLogger{logger: l.logger.With().Fields(fields(args)).Logger()}
}

// fields flattens slog-style arguments into the key/value list accepted by
// zerolog's Fields. A dangling value is logged under "!BADKEY" like slog does.
func fields(args []any) []any {
	if len(args) == 0 {
		return nil
	}
	out := make([]any, 0, len(args))
	for i := 0; i < len(args); i++ {
		switch a := args[i].(type) {
		case slog.Attr:
			out = append(out, a.Key, a.Value.Any())
		case string:
			if i+1 >= len(args) {
				out = append(out, "!BADKEY", a)
				continue
			}
			out = append(out, a, args[i+1])
			i++
		default:
			out = append(out, "!BADKEY", a)
		}
	}
	return out
}

// Config controls the zerolog logger built by FromConfig.
type Config struct {
	// Level is one of debug, info, warn, error or disabled.
	Level string
	// Format is "json" or "console".
	Format string
	// Output receives log lines. Defaults to os.Stderr.
	Output io.Writer
}

// ParseLevel converts a textual level into a zerolog.Level.
func ParseLevel(level string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel, nil
	case "info", "":
		return zerolog.InfoLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	case "disabled", "off", "none":
		return zerolog.Disabled, nil
	}
	return zerolog.NoLevel, fmt.Errorf("unknown log level %q", level)
}

// FromConfig builds a zerolog-backed Logger tagged with the objinfo component.
func FromConfig(cfg Config) (Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	switch strings.ToLower(cfg.Format) {
	case "", "json":
	case "console":
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: "15:04:05",
			NoColor:    true,
		}
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	zl := zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Str("component", "objinfo").
		Logger()
	return NewZerolog(zl), nil
}
