package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/pawankumargali/pnl-tracker/internal/ports"
)

// ZerologLogger implements the ports.Logger interface on top of zerolog.
type ZerologLogger struct {
	logger zerolog.Logger
}

// NewZerologLogger creates a JSON logger writing to os.Stderr.
// With console set, output is plain text instead of JSON.
func NewZerologLogger(level LogLevel, console bool) *ZerologLogger {
	var w io.Writer = os.Stderr
	if console {
		w = ConsoleWriter(os.Stderr)
	}
	return NewZerologLoggerTo(w, level)
}

// ConsoleWriter renders zerolog events as uncolored single lines on out.
func ConsoleWriter(out io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{Out: out, NoColor: true, TimeFormat: time.RFC3339}
}

// NewZerologLoggerTo creates a logger writing to w.
func NewZerologLoggerTo(w io.Writer, level LogLevel) *ZerologLogger {
	zl := zerolog.New(w).
		Level(level.zerolog()).
		With().
		Timestamp().
		Logger()
	return &ZerologLogger{logger: zl}
}

func withFields(ev *zerolog.Event, fields []ports.Fields) *zerolog.Event {
	if len(fields) > 0 && len(fields[0]) > 0 {
		ev = ev.Fields(fields[0])
	}
	return ev
}

// Debug logs a message at Debug level.
func (l *ZerologLogger) Debug(ctx context.Context, msg string, fields ...ports.Fields) {
	withFields(l.logger.Debug(), fields).Msg(msg)
}

// Info logs a message at Info level.
func (l *ZerologLogger) Info(ctx context.Context, msg string, fields ...ports.Fields) {
	withFields(l.logger.Info(), fields).Msg(msg)
}

// Warn logs a message at Warning level.
func (l *ZerologLogger) Warn(ctx context.Context, msg string, fields ...ports.Fields) {
	withFields(l.logger.Warn(), fields).Msg(msg)
}

// Error logs an error message at Error level.
func (l *ZerologLogger) Error(ctx context.Context, err error, msg string, fields ...ports.Fields) {
	withFields(l.logger.Error().Err(err), fields).Msg(msg)
}
