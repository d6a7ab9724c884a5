// Package logx wraps log/slog behind a small, stackable-verbosity logger
// in the same shape the mirror tooling uses: a formatted Debug/Info/Warn
// surface plus a Process helper that nests and times a named unit of
// work, indenting its sub-messages.
package logx

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gitlab.com/greyxor/slogor"
)

// LevelTrace is a custom level below slog.LevelDebug, selected by the
// third repetition of the CLI's -v flag.
const LevelTrace = slog.Level(-8)

const processPrefix = "║"

// Logger is a depth-tracking slog wrapper used across every uenv
// subsystem: parsing, the store, the registry client and the CLI layer.
type Logger struct {
	delegate     *slog.Logger
	processDepth int
}

// LevelForVerbosity maps a stacked -v count to a slog.Level: 0 is warn
// (the quiet default), 1 is info, 2 is debug, 3+ is trace.
func LevelForVerbosity(v int) slog.Level {
	switch {
	case v <= 0:
		return slog.LevelWarn
	case v == 1:
		return slog.LevelInfo
	case v == 2:
		return slog.LevelDebug
	default:
		return LevelTrace
	}
}

// New builds a logger writing to stdout at the given level.
func New(level slog.Level) *Logger {
	return &Logger{
		delegate: slog.New(slogor.NewHandler(os.Stdout, slogor.Options{
			TimeFormat: time.StampMilli,
			Level:      level,
		})),
	}
}

func (l *Logger) TraceF(format string, a ...any) {
	l.delegate.Log(context.Background(), LevelTrace, l.formatRecord(format, a...))
}

func (l *Logger) DebugF(format string, a ...any) {
	l.delegate.Debug(l.formatRecord(format, a...))
}

func (l *Logger) InfoF(format string, a ...any) {
	l.delegate.Info(l.formatRecord(format, a...))
}

func (l *Logger) WarnF(format string, a ...any) {
	l.delegate.Warn(l.formatRecord(format, a...))
}

func (l *Logger) ErrorF(format string, a ...any) {
	l.delegate.Error(l.formatRecord(format, a...))
}

// Process logs the start and end of a named unit of work, indenting
// nested Process calls and surfacing the error (if any) the unit returns.
func (l *Logger) Process(topic string, run func() error) error {
	start := time.Now()
	l.delegate.Info(strings.Repeat(processPrefix, l.processDepth) + "╔ " + topic)
	l.processDepth++
	defer func() { l.processDepth-- }()

	if err := run(); err != nil {
		l.delegate.Error(strings.Repeat(processPrefix, l.processDepth-1)+topic+" failed", "error", err)
		return err
	}
	l.delegate.Info(strings.Repeat(processPrefix, l.processDepth-1) + "╚ " + topic + " succeeded in " + time.Since(start).String())
	return nil
}

func (l *Logger) formatRecord(template string, args ...any) string {
	prefix := strings.Repeat(processPrefix, l.processDepth)
	if template == "" {
		var b strings.Builder
		b.WriteString(prefix)
		for _, a := range args {
			fmt.Fprintf(&b, " %v", a)
		}
		return b.String()
	}
	return fmt.Sprintf(prefix+" "+template, args...)
}
