// Package logging wraps a single process-wide zerolog.Logger behind the
// small Debug/Info/Warn/Error call shape used throughout this module.
package logging

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	mu  sync.RWMutex
	log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).With().Timestamp().Logger()
)

// Configure replaces the process-wide logger. Pass jsonOutput=true for
// machine-readable logs (service deployments); false for the human-friendly
// console writer (local CLI runs).
func Configure(out io.Writer, level string, jsonOutput bool) {
	mu.Lock()
	defer mu.Unlock()

	var w io.Writer = out
	if !jsonOutput {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}
	l := zerolog.New(w).With().Timestamp().Logger()
	if lvl, err := zerolog.ParseLevel(level); err == nil {
		l = l.Level(lvl)
	}
	log = l
}

func current() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// Debug logs a debug-level message, optionally with key/value fields.
func Debug(msg string, fields ...any) { logWithFields(current().Debug(), msg, fields) }

// Info logs an info-level message, optionally with key/value fields.
func Info(msg string, fields ...any) { logWithFields(current().Info(), msg, fields) }

// Warn logs a warn-level message, optionally with key/value fields.
func Warn(msg string, fields ...any) { logWithFields(current().Warn(), msg, fields) }

// Error logs an error-level message. If err is non-nil it is attached under
// the "error" field.
func Error(msg string, err error, fields ...any) {
	ev := current().Error()
	if err != nil {
		ev = ev.Err(err)
	}
	logWithFields(ev, msg, fields)
}

// logWithFields attaches alternating key/value pairs to ev before emitting
// msg. Non-string keys and odd trailing values are dropped rather than
// panicking — logging must never be the thing that crashes a request.
func logWithFields(ev *zerolog.Event, msg string, fields []any) {
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			continue
		}
		ev = ev.Interface(key, fields[i+1])
	}
	ev.Msg(msg)
}
