package logging

import (
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// Level controls which messages are emitted
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Field is a single structured log attribute
type Field struct {
	Key   string
	Value interface{}
}

// Logger is a leveled structured logger backed by slog
type Logger struct {
	slog *slog.Logger
}

// New creates a logger writing human-readable output to stdout
func New(level Level) *Logger {
	handler := tint.NewHandler(os.Stdout, &tint.Options{
		Level:      slogLevel(level),
		TimeFormat: time.Kitchen,
	})
	return &Logger{slog: slog.New(handler)}
}

// WithField creates a single log field
func WithField(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// WithFields creates log fields from a map
func WithFields(fields map[string]interface{}) []Field {
	result := make([]Field, 0, len(fields))
	for k, v := range fields {
		result = append(result, Field{Key: k, Value: v})
	}
	return result
}

func (l *Logger) Debug(msg string, fields ...interface{}) {
	l.slog.Debug(msg, flatten(fields)...)
}

func (l *Logger) Info(msg string, fields ...interface{}) {
	l.slog.Info(msg, flatten(fields)...)
}

func (l *Logger) Warn(msg string, fields ...interface{}) {
	l.slog.Warn(msg, flatten(fields)...)
}

func (l *Logger) Error(msg string, fields ...interface{}) {
	l.slog.Error(msg, flatten(fields)...)
}

// flatten accepts Field values, []Field slices, or bare key/value
// pairs and converts them to slog args.
func flatten(fields []interface{}) []interface{} {
	args := make([]interface{}, 0, len(fields)*2)
	for _, f := range fields {
		switch v := f.(type) {
		case Field:
			args = append(args, slog.Any(v.Key, v.Value))
		case []Field:
			for _, inner := range v {
				args = append(args, slog.Any(inner.Key, inner.Value))
			}
		default:
			args = append(args, f)
		}
	}
	return args
}

func slogLevel(level Level) slog.Level {
	switch level {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
