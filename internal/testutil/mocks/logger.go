package mocks

import (
	"context"
	"sync"

	"github.com/felixgeelhaar/setup-texlive/internal/ports"
)

// LogEntry is a message captured by Logger.
type LogEntry struct {
	Level   ports.Level
	Message string
	Fields  []ports.Field
}

// Logger is a ports.Logger that records every entry.
type Logger struct {
	mu      *sync.Mutex
	entries *[]LogEntry
	fields  []ports.Field
	level   ports.Level
}

// NewLogger creates a recording Logger.
func NewLogger() *Logger {
	return &Logger{mu: &sync.Mutex{}, entries: &[]LogEntry{}, level: ports.LevelDebug}
}

// Debug records a debug entry.
func (l *Logger) Debug(_ context.Context, msg string, fields ...ports.Field) {
	l.record(ports.LevelDebug, msg, fields)
}

// Info records an info entry.
func (l *Logger) Info(_ context.Context, msg string, fields ...ports.Field) {
	l.record(ports.LevelInfo, msg, fields)
}

// Warn records a warning entry.
func (l *Logger) Warn(_ context.Context, msg string, fields ...ports.Field) {
	l.record(ports.LevelWarn, msg, fields)
}

// Error records an error entry.
func (l *Logger) Error(_ context.Context, msg string, fields ...ports.Field) {
	l.record(ports.LevelError, msg, fields)
}

// With returns a Logger sharing the same entry list.
func (l *Logger) With(fields ...ports.Field) ports.Logger {
	return &Logger{
		mu:      l.mu,
		entries: l.entries,
		fields:  append(append([]ports.Field(nil), l.fields...), fields...),
		level:   l.level,
	}
}

// Level returns the configured level.
func (l *Logger) Level() ports.Level {
	return l.level
}

// SetLevel is recorded but does not filter entries.
func (l *Logger) SetLevel(level ports.Level) {
	l.level = level
}

// Entries returns every recorded entry.
func (l *Logger) Entries() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]LogEntry(nil), (*l.entries)...)
}

// Messages returns the messages recorded at level.
func (l *Logger) Messages(level ports.Level) []string {
	var out []string
	for _, e := range l.Entries() {
		if e.Level == level {
			out = append(out, e.Message)
		}
	}
	return out
}

func (l *Logger) record(level ports.Level, msg string, fields []ports.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	all := append(append([]ports.Field(nil), l.fields...), fields...)
	*l.entries = append(*l.entries, LogEntry{Level: level, Message: msg, Fields: all})
}

// Ensure Logger implements ports.Logger.
var _ ports.Logger = (*Logger)(nil)
