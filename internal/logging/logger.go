// Package logging provides a small leveled key/value logger.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// Logger writes "[LEVEL] msg key=value ..." lines through a standard log.Logger.
type Logger struct {
	prefix string
	logger *log.Logger
	debug  bool
}

// NewLogger creates a logger writing to stdout with the given prefix.
func NewLogger(prefix string) *Logger {
	return New(os.Stdout, prefix)
}

// New creates a logger writing to w.
func New(w io.Writer, prefix string) *Logger {
	return &Logger{
		prefix: prefix,
		logger: log.New(w, fmt.Sprintf("[%s] ", prefix), log.LstdFlags),
	}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return New(io.Discard, "")
}

// SetDebug enables or disables Debug output.
func (l *Logger) SetDebug(enabled bool) {
	l.debug = enabled
}

// Info logs an informational message with key-value pairs
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.logWithKV("INFO", msg, keysAndValues...)
}

// Warn logs a warning message with key-value pairs
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.logWithKV("WARN", msg, keysAndValues...)
}

// Error logs an error message with key-value pairs
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.logWithKV("ERROR", msg, keysAndValues...)
}

// Debug logs a debug message with key-value pairs when debug output is on.
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	if l == nil || !l.debug {
		return
	}
	l.logWithKV("DEBUG", msg, keysAndValues...)
}

func (l *Logger) logWithKV(level, msg string, keysAndValues ...interface{}) {
	if l == nil {
		return
	}
	var kv strings.Builder
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fmt.Fprintf(&kv, " %v=%v", keysAndValues[i], keysAndValues[i+1])
	}
	l.logger.Printf("[%s] %s%s", level, msg, kv.String())
}
