// Package utils provides small cross-cutting helpers shared by the
// simulation engine and control API.
package utils

import (
	"fmt"
	"log"
	"os"
)

// Logger provides leveled text logging scoped to a single named component
// (typically a simulation id), so log lines from concurrently running
// simulations can be told apart in a shared process's output.
type Logger struct {
	info  *log.Logger
	warn  *log.Logger
	error *log.Logger
	debug *log.Logger
}

// NewLogger creates a logger whose every line is tagged with component
// (e.g. a simulation id). An empty component omits the tag.
func NewLogger(component string) *Logger {
	tag := ""
	if component != "" {
		tag = fmt.Sprintf("[%s] ", component)
	}
	flags := log.LstdFlags | log.Lshortfile
	return &Logger{
		info:  log.New(os.Stdout, "[INFO] "+tag, flags),
		warn:  log.New(os.Stdout, "[WARN] "+tag, flags),
		error: log.New(os.Stderr, "[ERROR] "+tag, flags),
		debug: log.New(os.Stdout, "[DEBUG] "+tag, flags),
	}
}

// Info logs an info message.
func (l *Logger) Info(format string, v ...interface{}) {
	l.info.Printf(format, v...)
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, v ...interface{}) {
	l.warn.Printf(format, v...)
}

// Error logs an error message.
func (l *Logger) Error(format string, v ...interface{}) {
	l.error.Printf(format, v...)
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, v ...interface{}) {
	l.debug.Printf(format, v...)
}
