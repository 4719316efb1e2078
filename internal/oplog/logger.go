// Package oplog provides key-value logging for the orchestrator.
// The bot usually runs detached from a terminal, so logs go to a file
// when one is configured and to stderr otherwise.
package oplog

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Logger writes timestamped key-value log lines.
type Logger struct {
	mu   sync.Mutex
	out  io.Writer
	file *os.File
}

var (
	// Log is the global logger instance.
	Log     = &Logger{out: os.Stderr}
	logOnce sync.Once
)

// Init redirects the global logger to the specified file.
// If path is empty, the logger keeps writing to stderr.
func Init(path string) error {
	if path == "" {
		return nil
	}

	var initErr error
	logOnce.Do(func() {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			initErr = err
			return
		}
		Log.mu.Lock()
		Log.file = f
		Log.out = f
		Log.mu.Unlock()
		Log.Info("logger initialized", "path", path)
	})
	return initErr
}

// Close closes the log file, if any.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// Writer returns the underlying io.Writer for use with other libraries.
func (l *Logger) Writer() io.Writer {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.out
}

func (l *Logger) log(level string, msg string, keyvals ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.out == nil {
		return
	}

	timestamp := time.Now().Format("2006-01-02T15:04:05.000")
	line := fmt.Sprintf("%s [%s] %s", timestamp, level, msg)

	for i := 0; i < len(keyvals)-1; i += 2 {
		line += fmt.Sprintf(" %v=%v", keyvals[i], keyvals[i+1])
	}

	fmt.Fprintln(l.out, line)
	if l.file != nil {
		l.file.Sync()
	}
}

// Debug logs a debug message with optional key-value pairs.
func (l *Logger) Debug(msg string, keyvals ...any) {
	l.log("DEBUG", msg, keyvals...)
}

// Info logs an info message with optional key-value pairs.
func (l *Logger) Info(msg string, keyvals ...any) {
	l.log("INFO", msg, keyvals...)
}

// Warn logs a warning message with optional key-value pairs.
func (l *Logger) Warn(msg string, keyvals ...any) {
	l.log("WARN", msg, keyvals...)
}

// Error logs an error message with optional key-value pairs.
func (l *Logger) Error(msg string, keyvals ...any) {
	l.log("ERROR", msg, keyvals...)
}

// Timed logs the duration of an operation. Usage:
//
//	defer oplog.Log.Timed("operation name")()
func (l *Logger) Timed(operation string) func() {
	start := time.Now()
	l.Debug(operation, "status", "started")
	return func() {
		l.Debug(operation, "status", "completed", "duration", time.Since(start))
	}
}
