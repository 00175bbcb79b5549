// Package logger provides the operational log.
//
// A Logger is an explicit value handed to each component at
// construction; the package keeps no process-wide state. Every
// subsystem writes informational, warning, and error lines to it. The
// log is the only surface operators are expected to watch; nothing in
// the programmatic contract depends on it.
package logger

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// Logger writes leveled lines to a single log file. A nil *Logger
// discards everything, so callers never guard their log calls.
type Logger struct {
	out  *log.Logger
	file *os.File
}

// New opens the log file at path in append mode, creating parent
// directories as needed.
func New(path string) (*Logger, error) {
	if err := ensureParentDir(path); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &Logger{
		out:  log.New(f, "", log.Ldate|log.Ltime|log.Lmicroseconds),
		file: f,
	}, nil
}

// Close closes the underlying log file.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

// Infof logs informational messages.
func (l *Logger) Infof(format string, args ...any) { l.write("INFO", format, args...) }

// Warnf logs warnings.
func (l *Logger) Warnf(format string, args ...any) { l.write("WARN", format, args...) }

// Errorf logs errors.
func (l *Logger) Errorf(format string, args ...any) { l.write("ERROR", format, args...) }

func (l *Logger) write(level string, format string, args ...any) {
	if l == nil || l.out == nil {
		return
	}
	l.out.Printf("[%s] %s", level, fmt.Sprintf(format, args...))
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
