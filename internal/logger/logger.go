// Package logger writes pischat's debug log. The TUI owns the terminal, so
// everything goes to a file instead of stderr.
package logger

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
)

// DefaultLogPath is the log file used when Init is never called.
const DefaultLogPath = "/tmp/pischat-debug.log"

var (
	mu       sync.Mutex
	slogger  *slog.Logger
	levelVar = new(slog.LevelVar)
	logFile  *os.File
	logPath  string
	debug    bool
)

// SetDebug switches between debug and info level output.
func SetDebug(enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	debug = enabled
	if enabled {
		levelVar.Set(slog.LevelDebug)
	} else {
		levelVar.Set(slog.LevelInfo)
	}
}

// IsDebug reports whether debug output is enabled.
func IsDebug() bool {
	mu.Lock()
	defer mu.Unlock()
	return debug
}

// Init opens the log file at path. Calling Init again after a successful
// call is a no-op until Close or Reset.
func Init(path string) error {
	mu.Lock()
	defer mu.Unlock()

	if slogger != nil {
		return nil
	}
	return openLocked(path)
}

func openLocked(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	logFile = f
	logPath = path
	slogger = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: levelVar}))
	slogger.Info("Logger initialized", "path", path)
	return nil
}

// ensureInitLocked falls back to DefaultLogPath. mu must be held.
func ensureInitLocked() {
	if slogger != nil {
		return
	}
	if err := openLocked(DefaultLogPath); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
}

// Path returns the file currently being written, or "" before init.
func Path() string {
	mu.Lock()
	defer mu.Unlock()
	return logPath
}

func logf(level slog.Level, format string, args ...any) {
	mu.Lock()
	ensureInitLocked()
	l := slogger
	mu.Unlock()

	if l == nil || !l.Enabled(context.Background(), level) {
		return
	}
	l.Log(context.Background(), level, fmt.Sprintf(format, args...))
}

// Debug writes a printf-style debug message.
func Debug(format string, args ...any) { logf(slog.LevelDebug, format, args...) }

// Info writes a printf-style info message.
func Info(format string, args ...any) { logf(slog.LevelInfo, format, args...) }

// Warn writes a printf-style warning.
func Warn(format string, args ...any) { logf(slog.LevelWarn, format, args...) }

// Error writes a printf-style error.
func Error(format string, args ...any) { logf(slog.LevelError, format, args...) }

// WithComponent returns a structured logger tagged with the component name.
//
//	log := logger.WithComponent("socket")
//	log.Info("dialing", "url", u)
func WithComponent(component string) *slog.Logger {
	return base().With(slog.String("component", component))
}

// WithConversation returns a logger tagged with both ends of a conversation.
func WithConversation(viewerID, peerID string) *slog.Logger {
	return base().With(slog.String("viewer", viewerID), slog.String("peer", peerID))
}

func base() *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	ensureInitLocked()
	if slogger == nil {
		return slog.Default()
	}
	return slogger
}

// Close flushes and closes the log file.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	slogger = nil
}

// Reset closes the logger and restores defaults. Tests use it between cases.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	slogger = nil
	logPath = ""
	debug = false
	levelVar = new(slog.LevelVar)
}

// ClearLogs removes the default log file. It returns the number of files
// removed.
func ClearLogs() (int, error) {
	if err := os.Remove(DefaultLogPath); err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	return 1, nil
}
