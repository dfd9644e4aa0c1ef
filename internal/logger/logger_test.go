package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// setupTestLogger points the logger at a temp file and returns its path.
func setupTestLogger(t *testing.T) string {
	t.Helper()
	Reset()

	logPath := filepath.Join(t.TempDir(), "test-debug.log")
	if err := Init(logPath); err != nil {
		t.Fatalf("Failed to init logger: %v", err)
	}
	t.Cleanup(Reset)
	return logPath
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	return string(data)
}

func TestInit_WritesHeader(t *testing.T) {
	logPath := setupTestLogger(t)

	if got := Path(); got != logPath {
		t.Errorf("Path() = %q, want %q", got, logPath)
	}
	if !strings.Contains(readLog(t, logPath), "Logger initialized") {
		t.Error("expected init line in log file")
	}
}

func TestInit_SecondCallIsNoop(t *testing.T) {
	logPath := setupTestLogger(t)

	other := filepath.Join(t.TempDir(), "other.log")
	if err := Init(other); err != nil {
		t.Fatalf("second Init returned error: %v", err)
	}
	if Path() != logPath {
		t.Errorf("second Init changed path to %q", Path())
	}
}

func TestLevels(t *testing.T) {
	logPath := setupTestLogger(t)

	Debug("hidden %d", 1)
	Info("visible %s", "info")
	Warn("visible warn")
	Error("visible error")

	content := readLog(t, logPath)
	if strings.Contains(content, "hidden 1") {
		t.Error("debug message written at info level")
	}
	for _, want := range []string{"visible info", "visible warn", "visible error"} {
		if !strings.Contains(content, want) {
			t.Errorf("log missing %q", want)
		}
	}

	SetDebug(true)
	if !IsDebug() {
		t.Fatal("IsDebug() = false after SetDebug(true)")
	}
	Debug("shown %d", 2)
	if !strings.Contains(readLog(t, logPath), "shown 2") {
		t.Error("debug message missing at debug level")
	}
}

func TestWithComponent(t *testing.T) {
	logPath := setupTestLogger(t)

	WithComponent("socket").Info("dialing", "url", "ws://example")
	content := readLog(t, logPath)
	if !strings.Contains(content, "component=socket") {
		t.Errorf("expected component attribute, got:\n%s", content)
	}
	if !strings.Contains(content, "url=ws://example") {
		t.Errorf("expected url attribute, got:\n%s", content)
	}
}

func TestWithConversation(t *testing.T) {
	logPath := setupTestLogger(t)

	WithConversation("alice", "bob").Warn("dropped record")
	content := readLog(t, logPath)
	if !strings.Contains(content, "viewer=alice") || !strings.Contains(content, "peer=bob") {
		t.Errorf("expected conversation attributes, got:\n%s", content)
	}
}

func TestClose_ThenLogDoesNotPanic(t *testing.T) {
	setupTestLogger(t)
	Close()
	// Falls back to the default path; must not panic either way.
	Info("after close")
}
