package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func todayLogPath(dir string) string {
	return filepath.Join(dir, fileName(time.Now().Format("20060102")))
}

func readLog(t *testing.T, dir string) string {
	t.Helper()
	content, err := os.ReadFile(todayLogPath(dir))
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	return string(content)
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Level != INFO {
		t.Errorf("Expected default level INFO, got %v", config.Level)
	}

	if config.RetentionDays != 7 {
		t.Errorf("Expected retention days 7, got %d", config.RetentionDays)
	}

	if !strings.Contains(config.LogDir, "cry-interpreter") {
		t.Errorf("Expected log directory under cry-interpreter, got %q", config.LogDir)
	}
}

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{DEBUG, "DEBUG"},
		{INFO, "INFO"},
		{WARN, "WARN"},
		{ERROR, "ERROR"},
		{Level(42), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			result := tt.level.String()
			if result != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name    string
		want    Level
		wantErr bool
	}{
		{"debug", DEBUG, false},
		{"INFO", INFO, false},
		{"", INFO, false},
		{"warning", WARN, false},
		{" error ", ERROR, false},
		{"verbose", INFO, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLevel(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestNew(t *testing.T) {
	tempDir := t.TempDir()

	logger, err := New(Config{LogDir: tempDir, Level: INFO, RetentionDays: 7})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Close()

	logPath := todayLogPath(tempDir)
	if !strings.HasPrefix(filepath.Base(logPath), "cry-interpreter-") {
		t.Errorf("Unexpected log file name: %s", logPath)
	}
	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		t.Errorf("Log file was not created: %s", logPath)
	}
}

func TestLogging(t *testing.T) {
	tempDir := t.TempDir()

	logger, err := New(Config{LogDir: tempDir, Level: DEBUG, RetentionDays: 7})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Close()

	logger.Debug("Debug message")
	logger.Info("Info message %d", 42)
	logger.Warn("Warn message")
	logger.Error("Error message")

	logContent := readLog(t, tempDir)

	for _, want := range []string{
		"Debug message", "Info message 42", "Warn message", "Error message",
		"level=debug", "level=info", "level=warning", "level=error",
	} {
		if !strings.Contains(logContent, want) {
			t.Errorf("%q not found in log", want)
		}
	}
}

func TestWithFields(t *testing.T) {
	tempDir := t.TempDir()

	logger, err := New(Config{LogDir: tempDir, Level: INFO, RetentionDays: 7})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Close()

	logger.WithFields(map[string]interface{}{"label": "Hungry", "score": 0.55}).Info("classified")

	logContent := readLog(t, tempDir)
	for _, want := range []string{"classified", "label=Hungry", "score=0.55"} {
		if !strings.Contains(logContent, want) {
			t.Errorf("%q not found in log", want)
		}
	}
}

func TestLogLevel(t *testing.T) {
	tempDir := t.TempDir()

	logger, err := New(Config{LogDir: tempDir, Level: WARN, RetentionDays: 7})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Close()

	logger.Debug("Debug message")
	logger.Info("Info message")
	logger.Warn("Warn message")
	logger.Error("Error message")

	logContent := readLog(t, tempDir)

	if strings.Contains(logContent, "Debug message") {
		t.Error("Debug message should not be logged at WARN level")
	}
	if strings.Contains(logContent, "Info message") {
		t.Error("Info message should not be logged at WARN level")
	}
	if !strings.Contains(logContent, "Warn message") {
		t.Error("Warn message not found in log")
	}
	if !strings.Contains(logContent, "Error message") {
		t.Error("Error message not found in log")
	}
}

func TestSetLevel(t *testing.T) {
	tempDir := t.TempDir()

	logger, err := New(Config{LogDir: tempDir, Level: INFO, RetentionDays: 7})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Close()

	if logger.GetLevel() != INFO {
		t.Errorf("Expected initial level INFO, got %v", logger.GetLevel())
	}

	logger.Debug("hidden")
	logger.SetLevel(DEBUG)
	logger.Debug("shown")

	if logger.GetLevel() != DEBUG {
		t.Errorf("Expected level DEBUG, got %v", logger.GetLevel())
	}

	logContent := readLog(t, tempDir)
	if strings.Contains(logContent, "hidden") {
		t.Error("Debug message logged before SetLevel(DEBUG)")
	}
	if !strings.Contains(logContent, "shown") {
		t.Error("Debug message missing after SetLevel(DEBUG)")
	}
}

func TestRotation(t *testing.T) {
	tempDir := t.TempDir()

	logger, err := New(Config{LogDir: tempDir, Level: INFO, RetentionDays: 7})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Close()

	tomorrow := time.Now().AddDate(0, 0, 1)
	logger.mu.Lock()
	logger.now = func() time.Time { return tomorrow }
	logger.mu.Unlock()

	logger.Info("next day")

	content, err := os.ReadFile(filepath.Join(tempDir, fileName(tomorrow.Format("20060102"))))
	if err != nil {
		t.Fatalf("Rotated log file missing: %v", err)
	}
	if !strings.Contains(string(content), "next day") {
		t.Error("Entry not written to the rotated file")
	}
}

func TestCleanOldLogs(t *testing.T) {
	tempDir := t.TempDir()
	tenDaysAgo := time.Now().AddDate(0, 0, -10)

	oldLogPath := filepath.Join(tempDir, fileName(tenDaysAgo.Format("20060102")))
	foreignPath := filepath.Join(tempDir, "other-app.log")

	for _, path := range []string{oldLogPath, foreignPath} {
		if err := os.WriteFile(path, []byte("old log"), 0644); err != nil {
			t.Fatalf("Failed to create old log file: %v", err)
		}
		if err := os.Chtimes(path, tenDaysAgo, tenDaysAgo); err != nil {
			t.Fatalf("Failed to change file times: %v", err)
		}
	}

	logger, err := New(Config{LogDir: tempDir, Level: INFO, RetentionDays: 7})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Close()

	if _, err := os.Stat(oldLogPath); !os.IsNotExist(err) {
		t.Error("Old log file should have been deleted")
	}
	if _, err := os.Stat(foreignPath); err != nil {
		t.Error("Log files of other programs should be kept")
	}
	if _, err := os.Stat(todayLogPath(tempDir)); os.IsNotExist(err) {
		t.Error("Current log file should exist")
	}
}
