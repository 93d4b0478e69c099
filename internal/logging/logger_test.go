package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLogger_CreatesDirAndLogger(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")
	log, err := NewLogger(dir, "debug")
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}

	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("log dir missing: %v", err)
	}

	log.Debug("test_message_from_logging_test")
	_ = log.Sync()

	b, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(b), `"msg":"test_message_from_logging_test"`) {
		t.Fatalf("debug entry missing from %q", b)
	}
}

func TestNewLogger_UnknownLevelFallsBackToInfo(t *testing.T) {
	dir := t.TempDir()
	log, err := NewLogger(dir, "chatty")
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	log.Debug("hidden_debug")
	log.Info("visible_info")
	_ = log.Sync()

	b, _ := os.ReadFile(filepath.Join(dir, FileName))
	if strings.Contains(string(b), "hidden_debug") || !strings.Contains(string(b), "visible_info") {
		t.Fatalf("unexpected log contents %q", b)
	}
}
