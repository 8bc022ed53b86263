package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNamedUsesGlobalLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	Set(zap.New(core))
	defer Set(nil)

	Named("bridge").Info("write failed", zap.String("session", "s1"))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].LoggerName != "bridge" {
		t.Errorf("LoggerName = %q, want bridge", entries[0].LoggerName)
	}
	if entries[0].ContextMap()["session"] != "s1" {
		t.Errorf("missing session field: %v", entries[0].ContextMap())
	}
}

func TestSetNilFallsBackToNop(t *testing.T) {
	Set(nil)
	if L() == nil {
		t.Fatal("L() returned nil after Set(nil)")
	}
	// Must not panic
	Named("x").Error("ignored")
}

func TestInit(t *testing.T) {
	defer Set(nil)
	for _, verbose := range []bool{false, true} {
		if err := Init(verbose); err != nil {
			t.Fatalf("Init(%v) error = %v", verbose, err)
		}
		if !L().Core().Enabled(zap.InfoLevel) {
			t.Errorf("Init(%v): info level should be enabled", verbose)
		}
		if got := L().Core().Enabled(zap.DebugLevel); got != verbose {
			t.Errorf("Init(%v): debug enabled = %v", verbose, got)
		}
	}
}

func TestInitFile(t *testing.T) {
	defer Set(nil)
	path := filepath.Join(t.TempDir(), "tui.log")

	if err := InitFile(path, false); err != nil {
		t.Fatalf("InitFile() error = %v", err)
	}
	Named("tui").Warn("rename failed")
	Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "rename failed") {
		t.Errorf("log file missing entry: %q", data)
	}
}
