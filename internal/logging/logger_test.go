package logging_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/petra-dev/upwatch/internal/logging"
)

func TestNew_CreatesLogDirAndWrites(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")

	logger, err := logging.New(dir, "info")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("hello")
	logger.Sync()

	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("expected log dir to exist: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "upwatch.log"))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if len(data) == 0 {
		t.Error("expected log output in file")
	}
}

func TestNew_BadLevelFallsBackToInfo(t *testing.T) {
	logger, err := logging.New(t.TempDir(), "loud")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	// Should not panic and should accept info-level writes.
	logger.Info("still works")
}
