package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	logger, closer, err := New(Options{Level: "debug", File: path})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Info().Str("case", "Case_A").Msg("case completed")
	if closer == nil {
		t.Fatal("closer should own the log file")
	}
	if err := closer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("could not read log file: %v", err)
	}
	if !strings.Contains(string(data), "case completed") {
		t.Errorf("log file missing message, got:\n%s", data)
	}
}

func TestNewLevelFilter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	logger, closer, err := New(Options{File: path})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Debug().Msg("below the default level")
	closer.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("could not read log file: %v", err)
	}
	if strings.Contains(string(data), "below the default level") {
		t.Error("debug output should be filtered at the default info level")
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, _, err := New(Options{Level: "chatty"}); err == nil {
		t.Error("New() with an unknown level should fail")
	}
}

func TestNewNoFile(t *testing.T) {
	_, closer, err := New(Options{Level: "info"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if closer != nil {
		t.Error("closer should be nil without a log file")
	}
}
