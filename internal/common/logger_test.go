package common

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInitLoggerFileAndConsoleWriters(t *testing.T) {
	config := DefaultConfig()
	config.Storage.DataDir = t.TempDir()
	config.Logging.Level = "debug"
	config.Logging.Output = []string{"stdout", "file"}

	logger := InitLogger(config)
	if logger == nil {
		t.Fatal("Expected a logger instance")
	}
	logger.Debug().Str("check", "writers").Msg("Logger initialized")

	logsDir := filepath.Join(config.Storage.DataDir, "logs")
	if _, err := os.Stat(logsDir); err != nil {
		t.Errorf("Expected logs directory to be created: %v", err)
	}
}

func TestInitLoggerDefaultsToConsole(t *testing.T) {
	config := DefaultConfig()
	config.Storage.DataDir = t.TempDir()
	config.Logging.Output = nil

	logger := InitLogger(config)
	if logger == nil {
		t.Fatal("Expected a logger instance")
	}

	// InitLogger replaces the global instance
	if GetLogger() == nil {
		t.Error("Expected global logger after init")
	}
}

func TestPrintBanner(t *testing.T) {
	PrintBanner("1.0.0-test")
}
