package main

import (
	"path/filepath"
	"testing"

	"github.com/iwvelando/loan-review/internal/config"
)

func TestInitializeLogger(t *testing.T) {
	tests := []struct {
		name      string
		logging   config.LoggingConfig
		override  string
		expectErr bool
	}{
		{name: "Defaults", logging: config.LoggingConfig{}},
		{name: "Console debug", logging: config.LoggingConfig{Level: "debug", Format: "console"}},
		{name: "Warning alias", logging: config.LoggingConfig{Level: "warning"}},
		{name: "Override wins", logging: config.LoggingConfig{Level: "bogus"}, override: "error"},
		{name: "Invalid level", logging: config.LoggingConfig{Level: "trace"}, expectErr: true},
		{name: "Invalid format", logging: config.LoggingConfig{Format: "xml"}, expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := initializeLogger(tt.logging, tt.override)
			if tt.expectErr {
				if err == nil {
					t.Errorf("initializeLogger() expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("initializeLogger() unexpected error = %v", err)
			}
			if logger == nil {
				t.Fatalf("initializeLogger() returned nil logger")
			}
		})
	}
}

func TestInitializeLoggerOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "loan-review.log")

	logger, err := initializeLogger(config.LoggingConfig{OutputFile: path}, "")
	if err != nil {
		t.Fatalf("initializeLogger() unexpected error = %v", err)
	}
	logger.Info("written to file")
	_ = logger.Sync()
}
