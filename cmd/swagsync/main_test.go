package main

import (
	"context"
	"log/slog"
	"testing"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		input   string
		enabled slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		// Unknown levels fall back to info.
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			logger := newLogger(tt.input)
			if !logger.Enabled(context.Background(), tt.enabled) {
				t.Errorf("newLogger(%q) should log at %v", tt.input, tt.enabled)
			}
			if logger.Enabled(context.Background(), tt.enabled-4) {
				t.Errorf("newLogger(%q) should not log below %v", tt.input, tt.enabled)
			}
		})
	}
}
