package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew_FormatAutoDetection(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		wantJSON    bool
	}{
		{name: "production uses json", environment: "production", wantJSON: true},
		{name: "development uses console", environment: "development"},
		{name: "empty uses console", environment: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := New(Config{Level: slog.LevelInfo, Environment: tt.environment, Writer: &buf})
			logger.Info("sync complete")

			if tt.wantJSON {
				assert.Contains(t, buf.String(), `"msg":"sync complete"`)
			} else {
				assert.Contains(t, buf.String(), colorBold+"sync complete"+colorReset)
			}
		})
	}
}

func TestNew_ExplicitFormatWins(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: "json", Environment: "development", Writer: &buf})
	logger.Info("test")

	assert.Contains(t, buf.String(), `"msg":"test"`)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.input))
		})
	}
}

func TestConsoleHandler_Enabled(t *testing.T) {
	h := NewConsoleHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn})

	assert.False(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, h.Enabled(context.Background(), slog.LevelWarn))
	assert.True(t, h.Enabled(context.Background(), slog.LevelError))

	// Nil options default to info.
	assert.True(t, NewConsoleHandler(&bytes.Buffer{}, nil).Enabled(context.Background(), slog.LevelInfo))
}

func TestConsoleHandler_AttrsAndGroups(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewConsoleHandler(&buf, nil)).
		With("component", "kindle").
		WithGroup("sync")
	log.Info("done", "added", 2)

	out := buf.String()
	assert.Contains(t, out, "component=kindle")
	assert.Contains(t, out, "sync.added=2")
	assert.Contains(t, out, "INF")
}

func TestFormatValue(t *testing.T) {
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "2025-03-01T12:00:00Z", formatValue(slog.TimeValue(ts)))
	assert.Equal(t, "30s", formatValue(slog.DurationValue(30*time.Second)))
	assert.Equal(t, "42", formatValue(slog.IntValue(42)))
}

func TestLogger_ComponentAndError(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: "json", Writer: &buf})

	logger.Component("stats").Info("computed")
	logger.WithError(errors.New("boom")).Error("failed")

	out := buf.String()
	assert.Contains(t, out, `"component":"stats"`)
	assert.Contains(t, out, `"error":"boom"`)
}
