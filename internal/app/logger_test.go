package app

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelLogger_FiltersBelowMinimum(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogLevelWarn, &buf)

	logger.Debug("hidden %d", 1)
	logger.Info("hidden %d", 2)
	logger.Warn("recovered execution %s", "e1")
	logger.Error("save failed: %v", "disk full")

	assert.Equal(t, "WARN: recovered execution e1\nERROR: save failed: disk full\n", buf.String())
}

func TestLevelLogger_SetLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogLevelError, &buf)
	logger.Info("before")

	logger.SetLevel(LogLevelDebug)
	logger.Debug("after")

	assert.Equal(t, LogLevelDebug, logger.GetLevel())
	assert.Equal(t, "DEBUG: after\n", buf.String())
}

func TestLogLevelFromString(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LogLevelDebug},
		{" INFO ", LogLevelInfo},
		{"warning", LogLevelWarn},
		{"error", LogLevelError},
		{"fatal", LogLevelError},
		{"", LogLevelWarn},
		{"verbose", LogLevelWarn},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LogLevelFromString(tt.in), tt.in)
	}
}

func TestSetLogger_IgnoresNil(t *testing.T) {
	prev := GetLogger()
	defer SetLogger(prev)

	SetLogger(NopLogger{})
	SetLogger(nil)
	assert.Equal(t, NopLogger{}, GetLogger())
}
