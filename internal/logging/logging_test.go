package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"DEBUG", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"unknown", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ParseLevel(tt.input), "input %q", tt.input)
	}
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	l, closeFn, err := New(Config{Level: "debug", Format: FormatJSON, Output: &buf, Name: "test"})
	require.NoError(t, err)
	defer closeFn()

	Component(l, "history").Debug("captured", zap.Int("step", 3))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "captured", line["msg"])
	assert.Equal(t, "test.history", line["logger"])
	assert.Equal(t, float64(3), line["step"])
}

func TestNewLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l, _, err := New(Config{Level: "warn", Output: &buf})
	require.NoError(t, err)

	l.Info("hidden")
	l.Warn("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "WARN")
}

func TestNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lab.log")
	l, closeFn, err := New(Config{Level: "info", File: path})
	require.NoError(t, err)

	l.Info("hello")
	require.NoError(t, l.Sync())
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "hello"))
}

func TestNewUnknownFormat(t *testing.T) {
	_, _, err := New(Config{Format: "xml"})
	assert.Error(t, err)
}

func TestComponentNil(t *testing.T) {
	assert.NotNil(t, Component(nil, "x"))
}
