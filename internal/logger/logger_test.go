package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLoggerJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(Config{Level: "info", Format: "json"}, &buf)

	log.Info("hello", "key", "value")

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "{"), "expected JSON output, got %q", out)
	assert.Contains(t, out, `"msg":"hello"`)
	assert.Contains(t, out, `"key":"value"`)
}

func TestNewLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(Config{Level: "warn", Format: "text"}, &buf)

	log.Info("dropped")
	log.Warn("kept")

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "kept")
}

func TestNewLoggerBadLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(Config{Level: "nonsense", Format: "text"}, &buf)

	log.Debug("debug line")
	log.Info("info line")

	out := buf.String()
	assert.NotContains(t, out, "debug line")
	assert.Contains(t, out, "info line")
}
