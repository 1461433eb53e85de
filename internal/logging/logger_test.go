package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggerKeyValues(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "platerec")

	l.Info("plate recognized", "plate", "AB123", "chars", 5)
	assert.Contains(t, buf.String(), "[platerec] ")
	assert.Contains(t, buf.String(), "[INFO] plate recognized plate=AB123 chars=5")
}

func TestLoggerDebugGate(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "x")

	l.Debug("hidden")
	assert.Empty(t, buf.String())

	l.SetDebug(true)
	l.Debug("shown", "k", 1)
	assert.Contains(t, buf.String(), "[DEBUG] shown k=1")
}

func TestLoggerOddKeyValues(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "x").Warn("dangling", "key")
	assert.Contains(t, buf.String(), "[WARN] dangling\n")
}

func TestNilLogger(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() { l.Error("ignored") })
}
