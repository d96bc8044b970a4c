package log

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(zapcore.AddSync(&buf))
	t.Cleanup(func() {
		SetLevel(LevelInfo)
		SetFormat("console")
	})
	return &buf
}

func TestInfoWritesKeyValues(t *testing.T) {
	buf := capture(t)

	Info("schedule generated", "slots", 12)

	out := buf.String()
	assert.Contains(t, out, "INFO")
	assert.Contains(t, out, "schedule generated")
	assert.Contains(t, out, "slots")
	assert.Contains(t, out, "12")
}

func TestDebugFilteredAtInfo(t *testing.T) {
	buf := capture(t)
	SetLevel(LevelInfo)

	Debug("hidden")
	assert.Empty(t, buf.String())

	SetLevel(LevelDebug)
	Debug("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestErrorIncludesErr(t *testing.T) {
	buf := capture(t)

	Error("load failed", errors.New("boom"), "path", "/tmp/x")

	out := buf.String()
	assert.Contains(t, out, "ERROR")
	assert.Contains(t, out, "boom")
	assert.Contains(t, out, "/tmp/x")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel("WARNING"))
	assert.Equal(t, LevelError, ParseLevel("error"))
	assert.Equal(t, LevelInfo, ParseLevel("nonsense"))
}
