package framework

import (
	"bytes"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func newTestLevelLogger(level Level) (*LevelLogger, *bytes.Buffer) {
	color.NoColor = true
	var buf bytes.Buffer
	l := NewLevelLogger(&buf, level)
	l.now = func() time.Time { return time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC) }
	return l, &buf
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelError, ParseLevel("error"))
	assert.Equal(t, LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, LevelInfo, ParseLevel("info"))
	assert.Equal(t, LevelDebug, ParseLevel(" Debug "))
	assert.Equal(t, LevelInfo, ParseLevel("verbose"))
	assert.Equal(t, LevelInfo, ParseLevel(""))
}

func TestLevelLoggerFormat(t *testing.T) {
	l, buf := newTestLevelLogger(LevelInfo)
	l.Infof("hello %s", "world")
	assert.Equal(t, "[INFO] 2024-03-01T12:30:00.000Z - hello world\n", buf.String())
}

func TestLevelLoggerThreshold(t *testing.T) {
	l, buf := newTestLevelLogger(LevelWarn)
	l.Debugf("d")
	l.Infof("i")
	l.Warnf("w")
	l.Errorf("e")
	assert.NotContains(t, buf.String(), "[DEBUG]")
	assert.NotContains(t, buf.String(), "[INFO]")
	assert.Contains(t, buf.String(), "[WARN]")
	assert.Contains(t, buf.String(), "[ERROR]")
}

func TestLevelLoggerAsPlainLogger(t *testing.T) {
	l, buf := newTestLevelLogger(LevelInfo)
	var logger Logger = l
	logger.Println("a", "b")
	l.At(LevelDebug).Printf("hidden")
	assert.Equal(t, "[INFO] 2024-03-01T12:30:00.000Z - a b\n", buf.String())
}

func TestFormatAPICall(t *testing.T) {
	assert.Equal(t, "API GET /users - 200 (15ms)", FormatAPICall("get", "/users", 200, 15*time.Millisecond))
	assert.Equal(t, "API POST /users", FormatAPICall("POST", "/users", 0, 0))
}

func TestLogScenarioStatus(t *testing.T) {
	l, buf := newTestLevelLogger(LevelInfo)
	l.LogScenarioStatus("Get all users", StepFailed)
	assert.Equal(t, "[INFO] 2024-03-01T12:30:00.000Z - FAIL Get all users\n", buf.String())
}

func TestCapturingLogger(t *testing.T) {
	var l CapturingLogger
	l.Printf("one %d", 1)
	l.Println("two")
	out := l.Output()
	if assert.Len(t, out, 2) {
		assert.Equal(t, "one 1", out[0].Message)
		assert.Equal(t, "two", out[1].Message)
	}
	assert.Contains(t, out.ToString("> "), "> [")
}

func TestCapabilitiesForMode(t *testing.T) {
	assert.Equal(t, Capabilities{CapabilityAPI}, CapabilitiesForMode("api"))
	assert.Equal(t, Capabilities{CapabilityUI}, CapabilitiesForMode("UI"))
	assert.True(t, CapabilitiesForMode("combined").Has(CapabilityUI))
	assert.True(t, CapabilitiesForMode("auto").Has(CapabilityAPI))
}

func TestIsStrictMode(t *testing.T) {
	assert.True(t, IsStrictMode(ModeUI))
	assert.True(t, IsStrictMode("Combined"))
	assert.False(t, IsStrictMode(ModeAuto))
	assert.False(t, IsStrictMode(ModeAPI))
	assert.False(t, IsStrictMode(""))
}
