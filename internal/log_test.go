package internal

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLogLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"ERROR":  LogLevelError,
		"warn":   LogLevelWarn,
		"":       LogLevelInfo,
		"bogus":  LogLevelInfo,
		" Debug": LogLevelDebug,
		"TRACE":  LogLevelTrace,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLogLevel(in), "ParseLogLevel(%q)", in)
	}
}

func TestLogLevelString(t *testing.T) {
	assert.Equal(t, "WARN", LogLevelWarn.String())
	assert.Equal(t, "TRACE", LogLevelTrace.String())
	assert.Equal(t, "INFO", LogLevel(42).String())
	for _, l := range []LogLevel{LogLevelError, LogLevelWarn, LogLevelInfo, LogLevelDebug, LogLevelTrace} {
		assert.Equal(t, l, ParseLogLevel(l.String()))
	}
}

func TestLogger_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogLevelWarn).WithOutput(&buf)

	logger.Error("e%d", 1)
	logger.Warn("w%d", 2)
	logger.Info("i%d", 3)
	logger.Debug("d%d", 4)

	out := buf.String()
	assert.Contains(t, out, "[ERROR] e1")
	assert.Contains(t, out, "[WARN] w2")
	assert.NotContains(t, out, "i3")
	assert.NotContains(t, out, "d4")
	assert.Equal(t, 2, strings.Count(out, "\n"))
}

func TestLogger_ComponentTags(t *testing.T) {
	var buf bytes.Buffer
	base := NewLogger(LogLevelInfo).WithOutput(&buf)

	base.Info("untagged")
	api := base.With("API")
	api.Info("visible %d", 2)
	api.With("Runs").Info("nested")

	out := buf.String()
	assert.Contains(t, out, "[INFO] untagged")
	assert.Contains(t, out, "[INFO] [API] visible 2")
	assert.Contains(t, out, "[INFO] [API.Runs] nested")
	assert.Equal(t, LogLevelInfo, api.GetLevel())
}

func TestLogger_WithDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	base := NewLogger(LogLevelInfo).WithOutput(&buf)
	_ = base.With("Selector")

	base.Info("plain")
	assert.NotContains(t, buf.String(), "[Selector]")
}
