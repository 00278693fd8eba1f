package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonLogger(buf *bytes.Buffer, level LogLevel) *StructuredLogger {
	return NewLogger(&LoggerConfig{Level: level, Format: "json", Output: buf})
}

func lines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestParseLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"debug": LogLevelDebug, "INFO": LogLevelInfo, "": LogLevelInfo,
		"warning": LogLevelWarn, "warn": LogLevelWarn, " error ": LogLevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestStructuredLogger_KeyValues(t *testing.T) {
	var buf bytes.Buffer
	logger := jsonLogger(&buf, LogLevelInfo).WithComponent("engine").WithSession("s1").WithContext("orchestra", "stars")

	logger.Info("session.start", "rounds", 12)
	logger.Debug("hidden")

	entries := lines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "session.start", entries[0]["msg"])
	assert.Equal(t, "engine", entries[0]["component"])
	assert.Equal(t, "s1", entries[0]["session_id"])
	assert.Equal(t, "stars", entries[0]["orchestra"])
	assert.EqualValues(t, 12, entries[0]["rounds"])
}

func TestStructuredLogger_WithDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := jsonLogger(&buf, LogLevelInfo)
	_ = parent.WithContext("k", "v").WithComponent("child")

	parent.Info("plain")
	entries := lines(t, &buf)
	require.Len(t, entries, 1)
	assert.NotContains(t, entries[0], "k")
	assert.NotContains(t, entries[0], "component")
}

func TestStructuredLogger_DomainHelpers(t *testing.T) {
	var buf bytes.Buffer
	logger := jsonLogger(&buf, LogLevelDebug)

	logger.LogCapabilityCall("critic", 2, time.Millisecond, errors.New("timeout"))
	logger.LogCapabilityCall("critic", 3, time.Millisecond, nil)
	logger.LogRound(4, "critic", time.Second)
	logger.LogOutcome("failed", 4, "cancelled")
	logger.LogOutcome("completed_normally", 5, "")

	entries := lines(t, &buf)
	require.Len(t, entries, 5)

	assert.Equal(t, "WARN", entries[0]["level"])
	assert.Equal(t, "timeout", entries[0]["error"])
	assert.Equal(t, false, entries[0]["success"])

	assert.Equal(t, "DEBUG", entries[1]["level"])
	assert.Equal(t, true, entries[1]["success"])

	assert.Equal(t, "round completed", entries[2]["msg"])
	assert.EqualValues(t, 4, entries[2]["round"])

	assert.Equal(t, "cancelled", entries[3]["failure_reason"])
	assert.Equal(t, "INFO", entries[4]["level"])
}

func TestStructuredLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LogLevelWarn, Format: "text", Output: &buf})
	logger.Info("dropped")
	logger.ErrorWithStack(errors.New("boom"), "failed", "agent", "a")

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "msg=failed")
	assert.Contains(t, out, "agent=a")
	assert.Contains(t, out, "stack_trace=")
}

func TestNoOpAndAdapter(t *testing.T) {
	var _ Logger = NoOpLogger{}
	var _ Logger = (*StructuredLogger)(nil)
	var _ Logger = NewDefaultSlogLogger()
	NoOpLogger{}.Error("ignored", "k", "v")
}
