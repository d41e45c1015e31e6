package logger

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

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{" info ", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"fatal", LevelFatal},
		{"unknown", LevelInfo},
		{"", LevelInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.input), "ParseLevel(%q)", tt.input)
	}
}

func decode(t *testing.T, line string) Entry {
	t.Helper()
	var e Entry
	require.NoError(t, json.Unmarshal([]byte(line), &e), "line: %s", line)
	return e
}

func TestLogger_WritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Output: &buf, Level: LevelInfo})
	l.now = func() time.Time { return time.Date(2018, 4, 13, 9, 39, 21, 0, time.UTC) }

	l.Info("batch normalized", BatchID("b-1"), Matched(true), Position(3))
	l.Debug("hidden")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	e := decode(t, lines[0])
	assert.Equal(t, "2018-04-13T09:39:21Z", e.Timestamp)
	assert.Equal(t, "INFO", e.Level)
	assert.Equal(t, "batch normalized", e.Message)
	assert.Empty(t, e.Caller)
	assert.Equal(t, "b-1", e.Fields["batch_id"])
	assert.Equal(t, true, e.Fields["matched"])
	assert.Equal(t, float64(3), e.Fields["position"])
}

func TestLogger_WithAddsFields(t *testing.T) {
	var buf bytes.Buffer
	base := New(Options{Output: &buf, Level: LevelDebug, AddCaller: true})
	child := base.With(Component("normalizer"))

	child.Warn("cache unavailable", Err(errors.New("connection refused")))
	base.Info("plain")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	first := decode(t, lines[0])
	assert.Equal(t, "normalizer", first.Fields["component"])
	assert.Equal(t, "connection refused", first.Fields["error"])
	assert.Contains(t, first.Caller, "logger_test.go:")

	second := decode(t, lines[1])
	assert.NotContains(t, second.Fields, "component")
}

func TestNop_Discards(t *testing.T) {
	l := Nop()
	assert.False(t, l.Enabled(LevelFatal))
	l.Error("ignored")
}
