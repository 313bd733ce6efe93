package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestJSONLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l, done := NewWithOptions(Options{Level: "warn", JSON: true, Out: zapcore.AddSync(&buf)})

	l.Info("hidden")
	l.Warn("shown", zap.String("user", "alice"))
	done()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, "alice", entry["user"])
	assert.Contains(t, entry, "ts")
}

func TestBadLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	l, done := NewWithOptions(Options{Level: "loud", JSON: true, Out: zapcore.AddSync(&buf)})
	l.Debug("dropped")
	l.Info("kept")
	done()

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")
}

func TestToWriter(t *testing.T) {
	var buf bytes.Buffer
	l, done := NewWithOptions(Options{Level: "debug", JSON: true, Out: zapcore.AddSync(&buf)})

	w := ToWriter(l, zapcore.WarnLevel)
	n, err := w.Write([]byte("slow query\n"))
	require.NoError(t, err)
	assert.Equal(t, len("slow query\n"), n)
	done()

	assert.Contains(t, buf.String(), `"msg":"slow query"`)
	assert.Contains(t, buf.String(), `"level":"warn"`)
}
