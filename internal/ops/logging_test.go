package ops

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Quad/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for name, want := range tests {
		assert.Equal(t, want, ParseLevel(name), name)
	}
}

func TestNewLoggerWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(config.Logging{Level: "info", Format: "json"}, &buf)

	logger.Debug("hidden")
	WithComponent(logger, "feed").Info("merged", "post", "p1")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var record map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &record))
	assert.Equal(t, "merged", record["msg"])
	assert.Equal(t, "feed", record["component"])
	assert.Equal(t, "p1", record["post"])

	ts, ok := record["time"].(string)
	require.True(t, ok)
	_, err := time.Parse(time.RFC3339, ts)
	assert.NoError(t, err)
}

func TestNewLoggerWithWriter_TextDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(config.Logging{Level: "debug", Format: "text"}, &buf)

	logger.Debug("reconciled", "subject", "post:p1")

	out := buf.String()
	assert.Contains(t, out, "level=DEBUG")
	assert.Contains(t, out, "msg=reconciled")
	assert.Contains(t, out, "subject=post:p1")
}
