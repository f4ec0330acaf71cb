package logger_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-formbuilder/internal/logger"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":        slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		" warn ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range cases {
		got, err := logger.ParseLevel(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}
	_, err := logger.ParseLevel("trace")
	require.Error(t, err)
}

func TestSetup_JSON(t *testing.T) {
	defaultLogger := slog.Default()
	t.Cleanup(func() { slog.SetDefault(defaultLogger) })

	var buf bytes.Buffer
	l, err := logger.Setup(logger.Config{Level: "warn", Format: "json", Output: &buf})
	require.NoError(t, err)
	require.Same(t, l, logger.L())

	l.Info("hidden")
	l.Warn("shown", "key", "value")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &record))
	require.Equal(t, "shown", record["msg"])
	require.Equal(t, "value", record["key"])
	require.True(t, strings.HasSuffix(record["time"].(string), "Z"))
}

func TestSetup_Errors(t *testing.T) {
	_, err := logger.Setup(logger.Config{Format: "xml"})
	require.Error(t, err)
	_, err = logger.Setup(logger.Config{Level: "loud"})
	require.Error(t, err)
}
