package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"nonsense", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.in))
		})
	}
}

func TestInitializeWithWriter(t *testing.T) {
	defer Initialize("info", false)

	t.Run("json output carries component", func(t *testing.T) {
		var buf bytes.Buffer
		InitializeWithWriter(&buf, "debug", true)

		Component("store").Info("saved", "messages", 3)

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "store", entry["component"])
		assert.Equal(t, "saved", entry["msg"])
		assert.EqualValues(t, 3, entry["messages"])
	})

	t.Run("level filters lower records", func(t *testing.T) {
		var buf bytes.Buffer
		InitializeWithWriter(&buf, "error", false)

		Log.Info("hidden")
		assert.Empty(t, buf.String())

		Log.Error("visible")
		assert.Contains(t, buf.String(), "visible")
	})
}
