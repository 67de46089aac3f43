package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// records decodes one JSON object per line.
func records(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec), line)
		out = append(out, rec)
	}
	return out
}

func TestJSONLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewJSONLogger(&buf, "warn")
	ctx := context.Background()

	log.Debug(ctx, "connecting", "driver", "memory")
	log.Info(ctx, "listening", "addr", ":8080")
	log.Warn(ctx, "slow query", "collection", "users")
	log.Error(ctx, "request failed", "status", 500)

	recs := records(t, &buf)
	require.Len(t, recs, 2)
	assert.Equal(t, "WARN", recs[0]["level"])
	assert.Equal(t, "slow query", recs[0]["msg"])
	assert.Equal(t, "users", recs[0]["collection"])
	assert.Equal(t, "ERROR", recs[1]["level"])
	assert.Equal(t, float64(500), recs[1]["status"])
}

func TestSlogLogger_WithAndRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := NewJSONLogger(&buf, "debug").With("component", "httpapi")

	ctx := WithRequestID(context.Background(), "req-42")
	log.Info(ctx, "request", "path", "/api/bodyPart")
	log.Debug(context.Background(), "no id")

	recs := records(t, &buf)
	require.Len(t, recs, 2)
	assert.Equal(t, "httpapi", recs[0]["component"])
	assert.Equal(t, "req-42", recs[0]["request_id"])
	assert.Equal(t, "/api/bodyPart", recs[0]["path"])
	assert.NotContains(t, recs[1], "request_id")
	assert.Equal(t, "httpapi", recs[1]["component"])

	assert.Empty(t, RequestID(context.Background()))
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop().With("a", 1).Error(context.Background(), "dropped")
	})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" INFO ", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}
