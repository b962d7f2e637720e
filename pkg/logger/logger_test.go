package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ctxKey struct{}

func traceID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, LevelInfo, "bookstore", traceID)

	ctx := context.WithValue(context.Background(), ctxKey{}, "abc123")
	log.Debug(ctx, "hidden")
	log.Info(ctx, "order placed", "order_id", "o-1")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), buf.String())
	assert.Equal(t, "order placed", entry["msg"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "bookstore", entry["service"])
	assert.Equal(t, "o-1", entry["order_id"])
	assert.Equal(t, "abc123", entry["trace_id"])
}

func TestLogger_NoTraceID(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, LevelDebug, "bookstore", traceID)
	log.Error(context.Background(), "boom")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	_, ok := entry["trace_id"]
	assert.False(t, ok)
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, LevelWarn, l)

	l, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, LevelInfo, l)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}
