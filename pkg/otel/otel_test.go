package otel

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookstore/pkg/logger"
)

func TestTracing(t *testing.T) {
	log := logger.New(io.Discard, logger.LevelInfo, "test", GetTraceID)
	tp, shutdown, err := InitTracing(log, Config{ServiceName: "test", Probability: 1})
	require.NoError(t, err)
	defer shutdown(context.Background())

	assert.Empty(t, GetTraceID(context.Background()))

	ctx := InjectTracing(context.Background(), tp.Tracer("test"))
	ctx, span := AddSpan(ctx, "work")
	defer span.End()
	assert.Len(t, GetTraceID(ctx), 32)
}

func TestAddSpan_WithoutTracer(t *testing.T) {
	ctx, span := AddSpan(context.Background(), "work")
	defer span.End()
	assert.Empty(t, GetTraceID(ctx))
}

func TestExtractTracing(t *testing.T) {
	log := logger.New(io.Discard, logger.LevelInfo, "test", GetTraceID)
	tp, shutdown, err := InitTracing(log, Config{ServiceName: "test", Probability: 1})
	require.NoError(t, err)
	defer shutdown(context.Background())

	const traceID = "4bf92f3577b34da6a3ce929d0e0e4736"
	h := http.Header{}
	h.Set("traceparent", "00-"+traceID+"-00f067aa0ba902b7-01")

	ctx := ExtractTracing(context.Background(), h)
	ctx = InjectTracing(ctx, tp.Tracer("test"))
	ctx, span := AddSpan(ctx, "work")
	defer span.End()
	assert.Equal(t, traceID, GetTraceID(ctx))

	ctx = ExtractTracing(context.Background(), http.Header{})
	assert.Empty(t, GetTraceID(ctx))
}
