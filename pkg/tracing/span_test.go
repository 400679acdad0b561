package tracing

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpanTree(t *testing.T) {
	ctx, root := StartSpan(context.Background(), "index_build", "gen-1")
	_, child := StartChildSpan(ctx, "tokenize")
	child.SetAttr("documents", 3)
	child.End()
	root.End()

	require.Len(t, root.Children, 1)
	assert.Equal(t, "gen-1", child.TraceID)
	assert.Same(t, root, SpanFromContext(ctx))
	assert.False(t, root.EndTime.IsZero())

	first := root.EndTime
	root.End()
	assert.Equal(t, first, root.EndTime, "second End is a no-op")
}

func TestStartChildSpan_WithoutParent(t *testing.T) {
	_, span := StartChildSpan(context.Background(), "orphan")
	assert.Empty(t, span.TraceID)
	assert.Nil(t, SpanFromContext(context.Background()))
}

func TestLog(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	ctx, root := StartSpan(context.Background(), "index_build", "gen-2")
	_, child := StartChildSpan(ctx, "invert")
	child.SetAttr("terms", 42)
	child.End()
	root.End()
	root.Log(logger)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "span=index_build")
	assert.Contains(t, lines[1], "span=invert")
	assert.Contains(t, lines[1], "depth=1")
	assert.Contains(t, lines[1], "terms=42")
}

func TestPhases(t *testing.T) {
	ctx, root := StartSpan(context.Background(), "index_build", "gen-3")
	_, tok := StartChildSpan(ctx, "tokenize")
	tok.End()
	_, inv := StartChildSpan(ctx, "invert")
	inv.End()
	root.End()

	phases := root.Phases()
	require.Len(t, phases, 2)
	assert.Equal(t, "tokenize", phases[0].Name)
	assert.Equal(t, "invert", phases[1].Name)
	assert.Empty(t, tok.Phases())
}
