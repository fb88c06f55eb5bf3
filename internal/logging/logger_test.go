package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMultiHandlerFansOut(t *testing.T) {
	var a, b bytes.Buffer
	mh := NewMultiHandler(
		slog.NewJSONHandler(&a, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewJSONHandler(&b, &slog.HandlerOptions{Level: slog.LevelError}),
	)
	logger := slog.New(mh)

	logger.Info("routine", "player", "Notch")
	logger.Error("broken")

	assert.Contains(t, a.String(), "routine")
	assert.Contains(t, a.String(), "broken")
	assert.NotContains(t, b.String(), "routine")
	assert.Contains(t, b.String(), "broken")
}

func TestMultiHandlerEnabled(t *testing.T) {
	mh := NewMultiHandler(
		slog.NewJSONHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn}),
		slog.NewJSONHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}),
	)

	ctx := context.Background()
	assert.False(t, mh.Enabled(ctx, slog.LevelInfo))
	assert.True(t, mh.Enabled(ctx, slog.LevelWarn))
	assert.True(t, mh.Enabled(ctx, slog.LevelError))
}

func TestMultiHandlerWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	mh := NewMultiHandler(slog.NewJSONHandler(&buf, nil))
	logger := slog.New(mh.WithAttrs([]slog.Attr{slog.String("pool", "misc")}))

	logger.Info("hello")

	assert.Contains(t, buf.String(), `"pool":"misc"`)
}
