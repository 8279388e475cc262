package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelWarn)

	logger.Info("dropped")
	logger.Warn("kept", "n", 1)

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "level=WARN msg=kept n=1")
}

func TestDefault(t *testing.T) {
	ctx := context.Background()
	logger := Default()
	assert.False(t, logger.Enabled(ctx, slog.LevelWarn))
	assert.True(t, logger.Enabled(ctx, slog.LevelError))
}
