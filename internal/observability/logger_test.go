package observability

import (
	"context"
	"log/slog"
	"testing"

	"github.com/ParthDhavan04/Disaster-info-backend/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestNewLogger_Level(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger := NewLogger(&config.Config{LogLevel: "warn", LogFormat: "text"})
	assert.False(t, logger.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, logger.Enabled(context.Background(), slog.LevelWarn))

	debug := NewLogger(&config.Config{LogLevel: "debug", LogFormat: "json"})
	assert.True(t, debug.Enabled(context.Background(), slog.LevelDebug))
}
