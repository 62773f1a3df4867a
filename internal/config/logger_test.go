package config

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_Production(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, "production")

	assert.False(t, logger.Enabled(context.Background(), slog.LevelDebug))
	logger.Info("face enrolled", "person_id", "alice")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "face enrolled", entry["msg"])
	assert.Equal(t, "facematch", entry["service"])
	assert.Equal(t, "alice", entry["person_id"])
}

func TestNewLogger_Development(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, "development")

	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))
	logger.Debug("detector ready")

	assert.Contains(t, buf.String(), "msg=\"detector ready\"")
	assert.Contains(t, buf.String(), "source=")
}
