package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/aretw0/foundry/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_FansOutToExtraHandlers(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(slog.LevelError, logging.NewJSONHandler(&buf, slog.LevelDebug))

	logger.Debug("step executed", "opcode", "plan", "error", "boom")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "step executed", record["msg"])
	assert.Equal(t, "plan", record["opcode"])
	assert.Equal(t, "boom", record["err"])
	assert.NotContains(t, record, "error")
}

func TestTextHandler_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(logging.NewTextHandler(&buf, slog.LevelWarn))

	logger.Info("hidden")
	assert.Empty(t, buf.String())

	logger.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewNop(t *testing.T) {
	assert.NotPanics(t, func() {
		logging.NewNop().Error("discarded")
	})
}
