package internal

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_ProductionEmitsJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "production", "info")
	logger.Info("started", "port", 8080)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "started", record["msg"])
	assert.Equal(t, "jejak", record["service"])
}

func TestNewLogger_DevelopmentEmitsText(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "development", "debug")
	logger.Debug("connecting to database")

	out := buf.String()
	assert.Contains(t, out, "connecting to database")
	assert.False(t, strings.HasPrefix(strings.TrimSpace(out), "{"))
}

func TestNewLogger_UnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "production", "chatty")

	logger.Debug("hidden")
	assert.Empty(t, buf.String())

	logger.Info("visible")
	assert.Contains(t, buf.String(), "visible")
}
