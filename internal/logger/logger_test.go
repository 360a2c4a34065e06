package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lastLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &payload))
	return payload
}

func TestLoggerIncludesStackAndService(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "planner", "debug")
	log.Error().Stack().Err(errors.New("boom")).Msg("something failed")

	payload := lastLine(t, &buf)
	assert.Equal(t, "planner", payload["service"])
	assert.Equal(t, "error", payload["level"])
	assert.Contains(t, payload, "stack")
	assert.Contains(t, payload, "time")
}

func TestLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "planner", "warn")
	log.Info().Msg("hidden")
	assert.Zero(t, buf.Len())

	log = NewWithWriter(&buf, "planner", "nonsense")
	log.Info().Msg("shown")
	assert.Equal(t, "shown", lastLine(t, &buf)["message"])
}
