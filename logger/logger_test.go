package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}
	return out
}

func TestComponentLoggers(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, zerolog.DebugLevel)

	ForWorker().Info().Int("offset", 4).Msg("Completed page")
	ForExporter("csv").Warn().Msg("No listings to save")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)

	assert.Equal(t, "worker", entries[0]["component"])
	assert.Equal(t, float64(4), entries[0]["offset"])
	assert.Equal(t, "Completed page", entries[0]["message"])

	assert.Equal(t, "exporter", entries[1]["component"])
	assert.Equal(t, "csv", entries[1]["format"])
	assert.Equal(t, "warn", entries[1]["level"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, zerolog.InfoLevel)
	defer zerolog.SetGlobalLevel(zerolog.DebugLevel)

	Default.Debug().Msg("hidden")
	Info("shown %d", 2)
	assert.False(t, IsDebugEnabled())

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "shown 2", entries[0]["message"])

	SetVerbose(true)
	assert.True(t, IsDebugEnabled())
}

func TestLogError(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, zerolog.DebugLevel)

	LogError("exporter", errors.New("disk full"), "Failed to write %s", "out.json")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "exporter", entries[0]["component"])
	assert.Equal(t, "disk full", entries[0]["error"])
	assert.Equal(t, "Failed to write out.json", entries[0]["message"])
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, zerolog.DebugLevel)

	ForResolver().WithError(errors.New("hash rejected")).Warn().Msg("Phone number not available")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "resolver", entries[0]["component"])
	assert.Equal(t, "hash rejected", entries[0]["error"])
}

func TestGetLogLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	assert.Equal(t, zerolog.WarnLevel, getLogLevel(false))
	assert.Equal(t, zerolog.WarnLevel, getLogLevel(true), "LOG_LEVEL wins over the environment")

	t.Setenv("LOG_LEVEL", "not-a-level")
	assert.Equal(t, zerolog.InfoLevel, getLogLevel(false))

	t.Setenv("LOG_LEVEL", "")
	assert.Equal(t, zerolog.InfoLevel, getLogLevel(true))
	assert.Equal(t, zerolog.DebugLevel, getLogLevel(false))
}
