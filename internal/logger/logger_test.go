package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"photobooth-backend/internal/logger"
)

func TestNewWithWriter_ProductionJSON(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter("production", &buf)

	log.Debug().Msg("hidden")
	log.Info().Str("style", "Anime").Msg("style completed")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "photobooth-backend", line["service"])
	assert.Equal(t, "Anime", line["style"])
	assert.Contains(t, line, "time")
}

func TestNewWithWriter_DevelopmentConsole(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter("development", &buf)

	log.Debug().Msg("poll tick")

	assert.Contains(t, buf.String(), "poll tick")
	assert.False(t, json.Valid(buf.Bytes()))
}
