package services_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"photobooth-backend/internal/services"
)

func TestMaxRunDuration(t *testing.T) {
	settings := services.DefaultGenerationSettings()

	// 3 calls before polling + 5m poll + 3 downloads + 1s and 2s backoff
	want := 90*time.Second + 5*time.Minute + 90*time.Second + 3*time.Second
	assert.Equal(t, want, settings.MaxRunDuration(30*time.Second))
	assert.Greater(t, settings.MaxRunDuration(30*time.Second), settings.MaxPollWait+2*time.Minute)
}

func TestMaxRunDuration_LastBackoffRepeats(t *testing.T) {
	settings := services.DefaultGenerationSettings()
	settings.MaxPollWait = time.Minute
	settings.DownloadRetries = 5
	settings.DownloadBackoff = []time.Duration{time.Second, 2 * time.Second}

	// backoff between 5 attempts: 1s, 2s, 2s, 2s
	want := 3*10*time.Second + time.Minute + 5*10*time.Second + 7*time.Second
	assert.Equal(t, want, settings.MaxRunDuration(10*time.Second))
}
