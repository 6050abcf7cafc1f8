package database_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"photobooth-backend/internal/database"
)

func TestMigrationNames_Ordered(t *testing.T) {
	names, err := database.MigrationNames()
	require.NoError(t, err)

	assert.Equal(t, []string{
		"001_create_events.sql",
		"002_create_sessions.sql",
		"003_create_styled_images.sql",
		"004_create_shares.sql",
	}, names)
}

func TestStyledImagePathUpdate_GuardsEmptyPath(t *testing.T) {
	assert.Contains(t, database.UpdateStyledImagePath, "storage_path = ''")
}
