package handlers_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"photobooth-backend/internal/models"
)

func TestCreateSession(t *testing.T) {
	api := newTestAPI(t, nil)
	event := api.seedEvent()

	w := api.do("POST", "/api/v1/events/"+event.ID.String()+"/sessions", nil, "")
	require.Equal(t, http.StatusCreated, w.Code)

	var body models.SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, event.ID.String(), body.EventID)
	assert.Empty(t, body.Images)
	assert.Len(t, api.store.sessions, 1)
}

func TestCreateSession_UnknownEvent(t *testing.T) {
	api := newTestAPI(t, nil)

	w := api.do("POST", "/api/v1/events/"+uuid.NewString()+"/sessions", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, api.store.sessions)
}

func TestGetSession(t *testing.T) {
	api := newTestAPI(t, nil)
	event := api.seedEvent()
	session := api.seedSession(event.ID)
	api.store.artifacts = []models.StyledArtifact{
		{ID: uuid.New(), SessionID: session.ID, Style: models.StyleAnime, StoragePath: "users/x/anime/a.jpg"},
		{ID: uuid.New(), SessionID: session.ID, Style: models.StyleOil},
		{ID: uuid.New(), SessionID: uuid.New(), Style: models.StyleDisney, StoragePath: "other"},
	}

	w := api.do("GET", "/api/v1/sessions/"+session.ID.String(), nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var body models.SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Images, 2)
	assert.Equal(t, "Anime", body.Images[0].Style)
	assert.True(t, body.Images[0].Completed)
	assert.Equal(t, "https://signed.test/users/x/anime/a.jpg", body.Images[0].URL)
	assert.Equal(t, "Oil", body.Images[1].Style)
	assert.False(t, body.Images[1].Completed)
	assert.Empty(t, body.Images[1].URL)
}

func TestGetSession_OtherUser(t *testing.T) {
	api := newTestAPI(t, nil)
	session := &models.Session{ID: uuid.New(), EventID: uuid.New(), UserID: uuid.New()}
	api.store.sessions[session.ID] = session

	w := api.do("GET", "/api/v1/sessions/"+session.ID.String(), nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
