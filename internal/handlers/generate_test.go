package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"photobooth-backend/internal/apperrors"
	"photobooth-backend/internal/models"
	"photobooth-backend/internal/services"
)

type fakeStyleGenerator struct {
	calls  []services.GenerateInput
	result *services.GenerateResult
	err    error
}

func (f *fakeStyleGenerator) GenerateStyledPhotos(ctx context.Context, in services.GenerateInput) (*services.GenerateResult, error) {
	f.calls = append(f.calls, in)
	return f.result, f.err
}

func TestGenerate(t *testing.T) {
	eventID, sessionID := uuid.New(), uuid.New()
	animeID, oilID := uuid.New(), uuid.New()
	generator := &fakeStyleGenerator{result: &services.GenerateResult{
		ImageID:   "init-1",
		EventID:   eventID,
		SessionID: sessionID,
		Outcomes: []services.StyleOutcome{
			{
				Style: models.StyleAnime, ArtifactID: animeID, GenerationID: "gen-1",
				UpstreamURL: "https://cdn.test/1.png", StoragePath: "users/u/anime/a.jpg",
				SignedURL: "https://signed.test/a.jpg", HasLogo: true,
			},
			{
				Style: models.StyleOil, ArtifactID: oilID, Stage: services.StagePoll,
				Err: apperrors.New(apperrors.KindTimeout, "generation gen-2 did not finish within 5m0s"),
			},
		},
	}}
	api := newTestAPI(t, generator)
	image := pngBytes(t, 30, 20)

	body, contentType := multipartBody(t, map[string]string{
		"eventId":   eventID.String(),
		"sessionId": sessionID.String(),
	}, "image", image)
	w := api.do("POST", "/api/v1/generate", body, contentType)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	require.Len(t, generator.calls, 1)
	assert.Equal(t, api.userID, generator.calls[0].UserID)
	assert.Equal(t, eventID, generator.calls[0].EventID)
	assert.Equal(t, sessionID, generator.calls[0].SessionID)
	assert.Equal(t, image, generator.calls[0].Image)

	var resp models.GenerateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "init-1", resp.ImageID)
	assert.Equal(t, sessionID.String(), resp.SessionID)
	assert.Equal(t, eventID.String(), resp.EventID)
	require.Len(t, resp.Images, 2)

	anime := resp.Images[0]
	assert.Equal(t, "Anime", anime.Style)
	assert.Equal(t, animeID.String(), anime.ArtifactID)
	assert.Equal(t, "users/u/anime/a.jpg", anime.StorageURL)
	assert.Equal(t, "https://signed.test/a.jpg", anime.PublicURL)
	assert.Equal(t, "gen-1", anime.GenerationID)
	assert.Equal(t, "https://cdn.test/1.png", anime.UpstreamURL)
	assert.True(t, anime.HasLogo)
	assert.True(t, anime.Success)
	assert.Empty(t, anime.Error)

	oil := resp.Images[1]
	assert.False(t, oil.Success)
	assert.Equal(t, "TIMEOUT_ERROR", oil.ErrorCode)
	assert.Contains(t, oil.Error, "did not finish")
	assert.Empty(t, oil.StorageURL)
}

func TestGenerate_FormValidation(t *testing.T) {
	image := pngBytes(t, 10, 10)
	tests := []struct {
		name    string
		fields  map[string]string
		file    []byte
		message string
	}{
		{
			name:    "missing event",
			fields:  map[string]string{"sessionId": uuid.NewString()},
			file:    image,
			message: "eventId is required",
		},
		{
			name:    "bad session",
			fields:  map[string]string{"eventId": uuid.NewString(), "sessionId": "abc"},
			file:    image,
			message: "sessionId is required",
		},
		{
			name:    "missing image",
			fields:  map[string]string{"eventId": uuid.NewString(), "sessionId": uuid.NewString()},
			message: "image file is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			generator := &fakeStyleGenerator{}
			api := newTestAPI(t, generator)

			fileField := ""
			if tt.file != nil {
				fileField = "image"
			}
			body, contentType := multipartBody(t, tt.fields, fileField, tt.file)
			w := api.do("POST", "/api/v1/generate", body, contentType)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			resp := decodeError(t, w)
			assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
			assert.Equal(t, tt.message, resp.Error.Message)
			assert.Empty(t, generator.calls)
		})
	}
}

func TestGenerate_PreconditionErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{err: apperrors.NotFound("session not found"), status: http.StatusNotFound, code: "NOT_FOUND"},
		{err: apperrors.Validation("unsupported image type"), status: http.StatusBadRequest, code: "VALIDATION_ERROR"},
		{err: apperrors.New(apperrors.KindInternal, "failed to load event"), status: http.StatusInternalServerError, code: "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			api := newTestAPI(t, &fakeStyleGenerator{err: tt.err})
			body, contentType := multipartBody(t, map[string]string{
				"eventId":   uuid.NewString(),
				"sessionId": uuid.NewString(),
			}, "image", pngBytes(t, 10, 10))

			w := api.do("POST", "/api/v1/generate", body, contentType)
			assert.Equal(t, tt.status, w.Code)

			resp := decodeError(t, w)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Equal(t, tt.status, resp.Error.StatusCode)
		})
	}
}
