package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"photobooth-backend/internal/apperrors"
	"photobooth-backend/internal/models"
)

type SessionsHandler struct {
	store   Store
	storage ObjectStorage
	opts    Options
	log     zerolog.Logger
}

func NewSessionsHandler(store Store, storage ObjectStorage, opts Options, log zerolog.Logger) *SessionsHandler {
	return &SessionsHandler{
		store:   store,
		storage: storage,
		opts:    opts.withDefaults(),
		log:     log,
	}
}

// CreateSession opens a new capture session under an event.
func (h *SessionsHandler) CreateSession(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	eventID, ok := pathUUID(c, "event_id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	event, err := h.store.GetEvent(ctx, eventID, userID)
	if err != nil {
		respondError(c, internalError(err, "failed to get event"))
		return
	}
	if event == nil {
		respondError(c, apperrors.NotFound("event not found"))
		return
	}

	session, err := h.store.CreateSession(ctx, eventID, userID)
	if err != nil {
		respondError(c, internalError(err, "failed to create session"))
		return
	}

	c.JSON(http.StatusCreated, models.SessionResponse{
		ID:        session.ID.String(),
		EventID:   session.EventID.String(),
		Images:    []models.ArtifactResponse{},
		CreatedAt: session.CreatedAt,
	})
}

// GetSession returns the session with a signed URL for every completed image.
func (h *SessionsHandler) GetSession(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	sessionID, ok := pathUUID(c, "session_id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	session, err := h.store.GetSession(ctx, sessionID, userID)
	if err != nil {
		respondError(c, internalError(err, "failed to get session"))
		return
	}
	if session == nil {
		respondError(c, apperrors.NotFound("session not found"))
		return
	}

	images, err := artifactResponses(ctx, h.store, h.storage, h.log, session.ID, h.opts.SignedURLTTL, false)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.SessionResponse{
		ID:        session.ID.String(),
		EventID:   session.EventID.String(),
		Images:    images,
		CreatedAt: session.CreatedAt,
	})
}

// artifactResponses lists a session's styled images. Pending images are
// skipped when completedOnly is set.
func artifactResponses(
	ctx context.Context,
	store Store,
	storage ObjectStorage,
	log zerolog.Logger,
	sessionID uuid.UUID,
	ttl time.Duration,
	completedOnly bool,
) ([]models.ArtifactResponse, error) {
	artifacts, err := store.ListStyledArtifacts(ctx, sessionID)
	if err != nil {
		return nil, internalError(err, "failed to list styled images")
	}

	responses := make([]models.ArtifactResponse, 0, len(artifacts))
	for _, a := range artifacts {
		completed := a.StoragePath != ""
		if completedOnly && !completed {
			continue
		}
		r := models.ArtifactResponse{
			ID:        a.ID.String(),
			Style:     a.Style.String(),
			Completed: completed,
			CreatedAt: a.CreatedAt,
		}
		if completed {
			url, err := storage.CreateSignedURL(a.StoragePath, ttl)
			if err != nil {
				log.Warn().Err(err).Str("artifact_id", a.ID.String()).Msg("failed to sign styled image url")
			} else {
				r.URL = url
			}
		}
		responses = append(responses, r)
	}
	return responses, nil
}
