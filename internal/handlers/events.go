package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"photobooth-backend/internal/apperrors"
	"photobooth-backend/internal/compositor"
	"photobooth-backend/internal/models"
	"photobooth-backend/internal/supabase"
)

type EventsHandler struct {
	store   Store
	storage ObjectStorage
	opts    Options
	log     zerolog.Logger
}

func NewEventsHandler(store Store, storage ObjectStorage, opts Options, log zerolog.Logger) *EventsHandler {
	return &EventsHandler{
		store:   store,
		storage: storage,
		opts:    opts.withDefaults(),
		log:     log,
	}
}

// CreateEvent handles POST /events.
func (h *EventsHandler) CreateEvent(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req models.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}

	event, err := h.store.CreateEvent(c.Request.Context(), userID, req.Name)
	if err != nil {
		respondError(c, internalError(err, "failed to create event"))
		return
	}

	c.JSON(http.StatusCreated, h.eventResponse(event, false))
}

func (h *EventsHandler) ListEvents(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	events, err := h.store.ListEvents(c.Request.Context(), userID)
	if err != nil {
		respondError(c, internalError(err, "failed to list events"))
		return
	}

	response := models.EventListResponse{Success: true, Events: make([]models.EventResponse, len(events))}
	for i := range events {
		response.Events[i] = h.eventResponse(&events[i], false)
	}
	c.JSON(http.StatusOK, response)
}

// GetEvent returns the event with its sessions and a signed logo URL.
func (h *EventsHandler) GetEvent(c *gin.Context) {
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

	sessions, err := h.store.ListSessions(ctx, eventID, userID)
	if err != nil {
		respondError(c, internalError(err, "failed to list sessions"))
		return
	}

	response := h.eventResponse(event, true)
	response.Sessions = make([]models.SessionSummary, len(sessions))
	for i, s := range sessions {
		response.Sessions[i] = models.SessionSummary{ID: s.ID.String(), CreatedAt: s.CreatedAt}
	}
	c.JSON(http.StatusOK, response)
}

func (h *EventsHandler) DeleteEvent(c *gin.Context) {
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

	deleted, err := h.store.DeleteEvent(ctx, eventID, userID)
	if err != nil {
		respondError(c, internalError(err, "failed to delete event"))
		return
	}
	if !deleted {
		respondError(c, apperrors.NotFound("event not found"))
		return
	}

	if event.HasLogo() {
		if err := h.storage.Delete(event.LogoPath.String); err != nil {
			h.log.Warn().Err(err).Str("event_id", eventID.String()).Msg("failed to delete event logo")
		}
	}

	c.Status(http.StatusNoContent)
}

// UploadLogo handles POST /events/:event_id/logo with a multipart "logo" file.
// A new upload replaces the previous logo.
func (h *EventsHandler) UploadLogo(c *gin.Context) {
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

	data, err := readFormFile(c, "logo", h.opts.MaxUploadBytes)
	if err != nil {
		respondError(c, err)
		return
	}
	info, err := compositor.Inspect(data)
	if err != nil {
		respondError(c, err)
		return
	}

	logoPath := supabase.LogoPath(userID, eventID, "logo."+compositor.ExtensionFor(info.MimeType))
	storedPath, err := h.storage.Upload(data, logoPath, info.MimeType)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.store.UpdateEventLogo(ctx, eventID, userID, storedPath); err != nil {
		respondError(c, internalError(err, "failed to update event logo"))
		return
	}
	if event.HasLogo() && event.LogoPath.String != storedPath {
		if err := h.storage.Delete(event.LogoPath.String); err != nil {
			h.log.Warn().Err(err).Str("event_id", eventID.String()).Msg("failed to delete previous logo")
		}
	}

	event.LogoPath.String, event.LogoPath.Valid = storedPath, true
	c.JSON(http.StatusOK, h.eventResponse(event, true))
}

func (h *EventsHandler) eventResponse(event *models.Event, signLogo bool) models.EventResponse {
	response := models.EventResponse{
		ID:        event.ID.String(),
		Name:      event.Name,
		HasLogo:   event.HasLogo(),
		CreatedAt: event.CreatedAt,
		UpdatedAt: event.UpdatedAt,
	}
	if signLogo && event.HasLogo() {
		if url, err := h.storage.CreateSignedURL(event.LogoPath.String, h.opts.SignedURLTTL); err == nil {
			response.LogoURL = url
		} else {
			h.log.Warn().Err(err).Str("event_id", event.ID.String()).Msg("failed to sign logo url")
		}
	}
	return response
}

// readFormFile reads one multipart file, rejecting anything larger than limit.
func readFormFile(c *gin.Context, field string, limit int64) ([]byte, error) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		return nil, apperrors.Validation("%s file is required", field)
	}
	if fileHeader.Size > limit {
		return nil, apperrors.Validation("%s exceeds %d bytes", field, limit)
	}
	file, err := fileHeader.Open()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindValidation, err, "failed to open %s", field)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindValidation, err, "failed to read %s", field)
	}
	if int64(len(data)) > limit {
		return nil, apperrors.Validation("%s exceeds %d bytes", field, limit)
	}
	return data, nil
}
