package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"photobooth-backend/internal/apperrors"
	"photobooth-backend/internal/models"
	"photobooth-backend/internal/services"
)

type StyleGenerator interface {
	GenerateStyledPhotos(ctx context.Context, in services.GenerateInput) (*services.GenerateResult, error)
}

type GenerateHandler struct {
	generator StyleGenerator
	opts      Options
	log       zerolog.Logger
}

func NewGenerateHandler(generator StyleGenerator, opts Options, log zerolog.Logger) *GenerateHandler {
	return &GenerateHandler{
		generator: generator,
		opts:      opts.withDefaults(),
		log:       log,
	}
}

// Generate handles POST /generate. The form carries eventId, sessionId and
// the captured photo as "image". The call blocks until every style has
// finished or failed; per-style failures are reported inside images.
func (h *GenerateHandler) Generate(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	eventID, err := uuid.Parse(strings.TrimSpace(c.PostForm("eventId")))
	if err != nil {
		respondError(c, apperrors.Validation("eventId is required"))
		return
	}
	sessionID, err := uuid.Parse(strings.TrimSpace(c.PostForm("sessionId")))
	if err != nil {
		respondError(c, apperrors.Validation("sessionId is required"))
		return
	}
	image, err := readFormFile(c, "image", h.opts.MaxUploadBytes)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.generator.GenerateStyledPhotos(c.Request.Context(), services.GenerateInput{
		UserID:    userID,
		EventID:   eventID,
		SessionID: sessionID,
		Image:     image,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, generateResponse(result))
}

func generateResponse(result *services.GenerateResult) models.GenerateResponse {
	response := models.GenerateResponse{
		Success:   true,
		ImageID:   result.ImageID,
		SessionID: result.SessionID.String(),
		EventID:   result.EventID.String(),
		Images:    make([]models.StyledImageResult, len(result.Outcomes)),
	}
	for i := range result.Outcomes {
		o := &result.Outcomes[i]
		image := models.StyledImageResult{
			Style:        o.Style.String(),
			StorageURL:   o.StoragePath,
			PublicURL:    o.SignedURL,
			GenerationID: o.GenerationID,
			UpstreamURL:  o.UpstreamURL,
			HasLogo:      o.HasLogo,
			Success:      o.Succeeded(),
		}
		if o.ArtifactID != uuid.Nil {
			image.ArtifactID = o.ArtifactID.String()
		}
		if o.Err != nil {
			image.Error = o.Err.Error()
			image.ErrorCode = string(apperrors.KindOf(o.Err))
		}
		response.Images[i] = image
	}
	return response
}
