package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"photobooth-backend/internal/apperrors"
	"photobooth-backend/internal/models"
)

type SharesHandler struct {
	store   Store
	storage ObjectStorage
	opts    Options
	log     zerolog.Logger
	now     func() time.Time
}

func NewSharesHandler(store Store, storage ObjectStorage, opts Options, log zerolog.Logger) *SharesHandler {
	return &SharesHandler{
		store:   store,
		storage: storage,
		opts:    opts.withDefaults(),
		log:     log,
		now:     time.Now,
	}
}

// CreateShare issues a share token for a session. The client renders the
// returned URL as a QR code.
func (h *SharesHandler) CreateShare(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	sessionID, ok := pathUUID(c, "session_id")
	if !ok {
		return
	}

	var req models.CreateShareRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, bindError(err))
			return
		}
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

	ttl := h.opts.ShareTTL
	if req.TTLSeconds > 0 {
		ttl = time.Duration(req.TTLSeconds) * time.Second
	}

	token := newShareToken()
	share, err := h.store.CreateShare(ctx, session.ID, userID, token, h.now().Add(ttl).UTC())
	if err != nil {
		respondError(c, internalError(err, "failed to create share"))
		return
	}

	c.JSON(http.StatusCreated, models.ShareResponse{
		Token:     share.Token,
		URL:       h.opts.ShareBaseURL + "/" + share.Token,
		SessionID: share.SessionID.String(),
		ExpiresAt: share.ExpiresAt,
	})
}

// ResolveShare is public. Unknown and expired tokens both yield 404.
func (h *SharesHandler) ResolveShare(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		respondError(c, apperrors.NotFound("share not found"))
		return
	}

	ctx := c.Request.Context()
	share, err := h.store.GetShareByToken(ctx, token)
	if err != nil {
		respondError(c, internalError(err, "failed to get share"))
		return
	}
	if share == nil || share.Expired(h.now()) {
		respondError(c, apperrors.NotFound("share not found"))
		return
	}

	// links never outlive the share
	ttl := h.opts.SignedURLTTL
	if remaining := share.ExpiresAt.Sub(h.now()); remaining < ttl {
		ttl = remaining
	}

	images, err := artifactResponses(ctx, h.store, h.storage, h.log, share.SessionID, ttl, true)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.SharedSessionResponse{
		SessionID: share.SessionID.String(),
		ExpiresAt: share.ExpiresAt,
		Images:    images,
	})
}

func newShareToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
