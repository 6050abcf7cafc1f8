package handlers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"photobooth-backend/internal/models"
)

// Store is the subset of the database client the handlers use. Lookups
// return nil, nil when the row does not exist for that user.
type Store interface {
	CreateEvent(ctx context.Context, userID uuid.UUID, name string) (*models.Event, error)
	ListEvents(ctx context.Context, userID uuid.UUID) ([]models.Event, error)
	GetEvent(ctx context.Context, eventID, userID uuid.UUID) (*models.Event, error)
	UpdateEventLogo(ctx context.Context, eventID, userID uuid.UUID, logoPath string) error
	DeleteEvent(ctx context.Context, eventID, userID uuid.UUID) (bool, error)

	CreateSession(ctx context.Context, eventID, userID uuid.UUID) (*models.Session, error)
	GetSession(ctx context.Context, sessionID, userID uuid.UUID) (*models.Session, error)
	ListSessions(ctx context.Context, eventID, userID uuid.UUID) ([]models.Session, error)
	ListStyledArtifacts(ctx context.Context, sessionID uuid.UUID) ([]models.StyledArtifact, error)

	CreateShare(ctx context.Context, sessionID, userID uuid.UUID, token string, expiresAt time.Time) (*models.Share, error)
	GetShareByToken(ctx context.Context, token string) (*models.Share, error)
}

type ObjectStorage interface {
	Upload(data []byte, storagePath, contentType string) (string, error)
	CreateSignedURL(storagePath string, ttl time.Duration) (string, error)
	Delete(storagePaths ...string) error
}
