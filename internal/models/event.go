package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type Event struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Name      string
	LogoPath  sql.NullString
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasLogo reports whether a logo has been uploaded for the event.
func (e *Event) HasLogo() bool {
	return e.LogoPath.Valid && e.LogoPath.String != ""
}

type Session struct {
	ID        uuid.UUID
	EventID   uuid.UUID
	UserID    uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// StyledArtifact is the persisted record of one styled image in a session.
// StoragePath stays empty until the upload for that style succeeds.
type StyledArtifact struct {
	ID          uuid.UUID
	SessionID   uuid.UUID
	Style       Style
	StoragePath string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Share struct {
	ID        uuid.UUID
	SessionID uuid.UUID
	UserID    uuid.UUID
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (s *Share) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
