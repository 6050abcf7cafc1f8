package supabase

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"photobooth-backend/internal/database"
	"photobooth-backend/internal/models"
)

// ErrPathAlreadySet is returned when a styled image already has a storage path.
var ErrPathAlreadySet = errors.New("styled image storage path already set")

type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(connectionString string) (*DatabaseClient, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

// DB exposes the pool for components that share the connection.
func (d *DatabaseClient) DB() *sql.DB {
	return d.db
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*models.Event, error) {
	var event models.Event
	err := row.Scan(&event.ID, &event.UserID, &event.Name, &event.LogoPath, &event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func scanSession(row rowScanner) (*models.Session, error) {
	var session models.Session
	err := row.Scan(&session.ID, &session.EventID, &session.UserID, &session.CreatedAt, &session.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func scanShare(row rowScanner) (*models.Share, error) {
	var share models.Share
	err := row.Scan(&share.ID, &share.SessionID, &share.UserID, &share.Token, &share.ExpiresAt, &share.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &share, nil
}

func (d *DatabaseClient) CreateEvent(ctx context.Context, userID uuid.UUID, name string) (*models.Event, error) {
	event, err := scanEvent(d.db.QueryRowContext(ctx, database.InsertEvent, userID, name))
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	return event, nil
}

func (d *DatabaseClient) ListEvents(ctx context.Context, userID uuid.UUID) ([]models.Event, error) {
	rows, err := d.db.QueryContext(ctx, database.SelectEventsByUser, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	events := make([]models.Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, *event)
	}
	return events, rows.Err()
}

// GetEvent returns nil without an error when the event does not exist or
// belongs to another user.
func (d *DatabaseClient) GetEvent(ctx context.Context, eventID, userID uuid.UUID) (*models.Event, error) {
	event, err := scanEvent(d.db.QueryRowContext(ctx, database.SelectEvent, eventID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return event, nil
}

func (d *DatabaseClient) UpdateEventLogo(ctx context.Context, eventID, userID uuid.UUID, logoPath string) error {
	_, err := d.db.ExecContext(ctx, database.UpdateEventLogo, logoPath, eventID, userID)
	if err != nil {
		return fmt.Errorf("failed to update event logo: %w", err)
	}
	return nil
}

// DeleteEvent reports whether a row was removed. Sessions, styled images and
// shares go with it.
func (d *DatabaseClient) DeleteEvent(ctx context.Context, eventID, userID uuid.UUID) (bool, error) {
	res, err := d.db.ExecContext(ctx, database.DeleteEvent, eventID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete event: %w", err)
	}
	return n > 0, nil
}

func (d *DatabaseClient) CreateSession(ctx context.Context, eventID, userID uuid.UUID) (*models.Session, error) {
	session, err := scanSession(d.db.QueryRowContext(ctx, database.InsertSession, eventID, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// GetSession returns nil without an error when the session does not exist
// or belongs to another user.
func (d *DatabaseClient) GetSession(ctx context.Context, sessionID, userID uuid.UUID) (*models.Session, error) {
	session, err := scanSession(d.db.QueryRowContext(ctx, database.SelectSession, sessionID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

func (d *DatabaseClient) ListSessions(ctx context.Context, eventID, userID uuid.UUID) ([]models.Session, error) {
	rows, err := d.db.QueryContext(ctx, database.SelectSessionsByEvent, eventID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]models.Session, 0)
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, *session)
	}
	return sessions, rows.Err()
}

func (d *DatabaseClient) CreateStyledArtifact(ctx context.Context, sessionID uuid.UUID, style models.Style) (uuid.UUID, error) {
	var id uuid.UUID
	if err := d.db.QueryRowContext(ctx, database.InsertStyledImage, sessionID, string(style)).Scan(&id); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create styled image: %w", err)
	}
	return id, nil
}

func (d *DatabaseClient) UpdateStyledArtifactPath(ctx context.Context, artifactID uuid.UUID, storagePath string) error {
	res, err := d.db.ExecContext(ctx, database.UpdateStyledImagePath, storagePath, artifactID)
	if err != nil {
		return fmt.Errorf("failed to update styled image: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update styled image: %w", err)
	}
	if n == 0 {
		return ErrPathAlreadySet
	}
	return nil
}

func (d *DatabaseClient) ListStyledArtifacts(ctx context.Context, sessionID uuid.UUID) ([]models.StyledArtifact, error) {
	rows, err := d.db.QueryContext(ctx, database.SelectStyledImagesBySession, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list styled images: %w", err)
	}
	defer rows.Close()

	artifacts := make([]models.StyledArtifact, 0)
	for rows.Next() {
		var artifact models.StyledArtifact
		var style string
		err := rows.Scan(&artifact.ID, &artifact.SessionID, &style, &artifact.StoragePath, &artifact.CreatedAt, &artifact.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan styled image: %w", err)
		}
		parsed, ok := models.ParseStyle(style)
		if !ok {
			return nil, fmt.Errorf("styled image %s has unknown style %q", artifact.ID, style)
		}
		artifact.Style = parsed
		artifacts = append(artifacts, artifact)
	}
	return artifacts, rows.Err()
}

func (d *DatabaseClient) CreateShare(ctx context.Context, sessionID, userID uuid.UUID, token string, expiresAt time.Time) (*models.Share, error) {
	share, err := scanShare(d.db.QueryRowContext(ctx, database.InsertShare, sessionID, userID, token, expiresAt))
	if err != nil {
		return nil, fmt.Errorf("failed to create share: %w", err)
	}
	return share, nil
}

// GetShareByToken returns nil without an error for unknown tokens.
func (d *DatabaseClient) GetShareByToken(ctx context.Context, token string) (*models.Share, error) {
	share, err := scanShare(d.db.QueryRowContext(ctx, database.SelectShareByToken, token))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get share: %w", err)
	}
	return share, nil
}

func (d *DatabaseClient) Close() error {
	return d.db.Close()
}
