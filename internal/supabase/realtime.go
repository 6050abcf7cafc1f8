package supabase

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"photobooth-backend/internal/models"
)

// RealtimeClient publishes session progress through Postgres NOTIFY. Clients
// subscribe to the session:<id> channel.
type RealtimeClient struct {
	db *sql.DB
}

func NewRealtimeClient(db *sql.DB) *RealtimeClient {
	return &RealtimeClient{db: db}
}

func SessionChannel(sessionID uuid.UUID) string {
	return fmt.Sprintf("session:%s", sessionID.String())
}

func (r *RealtimeClient) PublishEvent(ctx context.Context, channel string, event string, payload map[string]interface{}) error {
	message := make(map[string]interface{}, len(payload)+1)
	for k, v := range payload {
		message[k] = v
	}
	message["event"] = event

	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal realtime payload: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, "SELECT pg_notify($1, $2)", channel, string(body)); err != nil {
		return fmt.Errorf("failed to publish %s on %s: %w", event, channel, err)
	}
	return nil
}

func (r *RealtimeClient) PublishSessionEvent(ctx context.Context, sessionID uuid.UUID, event string, payload map[string]interface{}) error {
	return r.PublishEvent(ctx, SessionChannel(sessionID), event, payload)
}

// Event payloads
func StyleCompletedPayload(sessionID uuid.UUID, style models.Style, artifactID uuid.UUID, storagePath string) map[string]interface{} {
	return map[string]interface{}{
		"session_id":   sessionID.String(),
		"style":        style.String(),
		"artifact_id":  artifactID.String(),
		"storage_path": storagePath,
		"status":       "completed",
	}
}

func StyleFailedPayload(sessionID uuid.UUID, style models.Style, errorMsg string) map[string]interface{} {
	return map[string]interface{}{
		"session_id": sessionID.String(),
		"style":      style.String(),
		"status":     "failed",
		"error":      errorMsg,
	}
}

func GenerationCompletedPayload(sessionID uuid.UUID, succeeded, failed int) map[string]interface{} {
	return map[string]interface{}{
		"session_id": sessionID.String(),
		"status":     "completed",
		"succeeded":  succeeded,
		"failed":     failed,
	}
}
