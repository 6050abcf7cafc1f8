package models

import "time"

// ErrorBody is the error half of the response envelope.
type ErrorBody struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
}

type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

type GenerateResponse struct {
	Success   bool                `json:"success"`
	ImageID   string              `json:"imageId"`
	SessionID string              `json:"sessionId"`
	EventID   string              `json:"eventId"`
	Images    []StyledImageResult `json:"images"`
}

// StyledImageResult is one style's entry in the generate response.
type StyledImageResult struct {
	Style        string `json:"style"`
	ArtifactID   string `json:"artifactId,omitempty"`
	StorageURL   string `json:"storageUrl,omitempty"`
	PublicURL    string `json:"publicUrl,omitempty"`
	GenerationID string `json:"generationId,omitempty"`
	UpstreamURL  string `json:"upstreamUrl,omitempty"`
	HasLogo      bool   `json:"hasLogo"`
	Success      bool   `json:"success"`
	Error        string `json:"error,omitempty"`
	ErrorCode    string `json:"errorCode,omitempty"`
}

type EventResponse struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	HasLogo   bool             `json:"hasLogo"`
	LogoURL   string           `json:"logoUrl,omitempty"`
	Sessions  []SessionSummary `json:"sessions,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

type SessionSummary struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}

type EventListResponse struct {
	Success bool            `json:"success"`
	Events  []EventResponse `json:"events"`
}

type SessionResponse struct {
	ID        string             `json:"id"`
	EventID   string             `json:"eventId"`
	Images    []ArtifactResponse `json:"images"`
	CreatedAt time.Time          `json:"createdAt"`
}

type ArtifactResponse struct {
	ID        string    `json:"id"`
	Style     string    `json:"style"`
	Completed bool      `json:"completed"`
	URL       string    `json:"url,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type ShareResponse struct {
	Token     string    `json:"token"`
	URL       string    `json:"url"`
	SessionID string    `json:"sessionId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type SharedSessionResponse struct {
	SessionID string             `json:"sessionId"`
	ExpiresAt time.Time          `json:"expiresAt"`
	Images    []ArtifactResponse `json:"images"`
}
