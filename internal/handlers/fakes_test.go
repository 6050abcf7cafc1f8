package handlers_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"photobooth-backend/internal/handlers"
	"photobooth-backend/internal/middleware"
	"photobooth-backend/internal/models"
)

type fakeStore struct {
	mu        sync.Mutex
	events    map[uuid.UUID]*models.Event
	sessions  map[uuid.UUID]*models.Session
	artifacts []models.StyledArtifact
	shares    map[string]*models.Share
	failList  bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		events:   map[uuid.UUID]*models.Event{},
		sessions: map[uuid.UUID]*models.Session{},
		shares:   map[string]*models.Share{},
	}
}

func (s *fakeStore) CreateEvent(ctx context.Context, userID uuid.UUID, name string) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	e := &models.Event{ID: uuid.New(), UserID: userID, Name: name, CreatedAt: now, UpdatedAt: now}
	s.events[e.ID] = e
	return e, nil
}

func (s *fakeStore) ListEvents(ctx context.Context, userID uuid.UUID) ([]models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failList {
		return nil, errors.New("connection refused")
	}
	var out []models.Event
	for _, e := range s.events {
		if e.UserID == userID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (s *fakeStore) GetEvent(ctx context.Context, eventID, userID uuid.UUID) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[eventID]
	if !ok || e.UserID != userID {
		return nil, nil
	}
	copied := *e
	return &copied, nil
}

func (s *fakeStore) UpdateEventLogo(ctx context.Context, eventID, userID uuid.UUID, logoPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[eventID].LogoPath = sql.NullString{String: logoPath, Valid: true}
	return nil
}

func (s *fakeStore) DeleteEvent(ctx context.Context, eventID, userID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[eventID]
	if !ok || e.UserID != userID {
		return false, nil
	}
	delete(s.events, eventID)
	return true, nil
}

func (s *fakeStore) CreateSession(ctx context.Context, eventID, userID uuid.UUID) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := &models.Session{ID: uuid.New(), EventID: eventID, UserID: userID, CreatedAt: time.Now()}
	s.sessions[sess.ID] = sess
	return sess, nil
}

func (s *fakeStore) GetSession(ctx context.Context, sessionID, userID uuid.UUID) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok || sess.UserID != userID {
		return nil, nil
	}
	return sess, nil
}

func (s *fakeStore) ListSessions(ctx context.Context, eventID, userID uuid.UUID) ([]models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Session
	for _, sess := range s.sessions {
		if sess.EventID == eventID && sess.UserID == userID {
			out = append(out, *sess)
		}
	}
	return out, nil
}

func (s *fakeStore) ListStyledArtifacts(ctx context.Context, sessionID uuid.UUID) ([]models.StyledArtifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.StyledArtifact
	for _, a := range s.artifacts {
		if a.SessionID == sessionID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *fakeStore) CreateShare(ctx context.Context, sessionID, userID uuid.UUID, token string, expiresAt time.Time) (*models.Share, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	share := &models.Share{ID: uuid.New(), SessionID: sessionID, UserID: userID, Token: token, ExpiresAt: expiresAt, CreatedAt: time.Now()}
	s.shares[token] = share
	return share, nil
}

func (s *fakeStore) GetShareByToken(ctx context.Context, token string) (*models.Share, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shares[token], nil
}

type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
	ttls    []time.Duration
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string][]byte{}}
}

func (s *fakeStorage) Upload(data []byte, storagePath, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[storagePath] = data
	return storagePath, nil
}

func (s *fakeStorage) CreateSignedURL(storagePath string, ttl time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ttls = append(s.ttls, ttl)
	return "https://signed.test/" + storagePath, nil
}

func (s *fakeStorage) Delete(storagePaths ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, storagePaths...)
	return nil
}

type testAPI struct {
	userID  uuid.UUID
	store   *fakeStore
	storage *fakeStorage
	router  *gin.Engine
}

// newTestAPI mounts the handlers the way the server does, with the caller
// already authenticated as userID.
func newTestAPI(t *testing.T, generator handlers.StyleGenerator) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	api := &testAPI{userID: uuid.New(), store: newFakeStore(), storage: newFakeStorage()}
	opts := handlers.Options{MaxUploadBytes: 1 << 20, SignedURLTTL: time.Hour, ShareTTL: 24 * time.Hour, ShareBaseURL: "https://booth.test/share/"}
	log := zerolog.Nop()

	events := handlers.NewEventsHandler(api.store, api.storage, opts, log)
	sessions := handlers.NewSessionsHandler(api.store, api.storage, opts, log)
	shares := handlers.NewSharesHandler(api.store, api.storage, opts, log)

	router := gin.New()
	router.GET("/api/v1/shares/:token", shares.ResolveShare)

	authed := router.Group("/api/v1")
	authed.Use(func(c *gin.Context) {
		c.Set(middleware.UserIDKey, api.userID.String())
		c.Next()
	})
	authed.POST("/events", events.CreateEvent)
	authed.GET("/events", events.ListEvents)
	authed.GET("/events/:event_id", events.GetEvent)
	authed.DELETE("/events/:event_id", events.DeleteEvent)
	authed.POST("/events/:event_id/logo", events.UploadLogo)
	authed.POST("/events/:event_id/sessions", sessions.CreateSession)
	authed.GET("/sessions/:session_id", sessions.GetSession)
	authed.POST("/sessions/:session_id/shares", shares.CreateShare)
	if generator != nil {
		authed.POST("/generate", handlers.NewGenerateHandler(generator, opts, log).Generate)
	}

	api.router = router
	return api
}

func (a *testAPI) do(method, path string, body []byte, contentType string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testAPI) seedEvent() *models.Event {
	e := &models.Event{ID: uuid.New(), UserID: a.userID, Name: "Gala", CreatedAt: time.Now(), UpdatedAt: time.Now()}
	a.store.events[e.ID] = e
	return e
}

func (a *testAPI) seedSession(eventID uuid.UUID) *models.Session {
	s := &models.Session{ID: uuid.New(), EventID: eventID, UserID: a.userID, CreatedAt: time.Now()}
	a.store.sessions[s.ID] = s
	return s
}

// multipartBody builds a form with the given fields and one optional file.
func multipartBody(t *testing.T, fields map[string]string, fileField string, file []byte) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileField != "" {
		part, err := w.CreateFormFile(fileField, "upload.png")
		require.NoError(t, err)
		_, err = part.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes(), w.FormDataContentType()
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 50, B: 50, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var body models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func jsonBody(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}
