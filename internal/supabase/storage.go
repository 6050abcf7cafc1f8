package supabase

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	storage "github.com/supabase-community/storage-go"
	"photobooth-backend/internal/apperrors"
	"photobooth-backend/internal/models"
)

type StorageClient struct {
	client  *storage.Client
	bucket  string
	baseURL string
}

// NewStorageClient wraps the platform client's storage API for one bucket.
func NewStorageClient(client *Client, bucket string) *StorageClient {
	return &StorageClient{
		client:  client.Supabase.Storage,
		bucket:  bucket,
		baseURL: strings.TrimSuffix(client.Config.SupabaseURL, "/"),
	}
}

// StyledImagePath is users/{user}/events/{event}/sessions/{session}/{style}/{filename}.
func StyledImagePath(userID, eventID, sessionID uuid.UUID, style models.Style, filename string) string {
	return fmt.Sprintf("users/%s/events/%s/sessions/%s/%s/%s",
		userID.String(), eventID.String(), sessionID.String(), style.Slug(), filename)
}

// LogoPath is users/{user}/events/{event}/logo/{filename}.
func LogoPath(userID, eventID uuid.UUID, filename string) string {
	return fmt.Sprintf("users/%s/events/%s/logo/%s", userID.String(), eventID.String(), filename)
}

func (s *StorageClient) Upload(data []byte, storagePath, contentType string) (string, error) {
	upsert := true
	_, err := s.client.UploadFile(s.bucket, storagePath, bytes.NewReader(data), storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindStorage, err, "failed to upload %s", storagePath)
	}
	return storagePath, nil
}

func (s *StorageClient) Download(storagePath string) ([]byte, error) {
	data, err := s.client.DownloadFile(s.bucket, storagePath)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindStorage, err, "failed to download %s", storagePath)
	}
	return data, nil
}

// CreateSignedURL returns an absolute URL that expires after ttl.
func (s *StorageClient) CreateSignedURL(storagePath string, ttl time.Duration) (string, error) {
	seconds := int(ttl / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	resp, err := s.client.CreateSignedUrl(s.bucket, storagePath, seconds)
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindStorage, err, "failed to sign %s", storagePath)
	}
	signed := resp.SignedURL
	if strings.HasPrefix(signed, "/") {
		signed = s.baseURL + "/storage/v1" + signed
	}
	return signed, nil
}

func (s *StorageClient) Delete(storagePaths ...string) error {
	if len(storagePaths) == 0 {
		return nil
	}
	if _, err := s.client.RemoveFile(s.bucket, storagePaths); err != nil {
		return apperrors.Wrap(apperrors.KindStorage, err, "failed to delete files")
	}
	return nil
}
