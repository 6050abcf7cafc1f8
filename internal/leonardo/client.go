package leonardo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"photobooth-backend/internal/apperrors"
	"photobooth-backend/internal/models"
)

const defaultBaseURL = "https://cloud.leonardo.ai/api/rest/v1"

type Options struct {
	BaseURL    string
	APIKey     string
	ModelID    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// Client talks to the Leonardo REST API. It holds no per-request state.
type Client struct {
	baseURL    string
	apiKey     string
	modelID    string
	httpClient *http.Client
}

// StyleParams are the per-style generation parameters sent alongside the
// prompt.
type StyleParams struct {
	ModelID        string
	NegativePrompt string
	PresetStyle    string
	StyleUUID      string
	InitStrength   float64
	// PreprocessorID selects a controlnet that conditions on the uploaded
	// image. Zero sends the image as a plain init image instead.
	PreprocessorID int
	StrengthType   string
}

// JobStatus is the normalised result of one status check.
type JobStatus struct {
	Status    models.JobStatus
	ResultURL string
}

type initImageRequest struct {
	Extension string `json:"extension"`
}

type initImageResponse struct {
	UploadInitImage struct {
		ID     string `json:"id"`
		Fields string `json:"fields"`
		Key    string `json:"key"`
		URL    string `json:"url"`
	} `json:"uploadInitImage"`
}

type controlnet struct {
	InitImageID    string `json:"initImageId"`
	InitImageType  string `json:"initImageType"`
	PreprocessorID int    `json:"preprocessorId"`
	StrengthType   string `json:"strengthType,omitempty"`
}

type generationRequest struct {
	ModelID        string       `json:"modelId"`
	Prompt         string       `json:"prompt"`
	NegativePrompt string       `json:"negative_prompt,omitempty"`
	Width          int          `json:"width"`
	Height         int          `json:"height"`
	NumImages      int          `json:"num_images"`
	PresetStyle    string       `json:"presetStyle,omitempty"`
	StyleUUID      string       `json:"styleUUID,omitempty"`
	InitImageID    string       `json:"init_image_id,omitempty"`
	InitStrength   float64      `json:"init_strength,omitempty"`
	Controlnets    []controlnet `json:"controlnets,omitempty"`
}

type generationResponse struct {
	SDGenerationJob struct {
		GenerationID  string `json:"generationId"`
		APICreditCost int    `json:"apiCreditCost"`
	} `json:"sdGenerationJob"`
}

type generationStatusResponse struct {
	GenerationsByPK *struct {
		ID              string `json:"id"`
		Status          string `json:"status"` // "PENDING", "COMPLETE", "FAILED"
		GeneratedImages []struct {
			ID  string `json:"id"`
			URL string `json:"url"`
		} `json:"generated_images"`
	} `json:"generations_by_pk"`
}

func NewClient(opts Options) *Client {
	baseURL := strings.TrimSuffix(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(opts.APIKey),
		modelID:    opts.ModelID,
		httpClient: httpClient,
	}
}

// UploadSourceImage registers an init image and transmits data to the
// presigned target the API hands back. The returned id is reused by every
// generation request for the same photo.
func (c *Client) UploadSourceImage(ctx context.Context, data []byte, extension string) (string, error) {
	if len(data) == 0 {
		return "", apperrors.Validation("source image is empty")
	}
	extension = strings.TrimPrefix(strings.ToLower(extension), ".")
	if extension == "jpeg" {
		extension = "jpg"
	}

	var initResp initImageResponse
	if err := c.doJSON(ctx, http.MethodPost, "/init-image", initImageRequest{Extension: extension}, &initResp); err != nil {
		return "", fmt.Errorf("failed to init upload: %w", err)
	}
	target := initResp.UploadInitImage
	if target.ID == "" || target.URL == "" {
		return "", apperrors.New(apperrors.KindUpstream, "leonardo: init-image response missing id or url")
	}

	fields := map[string]string{}
	if target.Fields != "" {
		if err := json.Unmarshal([]byte(target.Fields), &fields); err != nil {
			return "", apperrors.Wrap(apperrors.KindUpstream, err, "leonardo: malformed upload fields")
		}
	}

	if err := c.uploadPresigned(ctx, target.URL, fields, "source."+extension, data); err != nil {
		return "", err
	}

	return target.ID, nil
}

func (c *Client) uploadPresigned(ctx context.Context, uploadURL string, fields map[string]string, filename string, data []byte) error {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return fmt.Errorf("failed to write upload field: %w", err)
		}
	}
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return fmt.Errorf("failed to create upload part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("failed to write upload part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close upload body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, &body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.Wrap(apperrors.KindUpstream, err, "leonardo: failed to upload source image")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return apperrors.New(apperrors.KindUpstream, "leonardo: failed to upload source image: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// SubmitGeneration starts one generation job. Orientation picks the canvas
// dimensions so every style renders at the same size.
func (c *Client) SubmitGeneration(ctx context.Context, prompt string, params StyleParams, imageID string, orientation models.Orientation) (string, error) {
	width, height := orientation.Canvas()

	modelID := params.ModelID
	if modelID == "" {
		modelID = c.modelID
	}

	genReq := generationRequest{
		ModelID:        modelID,
		Prompt:         prompt,
		NegativePrompt: params.NegativePrompt,
		Width:          width,
		Height:         height,
		NumImages:      1,
		PresetStyle:    params.PresetStyle,
		StyleUUID:      params.StyleUUID,
	}
	if params.PreprocessorID > 0 {
		genReq.Controlnets = []controlnet{{
			InitImageID:    imageID,
			InitImageType:  "UPLOADED",
			PreprocessorID: params.PreprocessorID,
			StrengthType:   params.StrengthType,
		}}
	} else {
		genReq.InitImageID = imageID
		genReq.InitStrength = params.InitStrength
	}

	var genResp generationResponse
	if err := c.doJSON(ctx, http.MethodPost, "/generations", genReq, &genResp); err != nil {
		return "", fmt.Errorf("failed to submit generation: %w", err)
	}
	if genResp.SDGenerationJob.GenerationID == "" {
		return "", apperrors.New(apperrors.KindUpstream, "leonardo: generation response missing generationId")
	}
	return genResp.SDGenerationJob.GenerationID, nil
}

// PollJobStatus performs a single status check and never waits.
func (c *Client) PollJobStatus(ctx context.Context, jobID string) (*JobStatus, error) {
	var statusResp generationStatusResponse
	if err := c.doJSON(ctx, http.MethodGet, "/generations/"+url.PathEscape(jobID), nil, &statusResp); err != nil {
		return nil, fmt.Errorf("failed to get generation status: %w", err)
	}

	gen := statusResp.GenerationsByPK
	if gen == nil {
		// the record can lag behind the submit call
		return &JobStatus{Status: models.JobPending}, nil
	}

	switch strings.ToUpper(gen.Status) {
	case "COMPLETE":
		for _, img := range gen.GeneratedImages {
			if img.URL != "" {
				return &JobStatus{Status: models.JobComplete, ResultURL: img.URL}, nil
			}
		}
		return nil, apperrors.New(apperrors.KindUpstream, "leonardo: generation %s complete without images", jobID)
	case "FAILED":
		return &JobStatus{Status: models.JobFailed}, nil
	default:
		return &JobStatus{Status: models.JobPending}, nil
	}
}

// DownloadResult fetches a generated image with a plain GET.
func (c *Client) DownloadResult(ctx context.Context, resultURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resultURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindUpstream, err, "failed to download result")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return nil, apperrors.New(apperrors.KindUpstream, "failed to download result: status %d, body: %s", resp.StatusCode, string(body))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindUpstream, err, "failed to read result body")
	}
	return data, nil
}

// DefaultBackoff is the wait schedule used between retry attempts.
var DefaultBackoff = []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}

// RetryWithBackoff runs fn up to maxRetries times, sleeping between attempts
// according to backoff (the last entry repeats). It stops early when ctx is
// done.
func RetryWithBackoff(ctx context.Context, backoff []time.Duration, maxRetries int, fn func() error) error {
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if i == maxRetries-1 || len(backoff) == 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("retry aborted after %d attempts: %w", i+1, lastErr)
		case <-time.After(backoff[min(i, len(backoff)-1)]):
		}
	}

	return fmt.Errorf("failed after %d retries: %w", maxRetries, lastErr)
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		jsonData, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.Wrap(apperrors.KindUpstream, err, "leonardo: request %s %s failed", method, path)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.Wrap(apperrors.KindUpstream, err, "leonardo: failed to read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperrors.New(apperrors.KindUpstream, "leonardo: %s %s: status %d, body: %s", method, path, resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return apperrors.Wrap(apperrors.KindUpstream, err, "leonardo: failed to decode response, body: %s", string(respBody))
	}
	return nil
}
