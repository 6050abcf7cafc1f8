package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"photobooth-backend/internal/apperrors"
	"photobooth-backend/internal/compositor"
	"photobooth-backend/internal/leonardo"
	"photobooth-backend/internal/models"
	"photobooth-backend/internal/supabase"
)

// Generator is the generation service adapter.
type Generator interface {
	UploadSourceImage(ctx context.Context, data []byte, extension string) (string, error)
	SubmitGeneration(ctx context.Context, prompt string, params leonardo.StyleParams, imageID string, orientation models.Orientation) (string, error)
	PollJobStatus(ctx context.Context, jobID string) (*leonardo.JobStatus, error)
	DownloadResult(ctx context.Context, resultURL string) ([]byte, error)
}

// Store is the persistence the pipeline needs. GetEvent and GetSession
// return nil, nil when the row is absent or owned by someone else.
type Store interface {
	GetEvent(ctx context.Context, eventID, userID uuid.UUID) (*models.Event, error)
	GetSession(ctx context.Context, sessionID, userID uuid.UUID) (*models.Session, error)
	CreateStyledArtifact(ctx context.Context, sessionID uuid.UUID, style models.Style) (uuid.UUID, error)
	UpdateStyledArtifactPath(ctx context.Context, artifactID uuid.UUID, storagePath string) error
}

type ObjectStorage interface {
	Upload(data []byte, storagePath, contentType string) (string, error)
	Download(storagePath string) ([]byte, error)
	CreateSignedURL(storagePath string, ttl time.Duration) (string, error)
}

type Notifier interface {
	PublishSessionEvent(ctx context.Context, sessionID uuid.UUID, event string, payload map[string]interface{}) error
}

// Pipeline stages recorded on failed outcomes.
const (
	StagePlaceholder  = "placeholder"
	StageSourceUpload = "source_upload"
	StageSubmit       = "submit"
	StagePoll         = "poll"
	StageDownload     = "download"
	StageUpload       = "upload"
	StagePersist      = "persist"
)

type GenerateInput struct {
	UserID    uuid.UUID
	EventID   uuid.UUID
	SessionID uuid.UUID
	Image     []byte
}

// StyleOutcome is the result for one style. Err is nil on success.
type StyleOutcome struct {
	Style        models.Style
	ArtifactID   uuid.UUID
	GenerationID string
	UpstreamURL  string
	StoragePath  string
	SignedURL    string
	HasLogo      bool
	Stage        string
	Err          error
}

func (o *StyleOutcome) Succeeded() bool {
	return o.Err == nil && o.StoragePath != ""
}

type GenerateResult struct {
	ImageID     string
	EventID     uuid.UUID
	SessionID   uuid.UUID
	Orientation models.Orientation
	Outcomes    []StyleOutcome
}

func (r *GenerateResult) Counts() (succeeded, failed int) {
	for i := range r.Outcomes {
		if r.Outcomes[i].Succeeded() {
			succeeded++
		} else {
			failed++
		}
	}
	return succeeded, failed
}

type GenerationService struct {
	generator Generator
	store     Store
	storage   ObjectStorage
	notifier  Notifier
	settings  GenerationSettings
	log       zerolog.Logger
}

// NewGenerationService wires the pipeline. notifier may be nil.
func NewGenerationService(
	generator Generator,
	store Store,
	storage ObjectStorage,
	notifier Notifier,
	settings GenerationSettings,
	log zerolog.Logger,
) *GenerationService {
	return &GenerationService{
		generator: generator,
		store:     store,
		storage:   storage,
		notifier:  notifier,
		settings:  settings.clone(),
		log:       log.With().Str("component", "generation").Logger(),
	}
}

// GenerateStyledPhotos renders every configured style for one source photo.
// An error is returned only when a precondition fails; per-style failures
// are reported on the outcomes.
func (s *GenerationService) GenerateStyledPhotos(ctx context.Context, in GenerateInput) (*GenerateResult, error) {
	info, err := compositor.Inspect(in.Image)
	if err != nil {
		return nil, err
	}

	event, err := s.store.GetEvent(ctx, in.EventID, in.UserID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "failed to load event")
	}
	if event == nil {
		return nil, apperrors.NotFound("event not found")
	}
	session, err := s.store.GetSession(ctx, in.SessionID, in.UserID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, err, "failed to load session")
	}
	if session == nil || session.EventID != event.ID {
		return nil, apperrors.NotFound("session not found")
	}

	// the jobs run to completion even if the caller goes away
	ctx = context.WithoutCancel(ctx)

	orientation := models.OrientationFor(info.Width, info.Height)
	log := s.log.With().
		Str("user_id", in.UserID.String()).
		Str("event_id", event.ID.String()).
		Str("session_id", session.ID.String()).
		Str("orientation", orientation.String()).
		Logger()

	result := &GenerateResult{
		EventID:     event.ID,
		SessionID:   session.ID,
		Orientation: orientation,
		Outcomes:    make([]StyleOutcome, len(s.settings.Presets)),
	}

	for i, preset := range s.settings.Presets {
		outcome := &result.Outcomes[i]
		outcome.Style = preset.Style
		artifactID, err := s.store.CreateStyledArtifact(ctx, session.ID, preset.Style)
		if err != nil {
			s.fail(ctx, log, session.ID, outcome, StagePlaceholder, apperrors.Wrap(apperrors.KindInternal, err, "failed to create styled image record"))
			continue
		}
		outcome.ArtifactID = artifactID
	}

	imageID, err := s.generator.UploadSourceImage(ctx, in.Image, compositor.ExtensionFor(info.MimeType))
	if err != nil {
		log.Error().Err(err).Msg("source upload failed")
		for i := range result.Outcomes {
			if result.Outcomes[i].Err == nil {
				s.fail(ctx, log, session.ID, &result.Outcomes[i], StageSourceUpload, asKind(err, apperrors.KindUpstream, "source image upload failed"))
			}
		}
		s.publishCompleted(ctx, log, result)
		return result, nil
	}
	result.ImageID = imageID
	log.Info().Str("image_id", imageID).Int("styles", len(s.settings.Presets)).Msg("source uploaded, starting styles")

	logo := s.logoLoader(event, log)

	var g errgroup.Group
	for i, preset := range s.settings.Presets {
		outcome := &result.Outcomes[i]
		if outcome.Err != nil {
			continue
		}
		g.Go(func() error {
			s.runStyle(ctx, log, styleRun{
				preset:      preset,
				imageID:     imageID,
				orientation: orientation,
				userID:      in.UserID,
				eventID:     event.ID,
				sessionID:   session.ID,
				logo:        logo,
			}, outcome)
			return nil
		})
	}
	_ = g.Wait()

	s.publishCompleted(ctx, log, result)
	return result, nil
}

// logoFunc returns the event logo, or nil when there is none or it could
// not be fetched.
type logoFunc func() []byte

// logoLoader fetches the event logo at most once, on first use.
func (s *GenerationService) logoLoader(event *models.Event, log zerolog.Logger) logoFunc {
	if !event.HasLogo() {
		return func() []byte { return nil }
	}
	return sync.OnceValue(func() []byte {
		data, err := s.storage.Download(event.LogoPath.String)
		if err != nil {
			log.Warn().Err(err).Str("logo_path", event.LogoPath.String).Msg("logo download failed, using border only")
			return nil
		}
		return data
	})
}

type styleRun struct {
	preset      StylePreset
	imageID     string
	orientation models.Orientation
	userID      uuid.UUID
	eventID     uuid.UUID
	sessionID   uuid.UUID
	logo        logoFunc
}

// runStyle drives one style from submission to persisted artifact. Every
// failure stays inside this outcome.
func (s *GenerationService) runStyle(ctx context.Context, log zerolog.Logger, run styleRun, outcome *StyleOutcome) {
	log = log.With().Str("style", run.preset.Style.String()).Str("artifact_id", outcome.ArtifactID.String()).Logger()

	jobID, err := s.generator.SubmitGeneration(ctx, run.preset.Prompt, run.preset.Params, run.imageID, run.orientation)
	if err != nil {
		s.fail(ctx, log, run.sessionID, outcome, StageSubmit, asKind(err, apperrors.KindUpstream, "generation submit failed"))
		return
	}
	job := &models.GenerationJob{JobID: jobID, Style: run.preset.Style, Status: models.JobPending}
	outcome.GenerationID = jobID
	log = log.With().Str("job_id", jobID).Logger()
	log.Debug().Msg("generation submitted")

	if err := s.waitForJob(ctx, job); err != nil {
		s.fail(ctx, log, run.sessionID, outcome, StagePoll, err)
		return
	}
	outcome.UpstreamURL = job.ResultURL

	var generated []byte
	err = leonardo.RetryWithBackoff(ctx, s.settings.DownloadBackoff, s.settings.DownloadRetries, func() error {
		var err error
		generated, err = s.generator.DownloadResult(ctx, job.ResultURL)
		return err
	})
	if err != nil {
		s.fail(ctx, log, run.sessionID, outcome, StageDownload, asKind(err, apperrors.KindUpstream, "generated image download failed"))
		return
	}

	data, contentType, hasLogo := s.postProcess(log, generated, run.orientation, run.logo())
	outcome.HasLogo = hasLogo

	filename := fmt.Sprintf("%s.%s", outcome.ArtifactID.String(), compositor.ExtensionFor(contentType))
	storagePath := supabase.StyledImagePath(run.userID, run.eventID, run.sessionID, run.preset.Style, filename)
	storedPath, err := s.storage.Upload(data, storagePath, contentType)
	if err != nil {
		s.fail(ctx, log, run.sessionID, outcome, StageUpload, asKind(err, apperrors.KindStorage, "styled image upload failed"))
		return
	}

	if err := s.store.UpdateStyledArtifactPath(ctx, outcome.ArtifactID, storedPath); err != nil {
		s.fail(ctx, log, run.sessionID, outcome, StagePersist, apperrors.Wrap(apperrors.KindInternal, err, "failed to record storage path"))
		return
	}
	outcome.StoragePath = storedPath

	if signed, err := s.storage.CreateSignedURL(storedPath, s.settings.SignedURLTTL); err != nil {
		log.Warn().Err(err).Msg("failed to sign styled image url")
	} else {
		outcome.SignedURL = signed
	}

	log.Info().Str("storage_path", storedPath).Bool("has_logo", hasLogo).Msg("style completed")
	s.publish(ctx, log, run.sessionID, "style_completed",
		supabase.StyleCompletedPayload(run.sessionID, run.preset.Style, outcome.ArtifactID, storedPath))
}

// waitForJob polls until the job is terminal, the wait bound passes, or
// MaxPollErrors consecutive checks fail. The first check happens one
// interval after submission.
func (s *GenerationService) waitForJob(ctx context.Context, job *models.GenerationJob) error {
	ctx, cancel := context.WithTimeout(ctx, s.settings.MaxPollWait)
	defer cancel()

	ticker := time.NewTicker(s.settings.PollInterval)
	defer ticker.Stop()

	consecutiveErrors := 0
	for {
		select {
		case <-ctx.Done():
			return apperrors.Wrap(apperrors.KindTimeout, ctx.Err(), "generation %s did not finish within %s", job.JobID, s.settings.MaxPollWait)
		case <-ticker.C:
		}

		status, err := s.generator.PollJobStatus(ctx, job.JobID)
		if err != nil {
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return apperrors.Wrap(apperrors.KindTimeout, err, "generation %s did not finish within %s", job.JobID, s.settings.MaxPollWait)
			}
			consecutiveErrors++
			if consecutiveErrors >= s.settings.MaxPollErrors {
				return asKind(err, apperrors.KindUpstream, "generation status check failed")
			}
			continue
		}
		consecutiveErrors = 0

		job.Status = status.Status
		switch status.Status {
		case models.JobComplete:
			job.ResultURL = status.ResultURL
			return nil
		case models.JobFailed:
			return apperrors.New(apperrors.KindUpstream, "generation %s failed upstream", job.JobID)
		}
	}
}

// postProcess frames the generated image, with the logo when one is
// available. A compositing error falls back to the unmodified image.
func (s *GenerationService) postProcess(log zerolog.Logger, generated []byte, orientation models.Orientation, logo []byte) ([]byte, string, bool) {
	var (
		result *compositor.Result
		err    error
	)
	if logo != nil {
		result, err = compositor.MergeLogo(generated, logo, orientation)
	} else {
		result, err = compositor.AddBorder(generated, orientation)
	}
	if err != nil {
		log.Warn().Err(err).Bool("with_logo", logo != nil).Msg("compositing failed, uploading generated image as is")
		return generated, http.DetectContentType(generated), false
	}
	return result.Bytes, result.MimeType, logo != nil
}

func (s *GenerationService) fail(ctx context.Context, log zerolog.Logger, sessionID uuid.UUID, outcome *StyleOutcome, stage string, err error) {
	outcome.Stage = stage
	outcome.Err = err
	log.Error().Err(err).Str("style", outcome.Style.String()).Str("stage", stage).Msg("style failed")
	s.publish(ctx, log, sessionID, "style_failed", supabase.StyleFailedPayload(sessionID, outcome.Style, err.Error()))
}

func (s *GenerationService) publishCompleted(ctx context.Context, log zerolog.Logger, result *GenerateResult) {
	succeeded, failed := result.Counts()
	log.Info().Int("succeeded", succeeded).Int("failed", failed).Msg("generation finished")
	s.publish(ctx, log, result.SessionID, "generation_completed",
		supabase.GenerationCompletedPayload(result.SessionID, succeeded, failed))
}

func (s *GenerationService) publish(ctx context.Context, log zerolog.Logger, sessionID uuid.UUID, event string, payload map[string]interface{}) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.PublishSessionEvent(ctx, sessionID, event, payload); err != nil {
		log.Warn().Err(err).Str("event", event).Msg("failed to publish realtime event")
	}
}

// asKind tags err with kind unless it already carries one.
func asKind(err error, kind apperrors.Kind, message string) error {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.Wrap(kind, err, "%s", message)
}
