package services

import (
	"time"

	"photobooth-backend/internal/leonardo"
	"photobooth-backend/internal/models"
)

// StylePreset binds a style to the prompt and generation parameters used
// to render it.
type StylePreset struct {
	Style  models.Style
	Prompt string
	Params leonardo.StyleParams
}

const defaultNegativePrompt = "blurry, distorted face, extra limbs, deformed hands, text, watermark"

// DefaultStylePresets returns one preset per style, in style order.
func DefaultStylePresets() []StylePreset {
	return []StylePreset{
		{
			Style:  models.StyleAnime,
			Prompt: "anime illustration of the people in the photo, clean line art, vibrant cel shading, expressive eyes, keep poses and composition",
			Params: leonardo.StyleParams{PresetStyle: "ANIME", InitStrength: 0.45, NegativePrompt: defaultNegativePrompt},
		},
		{
			Style:  models.StyleWatercolor,
			Prompt: "soft watercolor painting of the people in the photo, loose brush strokes, paper texture, pastel palette, keep poses and composition",
			Params: leonardo.StyleParams{PresetStyle: "ILLUSTRATION", InitStrength: 0.4, NegativePrompt: defaultNegativePrompt},
		},
		{
			Style:  models.StyleOil,
			Prompt: "classical oil painting portrait of the people in the photo, thick impasto brushwork, warm museum lighting, keep poses and composition",
			Params: leonardo.StyleParams{PresetStyle: "ILLUSTRATION", InitStrength: 0.4, NegativePrompt: defaultNegativePrompt},
		},
		{
			Style:  models.StyleDisney,
			Prompt: "3d animated movie still of the people in the photo, big friendly eyes, soft cinematic lighting, family film style, keep poses and composition",
			Params: leonardo.StyleParams{PresetStyle: "RENDER_3D", InitStrength: 0.45, NegativePrompt: defaultNegativePrompt},
		},
	}
}

// GenerationSettings is fixed at construction time; the service keeps its
// own copy.
type GenerationSettings struct {
	Presets []StylePreset

	PollInterval time.Duration
	// MaxPollWait bounds how long one style waits for its job. Past it the
	// style fails with a timeout.
	MaxPollWait time.Duration
	// MaxPollErrors is how many consecutive failed status checks a style
	// tolerates before giving up.
	MaxPollErrors int

	DownloadRetries int
	DownloadBackoff []time.Duration

	SignedURLTTL time.Duration
}

func DefaultGenerationSettings() GenerationSettings {
	return GenerationSettings{
		Presets:         DefaultStylePresets(),
		PollInterval:    3 * time.Second,
		MaxPollWait:     5 * time.Minute,
		MaxPollErrors:   3,
		DownloadRetries: 3,
		DownloadBackoff: leonardo.DefaultBackoff,
		SignedURLTTL:    time.Hour,
	}
}

// MaxRunDuration is the longest a single generation run can take when each
// upstream call is bounded by callTimeout: the source upload (two calls),
// the submit, the poll bound, then every download attempt and the backoff
// between them. Storage and database writes are not included.
func (s GenerationSettings) MaxRunDuration(callTimeout time.Duration) time.Duration {
	s = s.clone()
	d := 3*callTimeout + s.MaxPollWait
	d += time.Duration(s.DownloadRetries) * callTimeout
	if len(s.DownloadBackoff) > 0 {
		for i := 0; i < s.DownloadRetries-1; i++ {
			d += s.DownloadBackoff[min(i, len(s.DownloadBackoff)-1)]
		}
	}
	return d
}

func (s GenerationSettings) clone() GenerationSettings {
	s.Presets = append([]StylePreset(nil), s.Presets...)
	s.DownloadBackoff = append([]time.Duration(nil), s.DownloadBackoff...)
	if s.MaxPollErrors < 1 {
		s.MaxPollErrors = 1
	}
	if s.DownloadRetries < 1 {
		s.DownloadRetries = 1
	}
	return s
}
