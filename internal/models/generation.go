package models

type JobStatus string

const (
	JobPending  JobStatus = "pending"
	JobComplete JobStatus = "complete"
	JobFailed   JobStatus = "failed"
)

// GenerationJob is one in-flight request to the generation service for a
// single style. It lives only for the duration of one upload request.
type GenerationJob struct {
	JobID     string
	Style     Style
	Status    JobStatus
	ResultURL string
}
