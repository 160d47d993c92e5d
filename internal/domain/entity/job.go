package entity

import (
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusFailed     JobStatus = "FAILED"
)

// SearchMode selects which pipeline a job runs: asking the video model
// for matching scenes, or fuzzy-matching a persisted caption store.
type SearchMode string

const (
	SearchModeVideo    SearchMode = "video"
	SearchModeCaptions SearchMode = "captions"
)

type SearchJob struct {
	ID            uuid.UUID
	UserID        string
	Mode          SearchMode
	VideoKey      string
	CaptionsKey   string
	Query         string
	Threshold     int
	Status        JobStatus
	CollageKey    string
	FramesKey     string
	SceneCount    int
	VideoDuration float64
	Attempt       int
	MaxAttempts   int
	ErrorMessage  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	CompletedAt   *time.Time
}

func NewSearchJob(userID string, mode SearchMode, query string, maxAttempts int) *SearchJob {
	now := time.Now().UTC()
	return &SearchJob{
		ID:          uuid.New(),
		UserID:      userID,
		Mode:        mode,
		Query:       query,
		Status:      JobStatusPending,
		Attempt:     0,
		MaxAttempts: maxAttempts,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (j *SearchJob) MarkProcessing() {
	j.Status = JobStatusProcessing
	j.Attempt++
	j.UpdatedAt = time.Now().UTC()
}

// MarkCompleted records the result artifacts. A job with zero matched
// scenes still completes; empty results are a legitimate outcome of
// fuzzy matching and model uncertainty.
func (j *SearchJob) MarkCompleted(collageKey, framesKey string, sceneCount int, duration float64) {
	now := time.Now().UTC()
	j.Status = JobStatusCompleted
	j.CollageKey = collageKey
	j.FramesKey = framesKey
	j.SceneCount = sceneCount
	j.VideoDuration = duration
	j.ErrorMessage = ""
	j.UpdatedAt = now
	j.CompletedAt = &now
}

func (j *SearchJob) MarkFailed(errMsg string) {
	j.Status = JobStatusFailed
	j.ErrorMessage = errMsg
	j.UpdatedAt = time.Now().UTC()
}

func (j *SearchJob) CanRetry() bool {
	return j.Attempt < j.MaxAttempts
}
