package entity

import "github.com/google/uuid"

// SceneSearchMessage is the inbound message from the scene.search queue.
// Mode "video" requires VideoKey; mode "captions" requires CaptionsKey.
type SceneSearchMessage struct {
	JobID       uuid.UUID  `json:"job_id"`
	UserID      string     `json:"user_id"`
	Mode        SearchMode `json:"mode"`
	VideoKey    string     `json:"video_key,omitempty"`
	CaptionsKey string     `json:"captions_key,omitempty"`
	Query       string     `json:"query"`
	Threshold   int        `json:"threshold,omitempty"`
	UserEmail   string     `json:"user_email,omitempty"`
}

// SearchStatusMessage is the outbound message published to the
// scene.status queue after every state change.
type SearchStatusMessage struct {
	JobID        uuid.UUID  `json:"job_id"`
	UserID       string     `json:"user_id"`
	Mode         SearchMode `json:"mode"`
	Status       JobStatus  `json:"status"`
	Query        string     `json:"query"`
	CollageKey   string     `json:"collage_key,omitempty"`
	FramesKey    string     `json:"frames_key,omitempty"`
	SceneCount   int        `json:"scene_count"`
	Duration     float64    `json:"duration_seconds,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	Attempt      int        `json:"attempt"`
	MaxAttempts  int        `json:"max_attempts"`
}
