package dto

import "time"

// CreateSessionRequest schedules a new class session
type CreateSessionRequest struct {
	Title     string    `json:"title" binding:"required" example:"Week 3: Pointers"`
	StartTime time.Time `json:"startTime" binding:"required"`
	EndTime   time.Time `json:"endTime" binding:"required"`
}

// UpdateSessionRequest updates a scheduled session
type UpdateSessionRequest struct {
	Title     string    `json:"title" binding:"required"`
	StartTime time.Time `json:"startTime" binding:"required"`
	EndTime   time.Time `json:"endTime" binding:"required"`
}

// CompleteSessionRequest marks a session completed, optionally attaching
// the recording link
type CompleteSessionRequest struct {
	RecordingURL *string `json:"recordingUrl,omitempty"`
}
