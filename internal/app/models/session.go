package models

import "time"

// Session represents a scheduled, time-boxed class meeting within a course.
type Session struct {
	ID           int64     `json:"id" db:"id"`
	CourseID     int64     `json:"courseId" db:"course_id"`
	Title        string    `json:"title" db:"title"`
	StartTime    time.Time `json:"startTime" db:"start_time"`
	EndTime      time.Time `json:"endTime" db:"end_time"` // Must be after StartTime
	MeetingURL   string    `json:"meetingUrl" db:"meeting_url"`
	IsCompleted  bool      `json:"isCompleted" db:"is_completed"`
	RecordingURL *string   `json:"recordingUrl,omitempty" db:"recording_url"` // Nullable
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}
