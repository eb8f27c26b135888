package dto

import "time"

// CreateAssignmentRequest publishes a new assignment to a course
type CreateAssignmentRequest struct {
	Title       string    `json:"title" binding:"required" example:"Problem Set 2"`
	Description *string   `json:"description,omitempty"`
	DueDate     time.Time `json:"dueDate" binding:"required"`
	MaxPoints   int       `json:"maxPoints" binding:"required,min=1" example:"100"`
}

// UpdateAssignmentRequest updates an existing assignment
type UpdateAssignmentRequest struct {
	Title       string    `json:"title" binding:"required"`
	Description *string   `json:"description,omitempty"`
	DueDate     time.Time `json:"dueDate" binding:"required"`
	MaxPoints   int       `json:"maxPoints" binding:"required,min=1"`
}

// GradeSubmissionRequest records a grade and feedback for a submission
type GradeSubmissionRequest struct {
	Grade    int     `json:"grade" binding:"min=0"`
	Feedback *string `json:"feedback,omitempty"`
}

// StudentGradeSummary is the per-student row of a course grade aggregation
type StudentGradeSummary struct {
	StudentID         int64   `json:"studentId"`
	FirstName         string  `json:"firstName"`
	LastName          string  `json:"lastName"`
	GradedSubmissions int     `json:"gradedSubmissions"`
	AveragePercent    float64 `json:"averagePercent"`
}
