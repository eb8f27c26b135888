package models

import "time"

// Assignment represents coursework published to a course.
type Assignment struct {
	ID          int64     `json:"id" db:"id"`
	CourseID    int64     `json:"courseId" db:"course_id"`
	Title       string    `json:"title" db:"title"`
	Description *string   `json:"description,omitempty" db:"description"` // Nullable
	DueDate     time.Time `json:"dueDate" db:"due_date"`
	MaxPoints   int       `json:"maxPoints" db:"max_points"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// Submission is a student's file-backed answer to an assignment.
// One submission row exists per (assignment, student); resubmitting
// replaces the file and increments Attempt.
type Submission struct {
	ID           int64      `json:"id" db:"id"`
	AssignmentID int64      `json:"assignmentId" db:"assignment_id"`
	StudentID    int64      `json:"studentId" db:"student_id"`
	FileName     string     `json:"fileName" db:"file_name"`
	FilePath     string     `json:"-" db:"file_path"`
	FileURL      string     `json:"fileUrl" db:"file_url"`
	FileSize     int64      `json:"fileSize" db:"file_size"`
	ContentType  string     `json:"contentType" db:"content_type"`
	SubmittedAt  time.Time  `json:"submittedAt" db:"submitted_at"`
	Attempt      int        `json:"attempt" db:"attempt"`
	IsLate       bool       `json:"isLate" db:"is_late"`
	Grade        *int       `json:"grade,omitempty" db:"grade"`       // Nullable until graded
	Feedback     *string    `json:"feedback,omitempty" db:"feedback"` // Nullable
	GradedAt     *time.Time `json:"gradedAt,omitempty" db:"graded_at"`

	// Relations (populated when needed)
	Student *User `json:"student,omitempty"`
}
