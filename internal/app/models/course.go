package models

import "time"

// Course represents a course taught by a teacher.
type Course struct {
	ID          int64     `json:"id" db:"id"`
	TeacherID   int64     `json:"teacherId" db:"teacher_id"`
	Code        string    `json:"code" db:"code"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description,omitempty" db:"description"` // Nullable
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`

	// Relations (populated when needed)
	Teacher *User `json:"teacher,omitempty"`
}

// Enrollment links a student to a course with a lifecycle status.
type Enrollment struct {
	ID         int64            `json:"id" db:"id"`
	CourseID   int64            `json:"courseId" db:"course_id"`
	StudentID  int64            `json:"studentId" db:"student_id"`
	Status     EnrollmentStatus `json:"status" db:"status"`
	EnrolledAt time.Time        `json:"enrolledAt" db:"enrolled_at"`

	// Relations (populated when needed)
	Student *User `json:"student,omitempty"`
}
