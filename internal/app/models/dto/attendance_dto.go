package dto

import "time"

// MarkAttendanceRequest marks a single student's attendance for a session
type MarkAttendanceRequest struct {
	SessionID int64  `json:"sessionId" binding:"required" example:"7"`
	StudentID int64  `json:"studentId" binding:"required" example:"42"`
	Status    string `json:"status" binding:"required,oneof=present absent late excused" example:"present"`
	Notes     string `json:"notes,omitempty"`
}

// BulkAttendanceEntry is one row of a bulk mark
type BulkAttendanceEntry struct {
	StudentID int64  `json:"studentId" binding:"required"`
	Status    string `json:"status" binding:"required,oneof=present absent late excused"`
	Notes     string `json:"notes,omitempty"`
}

// BulkMarkAttendanceRequest marks attendance for many students at once
type BulkMarkAttendanceRequest struct {
	SessionID int64                 `json:"sessionId" binding:"required"`
	Records   []BulkAttendanceEntry `json:"records" binding:"required,min=1,dive"`
}

// BulkMarkResult reports what the batch write did
type BulkMarkResult struct {
	Matched  int `json:"matched"`
	Modified int `json:"modified"`
	Upserted int `json:"upserted"`
}

// UpdateAttendanceRequest corrects an existing attendance record. Only
// provided fields are overwritten.
type UpdateAttendanceRequest struct {
	Status    *string    `json:"status,omitempty" binding:"omitempty,oneof=present absent late excused"`
	Notes     *string    `json:"notes,omitempty"`
	JoinTime  *time.Time `json:"joinTime,omitempty"`
	LeaveTime *time.Time `json:"leaveTime,omitempty"`
}

// StudentAttendanceStats is the per-student breakdown within course stats
type StudentAttendanceStats struct {
	StudentID  int64  `json:"studentId"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Present    int    `json:"present"`
	Absent     int    `json:"absent"`
	Late       int    `json:"late"`
	Excused    int    `json:"excused"`
	Total      int    `json:"total"`
	Percentage int    `json:"percentage"`
}

// CourseAttendanceStats aggregates attendance across a course
type CourseAttendanceStats struct {
	CourseID      int64                    `json:"courseId"`
	TotalSessions int                      `json:"totalSessions"`
	TotalStudents int                      `json:"totalStudents"`
	Students      []StudentAttendanceStats `json:"students"`
}

// SessionAttendanceStats aggregates join data across one session. Average
// and max are taken over each student's summed duration, not over
// individual join/leave pairs.
type SessionAttendanceStats struct {
	SessionID       int64   `json:"sessionId"`
	UniqueStudents  int     `json:"uniqueStudents"`
	AverageDuration float64 `json:"averageDuration"`
	MaxDuration     int     `json:"maxDuration"`
	TotalJoins      int     `json:"totalJoins"`
}
