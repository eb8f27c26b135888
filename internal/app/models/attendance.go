package models

import (
	"math"
	"time"
)

// AttendanceRecord captures one student's presence data for one session.
// Exactly one record exists per (session, student) pair; writes go through
// upsert semantics keyed on that uniqueness constraint.
type AttendanceRecord struct {
	ID        int64            `json:"id" db:"id"`
	SessionID int64            `json:"sessionId" db:"session_id"`
	StudentID int64            `json:"studentId" db:"student_id"`
	Status    AttendanceStatus `json:"status" db:"status"` // Defaults to "absent"
	Notes     string           `json:"notes" db:"notes"`
	JoinTime  *time.Time       `json:"joinTime,omitempty" db:"join_time"`   // Nullable
	LeaveTime *time.Time       `json:"leaveTime,omitempty" db:"leave_time"` // Nullable
	Duration  int              `json:"duration" db:"duration"`              // Minutes, derived from LeaveTime - JoinTime
	CreatedAt time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time        `json:"updatedAt" db:"updated_at"`

	// Relations (populated when needed)
	Student *User `json:"student,omitempty"`
}

// IsOpen reports whether the record has a join time but no leave time yet.
func (r *AttendanceRecord) IsOpen() bool {
	return r.JoinTime != nil && r.LeaveTime == nil
}

// DurationMinutes computes the rounded minute difference between two
// timestamps. The result may be negative when leave precedes join; the
// caller decides whether that is acceptable.
func DurationMinutes(join, leave time.Time) int {
	return int(math.Round(leave.Sub(join).Minutes()))
}
