package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDurationMinutesRoundsHalfUp(t *testing.T) {
	join := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	assert.Equal(t, 8, DurationMinutes(join, join.Add(7*time.Minute+30*time.Second)))
	assert.Equal(t, 7, DurationMinutes(join, join.Add(7*time.Minute+29*time.Second)))
	assert.Equal(t, 0, DurationMinutes(join, join))
}

func TestDurationMinutesNegativeWhenLeaveBeforeJoin(t *testing.T) {
	join := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	assert.Equal(t, -15, DurationMinutes(join, join.Add(-15*time.Minute)))
}

func TestIsOpen(t *testing.T) {
	now := time.Now()

	assert.False(t, (&AttendanceRecord{}).IsOpen())
	assert.True(t, (&AttendanceRecord{JoinTime: &now}).IsOpen())
	assert.False(t, (&AttendanceRecord{JoinTime: &now, LeaveTime: &now}).IsOpen())
}

func TestValidAttendanceStatus(t *testing.T) {
	assert.True(t, ValidAttendanceStatus(AttendancePresent))
	assert.True(t, ValidAttendanceStatus(AttendanceExcused))
	assert.False(t, ValidAttendanceStatus("tardy"))
	assert.False(t, ValidAttendanceStatus(""))
}
