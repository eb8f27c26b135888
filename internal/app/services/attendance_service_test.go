package services

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appauth "github.com/ozan/classpoint/internal/app/auth"
	"github.com/ozan/classpoint/internal/app/models"
	"github.com/ozan/classpoint/internal/app/models/dto"
	"github.com/ozan/classpoint/internal/pkg/apperrors"
)

const (
	testTeacherID = int64(1)
	testStudentID = int64(42)
	testCourseID  = int64(10)
	testSessionID = int64(7)
)

type fakeAttendanceStore struct {
	nextID        int64
	records       map[int64]*models.AttendanceRecord
	sessionCourse map[int64]int64
	statusCounts  []dto.StudentAttendanceStats
	durationStats *dto.SessionAttendanceStats
	bulkCalls     int
}

func newFakeStore() *fakeAttendanceStore {
	return &fakeAttendanceStore{
		records:       make(map[int64]*models.AttendanceRecord),
		sessionCourse: map[int64]int64{testSessionID: testCourseID},
	}
}

func cloneRecord(r *models.AttendanceRecord) *models.AttendanceRecord {
	c := *r
	if r.JoinTime != nil {
		t := *r.JoinTime
		c.JoinTime = &t
	}
	if r.LeaveTime != nil {
		t := *r.LeaveTime
		c.LeaveTime = &t
	}
	return &c
}

func (f *fakeAttendanceStore) find(sessionID, studentID int64) *models.AttendanceRecord {
	for _, r := range f.records {
		if r.SessionID == sessionID && r.StudentID == studentID {
			return r
		}
	}
	return nil
}

func (f *fakeAttendanceStore) CreateRecord(ctx context.Context, record *models.AttendanceRecord) (int64, error) {
	if f.find(record.SessionID, record.StudentID) != nil {
		return 0, apperrors.ErrAttendanceExists
	}
	f.nextID++
	c := cloneRecord(record)
	c.ID = f.nextID
	f.records[c.ID] = c
	return c.ID, nil
}

func (f *fakeAttendanceStore) UpdateRecord(ctx context.Context, record *models.AttendanceRecord) error {
	if _, ok := f.records[record.ID]; !ok {
		return apperrors.ErrAttendanceNotFound
	}
	f.records[record.ID] = cloneRecord(record)
	return nil
}

func (f *fakeAttendanceStore) GetByID(ctx context.Context, id int64) (*models.AttendanceRecord, error) {
	r, ok := f.records[id]
	if !ok {
		return nil, apperrors.ErrAttendanceNotFound
	}
	return cloneRecord(r), nil
}

func (f *fakeAttendanceStore) GetBySessionAndStudent(ctx context.Context, sessionID, studentID int64) (*models.AttendanceRecord, error) {
	if r := f.find(sessionID, studentID); r != nil {
		return cloneRecord(r), nil
	}
	return nil, apperrors.ErrAttendanceNotFound
}

func (f *fakeAttendanceStore) GetOpenBySessionAndStudent(ctx context.Context, sessionID, studentID int64) (*models.AttendanceRecord, error) {
	if r := f.find(sessionID, studentID); r != nil && r.IsOpen() {
		return cloneRecord(r), nil
	}
	return nil, apperrors.ErrAttendanceNotFound
}

func (f *fakeAttendanceStore) ListBySession(ctx context.Context, sessionID int64) ([]*models.AttendanceRecord, error) {
	var out []*models.AttendanceRecord
	for _, r := range f.records {
		if r.SessionID == sessionID {
			out = append(out, cloneRecord(r))
		}
	}
	return out, nil
}

func (f *fakeAttendanceStore) ListByStudentAndCourse(ctx context.Context, studentID, courseID int64) ([]*models.AttendanceRecord, error) {
	var out []*models.AttendanceRecord
	for _, r := range f.records {
		if r.StudentID == studentID && f.sessionCourse[r.SessionID] == courseID {
			out = append(out, cloneRecord(r))
		}
	}
	return out, nil
}

func (f *fakeAttendanceStore) BulkUpsert(ctx context.Context, records []*models.AttendanceRecord) (int, error) {
	f.bulkCalls++
	inserted := 0
	for _, r := range records {
		existing := f.find(r.SessionID, r.StudentID)
		if existing == nil {
			f.nextID++
			c := cloneRecord(r)
			c.ID = f.nextID
			f.records[c.ID] = c
			inserted++
			continue
		}
		existing.Status = r.Status
		existing.Notes = r.Notes
		if r.JoinTime != nil {
			t := *r.JoinTime
			existing.JoinTime = &t
		} else {
			existing.JoinTime = nil
		}
	}
	return inserted, nil
}

func (f *fakeAttendanceStore) CloseAllOpen(ctx context.Context, sessionID int64, leaveTime time.Time) (int64, error) {
	var closed int64
	for _, r := range f.records {
		if r.SessionID == sessionID && r.IsOpen() {
			t := leaveTime
			r.LeaveTime = &t
			r.Duration = models.DurationMinutes(*r.JoinTime, leaveTime)
			closed++
		}
	}
	return closed, nil
}

func (f *fakeAttendanceStore) DeleteBySession(ctx context.Context, sessionID int64) (int64, error) {
	var deleted int64
	for id, r := range f.records {
		if r.SessionID == sessionID {
			delete(f.records, id)
			deleted++
		}
	}
	return deleted, nil
}

func (f *fakeAttendanceStore) GetCourseStatusCounts(ctx context.Context, courseID int64) ([]dto.StudentAttendanceStats, error) {
	return f.statusCounts, nil
}

func (f *fakeAttendanceStore) GetSessionDurationStats(ctx context.Context, sessionID int64) (*dto.SessionAttendanceStats, error) {
	return f.durationStats, nil
}

type fakeSessionReader struct {
	sessions map[int64]*models.Session
	counts   map[int64]int
}

func (f *fakeSessionReader) GetSessionByID(ctx context.Context, id int64) (*models.Session, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, apperrors.ErrSessionNotFound
	}
	return s, nil
}

func (f *fakeSessionReader) CountSessionsByCourse(ctx context.Context, courseID int64) (int, error) {
	return f.counts[courseID], nil
}

type fakeAuthorizer struct {
	sessions  map[int64]*models.Session
	teacherID int64
	enrolled  map[int64]map[int64]bool
}

func (f *fakeAuthorizer) ValidateSessionOwnership(ctx context.Context, sessionID, userID int64) (*models.Session, error) {
	s, ok := f.sessions[sessionID]
	if !ok {
		return nil, apperrors.ErrSessionNotFound
	}
	if userID != f.teacherID {
		return nil, appauth.ErrPermissionDenied
	}
	return s, nil
}

func (f *fakeAuthorizer) ValidateSessionAccess(ctx context.Context, sessionID, userID int64) (*models.Session, error) {
	s, ok := f.sessions[sessionID]
	if !ok {
		return nil, apperrors.ErrSessionNotFound
	}
	if userID == f.teacherID || f.enrolled[s.CourseID][userID] {
		return s, nil
	}
	return nil, appauth.ErrPermissionDenied
}

func (f *fakeAuthorizer) ValidateCourseOwnership(ctx context.Context, courseID, userID int64) error {
	if userID != f.teacherID {
		return appauth.ErrPermissionDenied
	}
	return nil
}

func (f *fakeAuthorizer) ValidateActiveEnrollment(ctx context.Context, courseID, studentID int64) error {
	if !f.enrolled[courseID][studentID] {
		return apperrors.ErrNotEnrolled
	}
	return nil
}

func newTestService(t *testing.T) (*AttendanceService, *fakeAttendanceStore, *fakeAuthorizer, time.Time) {
	t.Helper()

	sessions := map[int64]*models.Session{
		testSessionID: {ID: testSessionID, CourseID: testCourseID, Title: "Week 1"},
	}
	store := newFakeStore()
	reader := &fakeSessionReader{sessions: sessions, counts: map[int64]int{testCourseID: 1}}
	authz := &fakeAuthorizer{
		sessions:  sessions,
		teacherID: testTeacherID,
		enrolled:  map[int64]map[int64]bool{testCourseID: {testStudentID: true}},
	}

	svc := NewAttendanceService(store, reader, authz, zerolog.Nop())
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	return svc, store, authz, now
}

func TestMarkAttendancePresentSetsJoinTime(t *testing.T) {
	svc, store, _, now := newTestService(t)

	record, err := svc.MarkAttendance(context.Background(), testTeacherID, &dto.MarkAttendanceRequest{
		SessionID: testSessionID,
		StudentID: testStudentID,
		Status:    "present",
	})
	require.NoError(t, err)

	require.NotNil(t, record.JoinTime)
	assert.True(t, record.JoinTime.Equal(now))
	assert.Equal(t, models.AttendancePresent, record.Status)
	assert.Len(t, store.records, 1)
}

func TestMarkAttendanceAbsentLeavesJoinTimeEmpty(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	record, err := svc.MarkAttendance(context.Background(), testTeacherID, &dto.MarkAttendanceRequest{
		SessionID: testSessionID,
		StudentID: testStudentID,
		Status:    "absent",
	})
	require.NoError(t, err)

	assert.Nil(t, record.JoinTime)
	assert.Equal(t, models.AttendanceAbsent, record.Status)
}

func TestMarkAttendanceRemarkKeepsJoinTime(t *testing.T) {
	svc, store, _, now := newTestService(t)

	_, err := svc.MarkAttendance(context.Background(), testTeacherID, &dto.MarkAttendanceRequest{
		SessionID: testSessionID,
		StudentID: testStudentID,
		Status:    "present",
	})
	require.NoError(t, err)

	record, err := svc.MarkAttendance(context.Background(), testTeacherID, &dto.MarkAttendanceRequest{
		SessionID: testSessionID,
		StudentID: testStudentID,
		Status:    "absent",
		Notes:     "left early",
	})
	require.NoError(t, err)

	// Correcting the status must not erase evidence the student was there
	assert.Equal(t, models.AttendanceAbsent, record.Status)
	assert.Equal(t, "left early", record.Notes)
	require.NotNil(t, record.JoinTime)
	assert.True(t, record.JoinTime.Equal(now))
	assert.Len(t, store.records, 1)
}

func TestMarkAttendanceNotOwnerWritesNothing(t *testing.T) {
	svc, store, _, _ := newTestService(t)

	_, err := svc.MarkAttendance(context.Background(), int64(99), &dto.MarkAttendanceRequest{
		SessionID: testSessionID,
		StudentID: testStudentID,
		Status:    "present",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, appauth.ErrPermissionDenied)
	assert.Empty(t, store.records)
}

func TestMarkAttendanceUnenrolledStudentRejected(t *testing.T) {
	svc, store, _, _ := newTestService(t)

	_, err := svc.MarkAttendance(context.Background(), testTeacherID, &dto.MarkAttendanceRequest{
		SessionID: testSessionID,
		StudentID: int64(555),
		Status:    "present",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotEnrolled)
	assert.Empty(t, store.records)
}

func TestMarkBulkAttendanceCounts(t *testing.T) {
	svc, store, authz, _ := newTestService(t)
	authz.enrolled[testCourseID][43] = true

	// Pre-existing record for one of the two students
	_, err := svc.MarkAttendance(context.Background(), testTeacherID, &dto.MarkAttendanceRequest{
		SessionID: testSessionID,
		StudentID: testStudentID,
		Status:    "present",
	})
	require.NoError(t, err)

	result, err := svc.MarkBulkAttendance(context.Background(), testTeacherID, &dto.BulkMarkAttendanceRequest{
		SessionID: testSessionID,
		Records: []dto.BulkAttendanceEntry{
			{StudentID: testStudentID, Status: "late"},
			{StudentID: 43, Status: "present"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Matched)
	assert.Equal(t, 1, result.Modified)
	assert.Equal(t, 1, result.Upserted)
	assert.Len(t, store.records, 2)
}

func TestMarkBulkAttendanceResetsJoinTime(t *testing.T) {
	svc, store, _, _ := newTestService(t)

	// Single mark leaves a join time behind
	_, err := svc.MarkAttendance(context.Background(), testTeacherID, &dto.MarkAttendanceRequest{
		SessionID: testSessionID,
		StudentID: testStudentID,
		Status:    "present",
	})
	require.NoError(t, err)

	_, err = svc.MarkBulkAttendance(context.Background(), testTeacherID, &dto.BulkMarkAttendanceRequest{
		SessionID: testSessionID,
		Records: []dto.BulkAttendanceEntry{
			{StudentID: testStudentID, Status: "absent"},
		},
	})
	require.NoError(t, err)

	record := store.find(testSessionID, testStudentID)
	require.NotNil(t, record)
	assert.Equal(t, models.AttendanceAbsent, record.Status)
	// Bulk overwrites join times unconditionally, unlike single mark
	assert.Nil(t, record.JoinTime)
}

func TestMarkBulkAttendanceUnenrolledRejectsWholeBatch(t *testing.T) {
	svc, store, _, _ := newTestService(t)

	_, err := svc.MarkBulkAttendance(context.Background(), testTeacherID, &dto.BulkMarkAttendanceRequest{
		SessionID: testSessionID,
		Records: []dto.BulkAttendanceEntry{
			{StudentID: testStudentID, Status: "present"},
			{StudentID: 555, Status: "present"},
		},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
	assert.Contains(t, err.Error(), "555")
	assert.Empty(t, store.records)
	assert.Zero(t, store.bulkCalls)
}

func TestMarkBulkAttendanceInvalidStatusRejected(t *testing.T) {
	svc, store, _, _ := newTestService(t)

	_, err := svc.MarkBulkAttendance(context.Background(), testTeacherID, &dto.BulkMarkAttendanceRequest{
		SessionID: testSessionID,
		Records: []dto.BulkAttendanceEntry{
			{StudentID: testStudentID, Status: "tardy"},
		},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	assert.Empty(t, store.records)
}

func TestRecordJoinCreatesOpenRecord(t *testing.T) {
	svc, _, _, now := newTestService(t)

	record, err := svc.RecordJoin(context.Background(), testSessionID, testStudentID)
	require.NoError(t, err)

	assert.Equal(t, models.AttendancePresent, record.Status)
	require.NotNil(t, record.JoinTime)
	assert.True(t, record.JoinTime.Equal(now))
	assert.Nil(t, record.LeaveTime)
	assert.True(t, record.IsOpen())
}

func TestRecordJoinIsIdempotentWhileOpen(t *testing.T) {
	svc, store, _, _ := newTestService(t)

	first, err := svc.RecordJoin(context.Background(), testSessionID, testStudentID)
	require.NoError(t, err)

	second, err := svc.RecordJoin(context.Background(), testSessionID, testStudentID)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.True(t, first.JoinTime.Equal(*second.JoinTime))
	assert.Len(t, store.records, 1)
}

func TestRecordJoinReopensClosedRecord(t *testing.T) {
	svc, store, _, now := newTestService(t)

	_, err := svc.RecordJoin(context.Background(), testSessionID, testStudentID)
	require.NoError(t, err)

	leaveAt := now.Add(30 * time.Minute)
	svc.now = func() time.Time { return leaveAt }
	closed, err := svc.RecordLeave(context.Background(), testSessionID, testStudentID)
	require.NoError(t, err)
	require.NotNil(t, closed.LeaveTime)

	rejoinAt := now.Add(45 * time.Minute)
	svc.now = func() time.Time { return rejoinAt }
	reopened, err := svc.RecordJoin(context.Background(), testSessionID, testStudentID)
	require.NoError(t, err)

	assert.Equal(t, closed.ID, reopened.ID)
	assert.Equal(t, models.AttendancePresent, reopened.Status)
	require.NotNil(t, reopened.JoinTime)
	assert.True(t, reopened.JoinTime.Equal(rejoinAt))
	assert.Nil(t, reopened.LeaveTime)
	assert.Zero(t, reopened.Duration)
	assert.Len(t, store.records, 1)
}

func TestRecordJoinUnenrolledRejected(t *testing.T) {
	svc, store, _, _ := newTestService(t)

	_, err := svc.RecordJoin(context.Background(), testSessionID, int64(555))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotEnrolled)
	assert.Empty(t, store.records)
}

func TestRecordLeaveRoundsDurationToNearestMinute(t *testing.T) {
	svc, _, _, now := newTestService(t)

	_, err := svc.RecordJoin(context.Background(), testSessionID, testStudentID)
	require.NoError(t, err)

	svc.now = func() time.Time { return now.Add(7*time.Minute + 30*time.Second) }
	record, err := svc.RecordLeave(context.Background(), testSessionID, testStudentID)
	require.NoError(t, err)

	require.NotNil(t, record.LeaveTime)
	assert.Equal(t, 8, record.Duration)
	assert.False(t, record.IsOpen())
}

func TestRecordLeaveWithoutOpenRecordIsNoOp(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	record, err := svc.RecordLeave(context.Background(), testSessionID, testStudentID)
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestCloseAllAttendanceRecordsClosesOnlyOpenOnes(t *testing.T) {
	svc, store, authz, now := newTestService(t)
	authz.enrolled[testCourseID][43] = true

	_, err := svc.RecordJoin(context.Background(), testSessionID, testStudentID)
	require.NoError(t, err)
	_, err = svc.RecordJoin(context.Background(), testSessionID, 43)
	require.NoError(t, err)

	// First student leaves on their own
	svc.now = func() time.Time { return now.Add(20 * time.Minute) }
	_, err = svc.RecordLeave(context.Background(), testSessionID, testStudentID)
	require.NoError(t, err)

	svc.now = func() time.Time { return now.Add(60 * time.Minute) }
	closed, err := svc.CloseAllAttendanceRecords(context.Background(), testSessionID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), closed)

	straggler := store.find(testSessionID, 43)
	require.NotNil(t, straggler)
	assert.Equal(t, 60, straggler.Duration)

	early := store.find(testSessionID, testStudentID)
	require.NotNil(t, early)
	assert.Equal(t, 20, early.Duration)
}

func TestUpdateAttendanceRecomputesDuration(t *testing.T) {
	svc, _, _, now := newTestService(t)

	created, err := svc.MarkAttendance(context.Background(), testTeacherID, &dto.MarkAttendanceRequest{
		SessionID: testSessionID,
		StudentID: testStudentID,
		Status:    "present",
	})
	require.NoError(t, err)

	join := now
	leave := now.Add(90 * time.Minute)
	updated, err := svc.UpdateAttendance(context.Background(), testTeacherID, created.ID, &dto.UpdateAttendanceRequest{
		JoinTime:  &join,
		LeaveTime: &leave,
	})
	require.NoError(t, err)
	assert.Equal(t, 90, updated.Duration)
}

func TestUpdateAttendanceAllowsNegativeDuration(t *testing.T) {
	svc, _, _, now := newTestService(t)

	created, err := svc.MarkAttendance(context.Background(), testTeacherID, &dto.MarkAttendanceRequest{
		SessionID: testSessionID,
		StudentID: testStudentID,
		Status:    "present",
	})
	require.NoError(t, err)

	join := now
	leave := now.Add(-15 * time.Minute)
	updated, err := svc.UpdateAttendance(context.Background(), testTeacherID, created.ID, &dto.UpdateAttendanceRequest{
		JoinTime:  &join,
		LeaveTime: &leave,
	})
	require.NoError(t, err)
	assert.Equal(t, -15, updated.Duration)
}

func TestUpdateAttendanceInvalidStatusRejected(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	created, err := svc.MarkAttendance(context.Background(), testTeacherID, &dto.MarkAttendanceRequest{
		SessionID: testSessionID,
		StudentID: testStudentID,
		Status:    "present",
	})
	require.NoError(t, err)

	bad := "tardy"
	_, err = svc.UpdateAttendance(context.Background(), testTeacherID, created.ID, &dto.UpdateAttendanceRequest{
		Status: &bad,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestGetStudentCourseAttendanceSelfAccess(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.RecordJoin(context.Background(), testSessionID, testStudentID)
	require.NoError(t, err)

	records, err := svc.GetStudentCourseAttendance(context.Background(), testStudentID, testStudentID, testCourseID)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestGetStudentCourseAttendanceOtherStudentDenied(t *testing.T) {
	svc, _, authz, _ := newTestService(t)
	authz.enrolled[testCourseID][43] = true

	_, err := svc.GetStudentCourseAttendance(context.Background(), int64(43), testStudentID, testCourseID)
	require.Error(t, err)
	assert.ErrorIs(t, err, appauth.ErrPermissionDenied)
}

func TestGetCourseAttendanceStatsPercentages(t *testing.T) {
	svc, store, _, _ := newTestService(t)

	store.statusCounts = []dto.StudentAttendanceStats{
		{StudentID: 1, Present: 1},
		{StudentID: 2, Absent: 1},
		{StudentID: 3, Late: 1},
	}

	stats, err := svc.GetCourseAttendanceStats(context.Background(), testTeacherID, testCourseID)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.TotalSessions)
	assert.Equal(t, 3, stats.TotalStudents)
	require.Len(t, stats.Students, 3)

	assert.Equal(t, 1, stats.Students[0].Total)
	assert.Equal(t, 100, stats.Students[0].Percentage)
	assert.Equal(t, 0, stats.Students[1].Percentage)
	// Late still counts as attended
	assert.Equal(t, 100, stats.Students[2].Percentage)
}

func TestGetCourseAttendanceStatsNotOwnerDenied(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.GetCourseAttendanceStats(context.Background(), testStudentID, testCourseID)
	require.Error(t, err)
	assert.ErrorIs(t, err, appauth.ErrPermissionDenied)
}

func TestDeleteSessionRecords(t *testing.T) {
	svc, store, _, _ := newTestService(t)

	_, err := svc.RecordJoin(context.Background(), testSessionID, testStudentID)
	require.NoError(t, err)

	deleted, err := svc.DeleteSessionRecords(context.Background(), testSessionID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	assert.Empty(t, store.records)
}
