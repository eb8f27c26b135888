package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ozan/classpoint/internal/app/models"
	"github.com/ozan/classpoint/internal/app/models/dto"
	"github.com/ozan/classpoint/internal/pkg/apperrors"
	"github.com/rs/zerolog"
)

// attendanceStore is the persistence surface the attendance ledger needs.
// *repositories.AttendanceRepository satisfies it.
type attendanceStore interface {
	CreateRecord(ctx context.Context, record *models.AttendanceRecord) (int64, error)
	UpdateRecord(ctx context.Context, record *models.AttendanceRecord) error
	GetByID(ctx context.Context, id int64) (*models.AttendanceRecord, error)
	GetBySessionAndStudent(ctx context.Context, sessionID, studentID int64) (*models.AttendanceRecord, error)
	GetOpenBySessionAndStudent(ctx context.Context, sessionID, studentID int64) (*models.AttendanceRecord, error)
	ListBySession(ctx context.Context, sessionID int64) ([]*models.AttendanceRecord, error)
	ListByStudentAndCourse(ctx context.Context, studentID, courseID int64) ([]*models.AttendanceRecord, error)
	BulkUpsert(ctx context.Context, records []*models.AttendanceRecord) (int, error)
	CloseAllOpen(ctx context.Context, sessionID int64, leaveTime time.Time) (int64, error)
	DeleteBySession(ctx context.Context, sessionID int64) (int64, error)
	GetCourseStatusCounts(ctx context.Context, courseID int64) ([]dto.StudentAttendanceStats, error)
	GetSessionDurationStats(ctx context.Context, sessionID int64) (*dto.SessionAttendanceStats, error)
}

// sessionReader resolves sessions and per-course session counts.
// *repositories.SessionRepository satisfies it.
type sessionReader interface {
	GetSessionByID(ctx context.Context, id int64) (*models.Session, error)
	CountSessionsByCourse(ctx context.Context, courseID int64) (int, error)
}

// attendanceAuthorizer holds the access predicates the ledger consults.
// *auth.AuthorizationService satisfies it.
type attendanceAuthorizer interface {
	ValidateSessionOwnership(ctx context.Context, sessionID, userID int64) (*models.Session, error)
	ValidateSessionAccess(ctx context.Context, sessionID, userID int64) (*models.Session, error)
	ValidateCourseOwnership(ctx context.Context, courseID, userID int64) error
	ValidateActiveEnrollment(ctx context.Context, courseID, studentID int64) error
}

// AttendanceService maintains the per-session attendance ledger
type AttendanceService struct {
	store    attendanceStore
	sessions sessionReader
	authz    attendanceAuthorizer
	logger   zerolog.Logger
	now      func() time.Time
}

// NewAttendanceService creates a new AttendanceService
func NewAttendanceService(
	store attendanceStore,
	sessions sessionReader,
	authz attendanceAuthorizer,
	logger zerolog.Logger,
) *AttendanceService {
	return &AttendanceService{
		store:    store,
		sessions: sessions,
		authz:    authz,
		logger:   logger,
		now:      time.Now,
	}
}

// MarkAttendance upserts a single student's record. An existing record keeps
// its join time unless the new status is "present" and none was set before.
func (s *AttendanceService) MarkAttendance(ctx context.Context, callerID int64, req *dto.MarkAttendanceRequest) (*models.AttendanceRecord, error) {
	session, err := s.authz.ValidateSessionOwnership(ctx, req.SessionID, callerID)
	if err != nil {
		return nil, err
	}

	if err := s.authz.ValidateActiveEnrollment(ctx, session.CourseID, req.StudentID); err != nil {
		return nil, err
	}

	status := models.AttendanceStatus(req.Status)

	existing, err := s.store.GetBySessionAndStudent(ctx, req.SessionID, req.StudentID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrAttendanceNotFound) {
			return nil, err
		}

		record := &models.AttendanceRecord{
			SessionID: req.SessionID,
			StudentID: req.StudentID,
			Status:    status,
			Notes:     req.Notes,
		}
		if status == models.AttendancePresent {
			now := s.now()
			record.JoinTime = &now
		}

		id, createErr := s.store.CreateRecord(ctx, record)
		if createErr == nil {
			return s.store.GetByID(ctx, id)
		}
		if !errors.Is(createErr, apperrors.ErrAttendanceExists) {
			return nil, createErr
		}

		// Lost the create race; fall through to the update path
		existing, err = s.store.GetBySessionAndStudent(ctx, req.SessionID, req.StudentID)
		if err != nil {
			return nil, err
		}
	}

	existing.Status = status
	existing.Notes = req.Notes
	if status == models.AttendancePresent && existing.JoinTime == nil {
		now := s.now()
		existing.JoinTime = &now
	}

	if err := s.store.UpdateRecord(ctx, existing); err != nil {
		return nil, err
	}

	return existing, nil
}

// MarkBulkAttendance upserts many records in one batch. Every student must be
// actively enrolled before anything is written; one failure rejects the whole
// batch. Unlike single mark, the batch always overwrites join times: now for
// "present" entries, null for everything else.
func (s *AttendanceService) MarkBulkAttendance(ctx context.Context, callerID int64, req *dto.BulkMarkAttendanceRequest) (*dto.BulkMarkResult, error) {
	session, err := s.authz.ValidateSessionOwnership(ctx, req.SessionID, callerID)
	if err != nil {
		return nil, err
	}

	for _, entry := range req.Records {
		if !models.ValidAttendanceStatus(models.AttendanceStatus(entry.Status)) {
			return nil, apperrors.NewValidationError(fmt.Sprintf("invalid attendance status %q for student %d", entry.Status, entry.StudentID))
		}
		if err := s.authz.ValidateActiveEnrollment(ctx, session.CourseID, entry.StudentID); err != nil {
			if errors.Is(err, apperrors.ErrNotEnrolled) {
				return nil, apperrors.NewInvalidStateError(fmt.Sprintf("student %d is not actively enrolled in this course", entry.StudentID))
			}
			return nil, err
		}
	}

	now := s.now()
	records := make([]*models.AttendanceRecord, 0, len(req.Records))
	for _, entry := range req.Records {
		record := &models.AttendanceRecord{
			SessionID: req.SessionID,
			StudentID: entry.StudentID,
			Status:    models.AttendanceStatus(entry.Status),
			Notes:     entry.Notes,
		}
		if record.Status == models.AttendancePresent {
			joined := now
			record.JoinTime = &joined
		}
		records = append(records, record)
	}

	inserted, err := s.store.BulkUpsert(ctx, records)
	if err != nil {
		return nil, err
	}

	matched := len(records) - inserted
	s.logger.Info().
		Int64("sessionID", req.SessionID).
		Int("upserted", inserted).
		Int("matched", matched).
		Msg("Bulk attendance marked")

	return &dto.BulkMarkResult{
		Matched:  matched,
		Modified: matched,
		Upserted: inserted,
	}, nil
}

// RecordJoin registers a student joining a live session. A second join with
// no intervening leave returns the open record unchanged.
func (s *AttendanceService) RecordJoin(ctx context.Context, sessionID, studentID int64) (*models.AttendanceRecord, error) {
	session, err := s.sessions.GetSessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if err := s.authz.ValidateActiveEnrollment(ctx, session.CourseID, studentID); err != nil {
		return nil, err
	}

	existing, err := s.store.GetBySessionAndStudent(ctx, sessionID, studentID)
	if err == nil {
		if existing.IsOpen() {
			return existing, nil
		}
		return s.reopenRecord(ctx, existing)
	}
	if !errors.Is(err, apperrors.ErrAttendanceNotFound) {
		return nil, err
	}

	now := s.now()
	record := &models.AttendanceRecord{
		SessionID: sessionID,
		StudentID: studentID,
		Status:    models.AttendancePresent,
		JoinTime:  &now,
	}

	id, err := s.store.CreateRecord(ctx, record)
	if err != nil {
		if errors.Is(err, apperrors.ErrAttendanceExists) {
			// Concurrent join won the create; reuse its record
			existing, getErr := s.store.GetBySessionAndStudent(ctx, sessionID, studentID)
			if getErr != nil {
				return nil, getErr
			}
			if existing.IsOpen() {
				return existing, nil
			}
			return s.reopenRecord(ctx, existing)
		}
		return nil, err
	}

	return s.store.GetByID(ctx, id)
}

// reopenRecord stamps a fresh join on a record whose previous visit, if any,
// has ended
func (s *AttendanceService) reopenRecord(ctx context.Context, record *models.AttendanceRecord) (*models.AttendanceRecord, error) {
	now := s.now()
	record.Status = models.AttendancePresent
	record.JoinTime = &now
	record.LeaveTime = nil
	record.Duration = 0

	if err := s.store.UpdateRecord(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// RecordLeave closes the student's open record, deriving the duration in
// rounded minutes. When no open record exists this is a no-op, not an error.
func (s *AttendanceService) RecordLeave(ctx context.Context, sessionID, studentID int64) (*models.AttendanceRecord, error) {
	record, err := s.store.GetOpenBySessionAndStudent(ctx, sessionID, studentID)
	if err != nil {
		if errors.Is(err, apperrors.ErrAttendanceNotFound) {
			return nil, nil
		}
		return nil, err
	}

	now := s.now()
	record.LeaveTime = &now
	record.Duration = models.DurationMinutes(*record.JoinTime, now)

	if err := s.store.UpdateRecord(ctx, record); err != nil {
		return nil, err
	}

	return record, nil
}

// CloseAllAttendanceRecords applies the leave logic to every open record of a
// session and returns the count closed. Used when a session ends.
func (s *AttendanceService) CloseAllAttendanceRecords(ctx context.Context, sessionID int64) (int64, error) {
	closed, err := s.store.CloseAllOpen(ctx, sessionID, s.now())
	if err != nil {
		return 0, err
	}

	if closed > 0 {
		s.logger.Info().Int64("sessionID", sessionID).Int64("closed", closed).Msg("Closed open attendance records")
	}
	return closed, nil
}

// DeleteSessionRecords removes the ledger entries of a deleted session
func (s *AttendanceService) DeleteSessionRecords(ctx context.Context, sessionID int64) (int64, error) {
	return s.store.DeleteBySession(ctx, sessionID)
}

// GetSessionAttendance lists a session's records with student identity. The
// owning teacher and enrolled students of the course may read it.
func (s *AttendanceService) GetSessionAttendance(ctx context.Context, callerID, sessionID int64) ([]*models.AttendanceRecord, error) {
	if _, err := s.authz.ValidateSessionAccess(ctx, sessionID, callerID); err != nil {
		return nil, err
	}
	return s.store.ListBySession(ctx, sessionID)
}

// GetStudentCourseAttendance lists one student's records across a course.
// Only the owning teacher or the student themself may read it.
func (s *AttendanceService) GetStudentCourseAttendance(ctx context.Context, callerID, studentID, courseID int64) ([]*models.AttendanceRecord, error) {
	if callerID != studentID {
		if err := s.authz.ValidateCourseOwnership(ctx, courseID, callerID); err != nil {
			return nil, err
		}
	}

	if err := s.authz.ValidateActiveEnrollment(ctx, courseID, studentID); err != nil {
		return nil, err
	}

	return s.store.ListByStudentAndCourse(ctx, studentID, courseID)
}

// GetCourseAttendanceStats aggregates per-student status counts across all
// sessions of a course. Percentage counts "present" and "late" as attended.
func (s *AttendanceService) GetCourseAttendanceStats(ctx context.Context, callerID, courseID int64) (*dto.CourseAttendanceStats, error) {
	if err := s.authz.ValidateCourseOwnership(ctx, courseID, callerID); err != nil {
		return nil, err
	}

	students, err := s.store.GetCourseStatusCounts(ctx, courseID)
	if err != nil {
		return nil, err
	}

	for i := range students {
		row := &students[i]
		row.Total = row.Present + row.Absent + row.Late + row.Excused
		if row.Total > 0 {
			row.Percentage = int(math.Round(float64(row.Present+row.Late) / float64(row.Total) * 100))
		}
	}

	totalSessions, err := s.sessions.CountSessionsByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	return &dto.CourseAttendanceStats{
		CourseID:      courseID,
		TotalSessions: totalSessions,
		TotalStudents: len(students),
		Students:      students,
	}, nil
}

// GetSessionAttendanceStats aggregates join data across one session. The
// average is taken over each student's summed duration, not over individual
// join events.
func (s *AttendanceService) GetSessionAttendanceStats(ctx context.Context, callerID, sessionID int64) (*dto.SessionAttendanceStats, error) {
	if _, err := s.authz.ValidateSessionOwnership(ctx, sessionID, callerID); err != nil {
		return nil, err
	}
	return s.store.GetSessionDurationStats(ctx, sessionID)
}

// UpdateAttendance corrects an existing record. Provided fields overwrite;
// when both timestamps end up set the duration is recomputed, with no guard
// against leave preceding join, so a negative duration passes through.
func (s *AttendanceService) UpdateAttendance(ctx context.Context, callerID, recordID int64, req *dto.UpdateAttendanceRequest) (*models.AttendanceRecord, error) {
	record, err := s.store.GetByID(ctx, recordID)
	if err != nil {
		return nil, err
	}

	if _, err := s.authz.ValidateSessionOwnership(ctx, record.SessionID, callerID); err != nil {
		return nil, err
	}

	if req.Status != nil {
		status := models.AttendanceStatus(*req.Status)
		if !models.ValidAttendanceStatus(status) {
			return nil, apperrors.NewValidationError(fmt.Sprintf("invalid attendance status %q", *req.Status))
		}
		record.Status = status
	}
	if req.Notes != nil {
		record.Notes = *req.Notes
	}
	if req.JoinTime != nil {
		record.JoinTime = req.JoinTime
	}
	if req.LeaveTime != nil {
		record.LeaveTime = req.LeaveTime
	}

	if record.JoinTime != nil && record.LeaveTime != nil {
		record.Duration = models.DurationMinutes(*record.JoinTime, *record.LeaveTime)
	}

	if err := s.store.UpdateRecord(ctx, record); err != nil {
		return nil, err
	}

	return record, nil
}
