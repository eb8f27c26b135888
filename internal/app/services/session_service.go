package services

import (
	"context"

	appauth "github.com/ozan/classpoint/internal/app/auth"
	"github.com/ozan/classpoint/internal/app/models"
	"github.com/ozan/classpoint/internal/app/models/dto"
	"github.com/ozan/classpoint/internal/app/repositories"
	"github.com/ozan/classpoint/internal/pkg/apperrors"
	"github.com/ozan/classpoint/internal/pkg/meeting"
	"github.com/rs/zerolog"
)

// SessionService handles the class session lifecycle
type SessionService struct {
	sessionRepo  *repositories.SessionRepository
	courseRepo   *repositories.CourseRepository
	attendance   *AttendanceService
	linkProvider meeting.LinkProvider
	authz        *appauth.AuthorizationService
	logger       zerolog.Logger
}

// NewSessionService creates a new SessionService
func NewSessionService(
	sessionRepo *repositories.SessionRepository,
	courseRepo *repositories.CourseRepository,
	attendance *AttendanceService,
	linkProvider meeting.LinkProvider,
	authz *appauth.AuthorizationService,
	logger zerolog.Logger,
) *SessionService {
	return &SessionService{
		sessionRepo:  sessionRepo,
		courseRepo:   courseRepo,
		attendance:   attendance,
		linkProvider: linkProvider,
		authz:        authz,
		logger:       logger,
	}
}

// CreateSession schedules a session in a course owned by the caller and
// attaches a generated meeting link
func (s *SessionService) CreateSession(ctx context.Context, courseID, callerID int64, req *dto.CreateSessionRequest) (*models.Session, error) {
	if err := s.authz.ValidateCourseOwnership(ctx, courseID, callerID); err != nil {
		return nil, err
	}

	if !req.EndTime.After(req.StartTime) {
		return nil, apperrors.ErrSessionTimes
	}

	course, err := s.courseRepo.GetCourseByID(ctx, courseID)
	if err != nil {
		return nil, err
	}

	session := &models.Session{
		CourseID:   courseID,
		Title:      req.Title,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		MeetingURL: s.linkProvider.GenerateLink(course.Code, req.Title),
	}

	id, err := s.sessionRepo.CreateSession(ctx, session)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("sessionID", id).Int64("courseID", courseID).Msg("Session created")
	return s.sessionRepo.GetSessionByID(ctx, id)
}

// GetSession retrieves a session readable by the caller
func (s *SessionService) GetSession(ctx context.Context, sessionID, callerID int64) (*models.Session, error) {
	return s.authz.ValidateSessionAccess(ctx, sessionID, callerID)
}

// GetCourseSessions lists the sessions of a course readable by the caller
func (s *SessionService) GetCourseSessions(ctx context.Context, courseID, callerID int64) ([]*models.Session, error) {
	if err := s.authz.ValidateCourseAccess(ctx, courseID, callerID); err != nil {
		return nil, err
	}
	return s.sessionRepo.GetSessionsByCourse(ctx, courseID)
}

// UpdateSession reschedules a session in a course owned by the caller
func (s *SessionService) UpdateSession(ctx context.Context, sessionID, callerID int64, req *dto.UpdateSessionRequest) (*models.Session, error) {
	session, err := s.authz.ValidateSessionOwnership(ctx, sessionID, callerID)
	if err != nil {
		return nil, err
	}

	if session.IsCompleted {
		return nil, apperrors.NewInvalidStateError("completed sessions cannot be rescheduled")
	}

	if !req.EndTime.After(req.StartTime) {
		return nil, apperrors.ErrSessionTimes
	}

	session.Title = req.Title
	session.StartTime = req.StartTime
	session.EndTime = req.EndTime

	if err := s.sessionRepo.UpdateSession(ctx, session); err != nil {
		return nil, err
	}

	return s.sessionRepo.GetSessionByID(ctx, sessionID)
}

// CompleteSession ends a session: marks it completed, stores the recording
// link if provided and closes every open attendance record
func (s *SessionService) CompleteSession(ctx context.Context, sessionID, callerID int64, req *dto.CompleteSessionRequest) (*models.Session, error) {
	session, err := s.authz.ValidateSessionOwnership(ctx, sessionID, callerID)
	if err != nil {
		return nil, err
	}

	if session.IsCompleted {
		return nil, apperrors.NewInvalidStateError("session is already completed")
	}

	if err := s.sessionRepo.CompleteSession(ctx, sessionID, req.RecordingURL); err != nil {
		return nil, err
	}

	closed, err := s.attendance.CloseAllAttendanceRecords(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("sessionID", sessionID).Int64("closedRecords", closed).Msg("Session completed")
	return s.sessionRepo.GetSessionByID(ctx, sessionID)
}

// DeleteSession removes a session and its attendance records. The ledger
// holds no cascading ownership, so records are cleaned up explicitly first.
func (s *SessionService) DeleteSession(ctx context.Context, sessionID, callerID int64) error {
	if _, err := s.authz.ValidateSessionOwnership(ctx, sessionID, callerID); err != nil {
		return err
	}

	deleted, err := s.attendance.DeleteSessionRecords(ctx, sessionID)
	if err != nil {
		return err
	}

	if err := s.sessionRepo.DeleteSession(ctx, sessionID); err != nil {
		return err
	}

	s.logger.Info().Int64("sessionID", sessionID).Int64("deletedRecords", deleted).Msg("Session deleted")
	return nil
}

// JoinSession registers the calling student in the session's live attendance
func (s *SessionService) JoinSession(ctx context.Context, sessionID, callerID int64) (*models.AttendanceRecord, error) {
	session, err := s.sessionRepo.GetSessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if session.IsCompleted {
		return nil, apperrors.NewInvalidStateError("session is already completed")
	}

	return s.attendance.RecordJoin(ctx, sessionID, callerID)
}

// LeaveSession closes the calling student's open attendance record. Leaving
// without an open record is a no-op.
func (s *SessionService) LeaveSession(ctx context.Context, sessionID, callerID int64) (*models.AttendanceRecord, error) {
	if _, err := s.sessionRepo.GetSessionByID(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.attendance.RecordLeave(ctx, sessionID, callerID)
}
