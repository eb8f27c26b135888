package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/ozan/classpoint/internal/app/models"
	"github.com/ozan/classpoint/internal/app/repositories"
	"github.com/ozan/classpoint/internal/pkg/apperrors"
	"github.com/ozan/classpoint/internal/pkg/logger"
)

// Common errors specific to authorization that aren't in the central apperrors
var (
	ErrNotTeacher       = errors.New("only teachers can perform this action")
	ErrPermissionDenied = errors.New("you don't have permission for this action")
)

// AuthorizationService holds the reusable access predicates. Controllers and
// services consult it instead of re-deriving ownership rules inline.
type AuthorizationService struct {
	userRepo       *repositories.UserRepository
	courseRepo     *repositories.CourseRepository
	enrollmentRepo *repositories.EnrollmentRepository
	sessionRepo    *repositories.SessionRepository
}

// NewAuthorizationService creates a new AuthorizationService
func NewAuthorizationService(
	userRepo *repositories.UserRepository,
	courseRepo *repositories.CourseRepository,
	enrollmentRepo *repositories.EnrollmentRepository,
	sessionRepo *repositories.SessionRepository,
) *AuthorizationService {
	return &AuthorizationService{
		userRepo:       userRepo,
		courseRepo:     courseRepo,
		enrollmentRepo: enrollmentRepo,
		sessionRepo:    sessionRepo,
	}
}

// IsTeacher checks if the user holds the teacher role
func (s *AuthorizationService) IsTeacher(ctx context.Context, userID int64) (bool, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return false, apperrors.ErrUserNotFound
		}
		logger.Error().Err(err).Int64("userID", userID).Msg("Error getting user by ID in IsTeacher")
		return false, err
	}
	return user.RoleType == models.RoleTeacher, nil
}

// ValidateTeacher validates that the user is a teacher or returns an error
func (s *AuthorizationService) ValidateTeacher(ctx context.Context, userID int64) error {
	isTeacher, err := s.IsTeacher(ctx, userID)
	if err != nil {
		return err
	}

	if !isTeacher {
		return ErrNotTeacher
	}

	return nil
}

// OwnsCourse checks whether the user is the teacher who owns the course
func (s *AuthorizationService) OwnsCourse(ctx context.Context, courseID, userID int64) (bool, error) {
	course, err := s.courseRepo.GetCourseByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, apperrors.ErrCourseNotFound) {
			return false, apperrors.ErrCourseNotFound
		}
		logger.Error().Err(err).Int64("courseID", courseID).Msg("Error getting course by ID in OwnsCourse")
		return false, fmt.Errorf("failed to check course ownership: %w", err)
	}
	return course.TeacherID == userID, nil
}

// ValidateCourseOwnership validates that the user owns the course or returns an error
func (s *AuthorizationService) ValidateCourseOwnership(ctx context.Context, courseID, userID int64) error {
	owns, err := s.OwnsCourse(ctx, courseID, userID)
	if err != nil {
		return err
	}
	if !owns {
		return ErrPermissionDenied
	}
	return nil
}

// CanViewCourse checks whether the user may read course content: the owning
// teacher or any actively enrolled student qualifies
func (s *AuthorizationService) CanViewCourse(ctx context.Context, courseID, userID int64) (bool, error) {
	owns, err := s.OwnsCourse(ctx, courseID, userID)
	if err != nil {
		return false, err
	}
	if owns {
		return true, nil
	}

	enrolled, err := s.enrollmentRepo.IsActivelyEnrolled(ctx, courseID, userID)
	if err != nil {
		logger.Error().Err(err).Int64("courseID", courseID).Int64("userID", userID).Msg("Error checking enrollment in CanViewCourse")
		return false, fmt.Errorf("failed to check course access: %w", err)
	}
	return enrolled, nil
}

// ValidateCourseAccess validates that the user may read the course or returns an error
func (s *AuthorizationService) ValidateCourseAccess(ctx context.Context, courseID, userID int64) error {
	canView, err := s.CanViewCourse(ctx, courseID, userID)
	if err != nil {
		return err
	}
	if !canView {
		return ErrPermissionDenied
	}
	return nil
}

// ValidateSessionOwnership resolves a session's course and validates that the
// user owns it. Returns the session so callers avoid a second lookup.
func (s *AuthorizationService) ValidateSessionOwnership(ctx context.Context, sessionID, userID int64) (*models.Session, error) {
	session, err := s.sessionRepo.GetSessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.ValidateCourseOwnership(ctx, session.CourseID, userID); err != nil {
		return nil, err
	}
	return session, nil
}

// ValidateSessionAccess resolves a session's course and validates read access
func (s *AuthorizationService) ValidateSessionAccess(ctx context.Context, sessionID, userID int64) (*models.Session, error) {
	session, err := s.sessionRepo.GetSessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.ValidateCourseAccess(ctx, session.CourseID, userID); err != nil {
		return nil, err
	}
	return session, nil
}

// ValidateActiveEnrollment validates that the student is actively enrolled in
// the course or returns an error
func (s *AuthorizationService) ValidateActiveEnrollment(ctx context.Context, courseID, studentID int64) error {
	enrolled, err := s.enrollmentRepo.IsActivelyEnrolled(ctx, courseID, studentID)
	if err != nil {
		logger.Error().Err(err).Int64("courseID", courseID).Int64("studentID", studentID).Msg("Error checking enrollment in ValidateActiveEnrollment")
		return fmt.Errorf("failed to check enrollment: %w", err)
	}
	if !enrolled {
		return apperrors.ErrNotEnrolled
	}
	return nil
}

// GetUserInfo returns user information
func (s *AuthorizationService) GetUserInfo(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		logger.Error().Err(err).Int64("userID", userID).Msg("Error getting user by ID in GetUserInfo")
		return nil, fmt.Errorf("failed to get user information: %w", err)
	}
	return user, nil
}
