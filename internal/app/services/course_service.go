package services

import (
	"context"
	"errors"

	appauth "github.com/ozan/classpoint/internal/app/auth"
	"github.com/ozan/classpoint/internal/app/models"
	"github.com/ozan/classpoint/internal/app/models/dto"
	"github.com/ozan/classpoint/internal/app/repositories"
	"github.com/ozan/classpoint/internal/pkg/apperrors"
	"github.com/rs/zerolog"
)

// CourseService handles course and enrollment operations
type CourseService struct {
	courseRepo     *repositories.CourseRepository
	enrollmentRepo *repositories.EnrollmentRepository
	userRepo       *repositories.UserRepository
	authz          *appauth.AuthorizationService
	logger         zerolog.Logger
}

// NewCourseService creates a new CourseService
func NewCourseService(
	courseRepo *repositories.CourseRepository,
	enrollmentRepo *repositories.EnrollmentRepository,
	userRepo *repositories.UserRepository,
	authz *appauth.AuthorizationService,
	logger zerolog.Logger,
) *CourseService {
	return &CourseService{
		courseRepo:     courseRepo,
		enrollmentRepo: enrollmentRepo,
		userRepo:       userRepo,
		authz:          authz,
		logger:         logger,
	}
}

// CreateCourse creates a course owned by the calling teacher
func (s *CourseService) CreateCourse(ctx context.Context, teacherID int64, req *dto.CreateCourseRequest) (*models.Course, error) {
	if err := s.authz.ValidateTeacher(ctx, teacherID); err != nil {
		return nil, err
	}

	course := &models.Course{
		TeacherID:   teacherID,
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
	}

	id, err := s.courseRepo.CreateCourse(ctx, course)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("courseID", id).Int64("teacherID", teacherID).Str("code", course.Code).Msg("Course created")
	return s.courseRepo.GetCourseByID(ctx, id)
}

// GetAllCourses lists every course in the catalog
func (s *CourseService) GetAllCourses(ctx context.Context) ([]*models.Course, error) {
	return s.courseRepo.GetAllCourses(ctx)
}

// GetMyCourses lists the caller's courses: owned ones for teachers, actively
// enrolled ones for students
func (s *CourseService) GetMyCourses(ctx context.Context, userID int64) ([]*models.Course, error) {
	isTeacher, err := s.authz.IsTeacher(ctx, userID)
	if err != nil {
		return nil, err
	}

	if isTeacher {
		return s.courseRepo.GetCoursesByTeacher(ctx, userID)
	}
	return s.courseRepo.GetCoursesByStudent(ctx, userID)
}

// GetCourseByID retrieves a single course
func (s *CourseService) GetCourseByID(ctx context.Context, id int64) (*models.Course, error) {
	return s.courseRepo.GetCourseByID(ctx, id)
}

// UpdateCourse updates a course owned by the caller
func (s *CourseService) UpdateCourse(ctx context.Context, courseID, userID int64, req *dto.UpdateCourseRequest) (*models.Course, error) {
	if err := s.authz.ValidateCourseOwnership(ctx, courseID, userID); err != nil {
		return nil, err
	}

	course := &models.Course{
		ID:          courseID,
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
	}

	if err := s.courseRepo.UpdateCourse(ctx, course); err != nil {
		return nil, err
	}

	return s.courseRepo.GetCourseByID(ctx, courseID)
}

// DeleteCourse removes a course owned by the caller
func (s *CourseService) DeleteCourse(ctx context.Context, courseID, userID int64) error {
	if err := s.authz.ValidateCourseOwnership(ctx, courseID, userID); err != nil {
		return err
	}

	if err := s.courseRepo.DeleteCourse(ctx, courseID); err != nil {
		return err
	}

	s.logger.Info().Int64("courseID", courseID).Int64("userID", userID).Msg("Course deleted")
	return nil
}

// EnrollStudent enrolls a student into a course owned by the caller
func (s *CourseService) EnrollStudent(ctx context.Context, courseID, callerID, studentID int64) (*models.Enrollment, error) {
	if err := s.authz.ValidateCourseOwnership(ctx, courseID, callerID); err != nil {
		return nil, err
	}

	student, err := s.userRepo.GetUserByID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if student.RoleType != models.RoleStudent {
		return nil, apperrors.NewInvalidStateError("only students can be enrolled in a course")
	}

	if _, err := s.enrollmentRepo.CreateEnrollment(ctx, courseID, studentID); err != nil {
		if !errors.Is(err, apperrors.ErrAlreadyEnrolled) {
			return nil, err
		}

		// A dropped or completed enrollment is reactivated instead
		existing, getErr := s.enrollmentRepo.GetEnrollment(ctx, courseID, studentID)
		if getErr != nil {
			return nil, getErr
		}
		if existing.Status == models.EnrollmentActive {
			return nil, err
		}
		if updErr := s.enrollmentRepo.UpdateEnrollmentStatus(ctx, courseID, studentID, models.EnrollmentActive); updErr != nil {
			return nil, updErr
		}
		s.logger.Info().Int64("courseID", courseID).Int64("studentID", studentID).Msg("Enrollment reactivated")
		return s.enrollmentRepo.GetEnrollment(ctx, courseID, studentID)
	}

	s.logger.Info().Int64("courseID", courseID).Int64("studentID", studentID).Msg("Student enrolled")
	return s.enrollmentRepo.GetEnrollment(ctx, courseID, studentID)
}

// GetEnrollments lists the roster of a course. Owner or enrolled students may read it.
func (s *CourseService) GetEnrollments(ctx context.Context, courseID, userID int64) ([]*models.Enrollment, error) {
	if err := s.authz.ValidateCourseAccess(ctx, courseID, userID); err != nil {
		return nil, err
	}
	return s.enrollmentRepo.GetCourseEnrollments(ctx, courseID)
}

// UpdateEnrollmentStatus moves an enrollment between active, completed and dropped
func (s *CourseService) UpdateEnrollmentStatus(ctx context.Context, courseID, callerID, studentID int64, status models.EnrollmentStatus) error {
	if err := s.authz.ValidateCourseOwnership(ctx, courseID, callerID); err != nil {
		return err
	}
	return s.enrollmentRepo.UpdateEnrollmentStatus(ctx, courseID, studentID, status)
}

// RemoveEnrollment drops a student's enrollment record entirely
func (s *CourseService) RemoveEnrollment(ctx context.Context, courseID, callerID, studentID int64) error {
	if err := s.authz.ValidateCourseOwnership(ctx, courseID, callerID); err != nil {
		return err
	}

	if err := s.enrollmentRepo.DeleteEnrollment(ctx, courseID, studentID); err != nil {
		return err
	}

	s.logger.Info().Int64("courseID", courseID).Int64("studentID", studentID).Msg("Enrollment removed")
	return nil
}
