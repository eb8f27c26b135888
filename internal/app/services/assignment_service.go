package services

import (
	"context"

	appauth "github.com/ozan/classpoint/internal/app/auth"
	"github.com/ozan/classpoint/internal/app/models"
	"github.com/ozan/classpoint/internal/app/models/dto"
	"github.com/ozan/classpoint/internal/app/repositories"
	"github.com/rs/zerolog"
)

// AssignmentService handles coursework publication
type AssignmentService struct {
	assignmentRepo *repositories.AssignmentRepository
	authz          *appauth.AuthorizationService
	logger         zerolog.Logger
}

// NewAssignmentService creates a new AssignmentService
func NewAssignmentService(
	assignmentRepo *repositories.AssignmentRepository,
	authz *appauth.AuthorizationService,
	logger zerolog.Logger,
) *AssignmentService {
	return &AssignmentService{
		assignmentRepo: assignmentRepo,
		authz:          authz,
		logger:         logger,
	}
}

// CreateAssignment publishes an assignment to a course owned by the caller
func (s *AssignmentService) CreateAssignment(ctx context.Context, courseID, callerID int64, req *dto.CreateAssignmentRequest) (*models.Assignment, error) {
	if err := s.authz.ValidateCourseOwnership(ctx, courseID, callerID); err != nil {
		return nil, err
	}

	assignment := &models.Assignment{
		CourseID:    courseID,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		MaxPoints:   req.MaxPoints,
	}

	id, err := s.assignmentRepo.CreateAssignment(ctx, assignment)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("assignmentID", id).Int64("courseID", courseID).Msg("Assignment created")
	return s.assignmentRepo.GetAssignmentByID(ctx, id)
}

// GetAssignment retrieves an assignment readable by the caller
func (s *AssignmentService) GetAssignment(ctx context.Context, assignmentID, callerID int64) (*models.Assignment, error) {
	assignment, err := s.assignmentRepo.GetAssignmentByID(ctx, assignmentID)
	if err != nil {
		return nil, err
	}

	if err := s.authz.ValidateCourseAccess(ctx, assignment.CourseID, callerID); err != nil {
		return nil, err
	}

	return assignment, nil
}

// GetCourseAssignments lists a course's assignments readable by the caller
func (s *AssignmentService) GetCourseAssignments(ctx context.Context, courseID, callerID int64) ([]*models.Assignment, error) {
	if err := s.authz.ValidateCourseAccess(ctx, courseID, callerID); err != nil {
		return nil, err
	}
	return s.assignmentRepo.GetAssignmentsByCourse(ctx, courseID)
}

// UpdateAssignment updates an assignment in a course owned by the caller
func (s *AssignmentService) UpdateAssignment(ctx context.Context, assignmentID, callerID int64, req *dto.UpdateAssignmentRequest) (*models.Assignment, error) {
	assignment, err := s.assignmentRepo.GetAssignmentByID(ctx, assignmentID)
	if err != nil {
		return nil, err
	}

	if err := s.authz.ValidateCourseOwnership(ctx, assignment.CourseID, callerID); err != nil {
		return nil, err
	}

	assignment.Title = req.Title
	assignment.Description = req.Description
	assignment.DueDate = req.DueDate
	assignment.MaxPoints = req.MaxPoints

	if err := s.assignmentRepo.UpdateAssignment(ctx, assignment); err != nil {
		return nil, err
	}

	return s.assignmentRepo.GetAssignmentByID(ctx, assignmentID)
}

// DeleteAssignment removes an assignment from a course owned by the caller
func (s *AssignmentService) DeleteAssignment(ctx context.Context, assignmentID, callerID int64) error {
	assignment, err := s.assignmentRepo.GetAssignmentByID(ctx, assignmentID)
	if err != nil {
		return err
	}

	if err := s.authz.ValidateCourseOwnership(ctx, assignment.CourseID, callerID); err != nil {
		return err
	}

	if err := s.assignmentRepo.DeleteAssignment(ctx, assignmentID); err != nil {
		return err
	}

	s.logger.Info().Int64("assignmentID", assignmentID).Msg("Assignment deleted")
	return nil
}
