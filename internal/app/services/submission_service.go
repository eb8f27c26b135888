package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	appauth "github.com/ozan/classpoint/internal/app/auth"
	"github.com/ozan/classpoint/internal/app/models"
	"github.com/ozan/classpoint/internal/app/models/dto"
	"github.com/ozan/classpoint/internal/app/repositories"
	"github.com/ozan/classpoint/internal/pkg/apperrors"
	"github.com/ozan/classpoint/internal/pkg/filestorage"
	"github.com/rs/zerolog"
)

// SubmissionService handles file-backed assignment submissions and grading
type SubmissionService struct {
	submissionRepo *repositories.SubmissionRepository
	assignmentRepo *repositories.AssignmentRepository
	storage        filestorage.FileStorage
	authz          *appauth.AuthorizationService
	logger         zerolog.Logger
}

// NewSubmissionService creates a new SubmissionService
func NewSubmissionService(
	submissionRepo *repositories.SubmissionRepository,
	assignmentRepo *repositories.AssignmentRepository,
	storage filestorage.FileStorage,
	authz *appauth.AuthorizationService,
	logger zerolog.Logger,
) *SubmissionService {
	return &SubmissionService{
		submissionRepo: submissionRepo,
		assignmentRepo: assignmentRepo,
		storage:        storage,
		authz:          authz,
		logger:         logger,
	}
}

// SubmitAssignment stores a student's answer file. Resubmitting replaces the
// previous file, bumps the attempt counter and clears any earlier grade.
func (s *SubmissionService) SubmitAssignment(ctx context.Context, assignmentID, studentID int64, fileHeader *multipart.FileHeader) (*models.Submission, error) {
	assignment, err := s.assignmentRepo.GetAssignmentByID(ctx, assignmentID)
	if err != nil {
		return nil, err
	}

	if err := s.authz.ValidateActiveEnrollment(ctx, assignment.CourseID, studentID); err != nil {
		return nil, err
	}

	stored, err := s.storage.SaveFile(fileHeader, fmt.Sprintf("submissions/%d", assignmentID))
	if err != nil {
		return nil, fmt.Errorf("failed to store submission file: %w", err)
	}

	now := time.Now()
	submission := &models.Submission{
		AssignmentID: assignmentID,
		StudentID:    studentID,
		FileName:     fileHeader.Filename,
		FilePath:     stored.Path,
		FileURL:      stored.URL,
		FileSize:     fileHeader.Size,
		ContentType:  fileHeader.Header.Get("Content-Type"),
		SubmittedAt:  now,
		Attempt:      1,
		IsLate:       now.After(assignment.DueDate),
	}

	existing, err := s.submissionRepo.GetSubmissionByAssignmentAndStudent(ctx, assignmentID, studentID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrSubmissionNotFound) {
			return nil, err
		}

		id, createErr := s.submissionRepo.CreateSubmission(ctx, submission)
		if createErr != nil {
			// Keep the storage directory consistent with the database
			_ = s.storage.DeleteFile(stored.Path)
			return nil, createErr
		}

		s.logger.Info().Int64("submissionID", id).Int64("assignmentID", assignmentID).Int64("studentID", studentID).Msg("Submission created")
		return s.submissionRepo.GetSubmissionByID(ctx, id)
	}

	submission.ID = existing.ID
	submission.Attempt = existing.Attempt + 1

	if err := s.submissionRepo.ReplaceSubmission(ctx, submission); err != nil {
		_ = s.storage.DeleteFile(stored.Path)
		return nil, err
	}

	if err := s.storage.DeleteFile(existing.FilePath); err != nil {
		s.logger.Warn().Err(err).Str("path", existing.FilePath).Msg("Failed to delete replaced submission file")
	}

	s.logger.Info().Int64("submissionID", existing.ID).Int("attempt", submission.Attempt).Msg("Submission replaced")
	return s.submissionRepo.GetSubmissionByID(ctx, existing.ID)
}

// GetSubmission retrieves one submission. The submitting student and the
// course's owning teacher may read it.
func (s *SubmissionService) GetSubmission(ctx context.Context, submissionID, callerID int64) (*models.Submission, error) {
	submission, err := s.submissionRepo.GetSubmissionByID(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	if submission.StudentID != callerID {
		assignment, err := s.assignmentRepo.GetAssignmentByID(ctx, submission.AssignmentID)
		if err != nil {
			return nil, err
		}
		if err := s.authz.ValidateCourseOwnership(ctx, assignment.CourseID, callerID); err != nil {
			return nil, err
		}
	}

	return submission, nil
}

// GetAssignmentSubmissions lists every submission for an assignment. Only the
// owning teacher may read the full list.
func (s *SubmissionService) GetAssignmentSubmissions(ctx context.Context, assignmentID, callerID int64) ([]*models.Submission, error) {
	assignment, err := s.assignmentRepo.GetAssignmentByID(ctx, assignmentID)
	if err != nil {
		return nil, err
	}

	if err := s.authz.ValidateCourseOwnership(ctx, assignment.CourseID, callerID); err != nil {
		return nil, err
	}

	return s.submissionRepo.GetSubmissionsByAssignment(ctx, assignmentID)
}

// GetStudentCourseSubmissions lists one student's submissions across a
// course. Only the owning teacher or the student themself may read it.
func (s *SubmissionService) GetStudentCourseSubmissions(ctx context.Context, courseID, studentID, callerID int64) ([]*models.Submission, error) {
	if callerID != studentID {
		if err := s.authz.ValidateCourseOwnership(ctx, courseID, callerID); err != nil {
			return nil, err
		}
	}

	return s.submissionRepo.GetSubmissionsByStudentAndCourse(ctx, studentID, courseID)
}

// GradeSubmission records a grade and optional feedback. The grade must fall
// within the assignment's point range.
func (s *SubmissionService) GradeSubmission(ctx context.Context, submissionID, callerID int64, req *dto.GradeSubmissionRequest) (*models.Submission, error) {
	submission, err := s.submissionRepo.GetSubmissionByID(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	assignment, err := s.assignmentRepo.GetAssignmentByID(ctx, submission.AssignmentID)
	if err != nil {
		return nil, err
	}

	if err := s.authz.ValidateCourseOwnership(ctx, assignment.CourseID, callerID); err != nil {
		return nil, err
	}

	if req.Grade < 0 || req.Grade > assignment.MaxPoints {
		return nil, apperrors.ErrInvalidGrade
	}

	if err := s.submissionRepo.GradeSubmission(ctx, submissionID, req.Grade, req.Feedback, time.Now()); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("submissionID", submissionID).Int("grade", req.Grade).Msg("Submission graded")
	return s.submissionRepo.GetSubmissionByID(ctx, submissionID)
}

// GetCourseGradeSummaries aggregates graded submissions per student for a
// course owned by the caller
func (s *SubmissionService) GetCourseGradeSummaries(ctx context.Context, courseID, callerID int64) ([]dto.StudentGradeSummary, error) {
	if err := s.authz.ValidateCourseOwnership(ctx, courseID, callerID); err != nil {
		return nil, err
	}
	return s.submissionRepo.GetCourseGradeSummaries(ctx, courseID)
}
