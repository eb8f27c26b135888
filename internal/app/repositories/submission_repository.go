package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ozan/classpoint/internal/app/models"
	"github.com/ozan/classpoint/internal/app/models/dto"
	"github.com/ozan/classpoint/internal/pkg/apperrors"
	"github.com/ozan/classpoint/internal/pkg/logger"
)

// SubmissionRepository handles submission database operations
type SubmissionRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewSubmissionRepository creates a new SubmissionRepository
func NewSubmissionRepository(db *pgxpool.Pool) *SubmissionRepository {
	return &SubmissionRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

const submissionColumns = "id, assignment_id, student_id, file_name, file_path, file_url, file_size, content_type, submitted_at, attempt, is_late, grade, feedback, graded_at"

func scanSubmission(row pgx.Row) (*models.Submission, error) {
	submission := &models.Submission{}
	err := row.Scan(
		&submission.ID, &submission.AssignmentID, &submission.StudentID,
		&submission.FileName, &submission.FilePath, &submission.FileURL,
		&submission.FileSize, &submission.ContentType, &submission.SubmittedAt,
		&submission.Attempt, &submission.IsLate,
		&submission.Grade, &submission.Feedback, &submission.GradedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrSubmissionNotFound
		}
		logger.Error().Err(err).Msg("Error scanning submission row")
		return nil, fmt.Errorf("error scanning submission: %w", err)
	}
	return submission, nil
}

// CreateSubmission inserts a first-attempt submission and returns its ID
func (r *SubmissionRepository) CreateSubmission(ctx context.Context, submission *models.Submission) (int64, error) {
	sql, args, err := r.sb.Insert("submissions").
		Columns("assignment_id", "student_id", "file_name", "file_path", "file_url",
			"file_size", "content_type", "submitted_at", "attempt", "is_late").
		Values(submission.AssignmentID, submission.StudentID, submission.FileName,
			submission.FilePath, submission.FileURL, submission.FileSize,
			submission.ContentType, submission.SubmittedAt, submission.Attempt, submission.IsLate).
		Suffix("RETURNING id").
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building create submission SQL")
		return 0, fmt.Errorf("failed to build create submission query: %w", err)
	}

	var id int64
	err = r.db.QueryRow(ctx, sql, args...).Scan(&id)
	if err != nil {
		logger.Error().Err(err).
			Int64("assignmentID", submission.AssignmentID).
			Int64("studentID", submission.StudentID).
			Msg("Error executing create submission query")
		return 0, fmt.Errorf("error creating submission: %w", err)
	}

	return id, nil
}

// ReplaceSubmission overwrites the file of an existing submission, bumps the
// attempt counter and clears any previous grade
func (r *SubmissionRepository) ReplaceSubmission(ctx context.Context, submission *models.Submission) error {
	sql, args, err := r.sb.Update("submissions").
		SetMap(map[string]interface{}{
			"file_name":    submission.FileName,
			"file_path":    submission.FilePath,
			"file_url":     submission.FileURL,
			"file_size":    submission.FileSize,
			"content_type": submission.ContentType,
			"submitted_at": submission.SubmittedAt,
			"attempt":      submission.Attempt,
			"is_late":      submission.IsLate,
			"grade":        nil,
			"feedback":     nil,
			"graded_at":    nil,
		}).
		Where(squirrel.Eq{"id": submission.ID}).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building replace submission SQL")
		return fmt.Errorf("failed to build replace submission query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("submissionID", submission.ID).Msg("Error executing replace submission query")
		return fmt.Errorf("error replacing submission: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrSubmissionNotFound
	}

	return nil
}

// GetSubmissionByID retrieves a submission by ID
func (r *SubmissionRepository) GetSubmissionByID(ctx context.Context, id int64) (*models.Submission, error) {
	sql, args, err := r.sb.Select(submissionColumns).
		From("submissions").
		Where(squirrel.Eq{"id": id}).
		Limit(1).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building get submission by ID SQL")
		return nil, fmt.Errorf("failed to build get submission query: %w", err)
	}

	return scanSubmission(r.db.QueryRow(ctx, sql, args...))
}

// GetSubmissionByAssignmentAndStudent retrieves a student's submission for an assignment
func (r *SubmissionRepository) GetSubmissionByAssignmentAndStudent(ctx context.Context, assignmentID, studentID int64) (*models.Submission, error) {
	sql, args, err := r.sb.Select(submissionColumns).
		From("submissions").
		Where(squirrel.Eq{"assignment_id": assignmentID, "student_id": studentID}).
		Limit(1).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building get submission by assignment and student SQL")
		return nil, fmt.Errorf("failed to build get submission query: %w", err)
	}

	return scanSubmission(r.db.QueryRow(ctx, sql, args...))
}

// GetSubmissionsByAssignment retrieves all submissions for an assignment with student details
func (r *SubmissionRepository) GetSubmissionsByAssignment(ctx context.Context, assignmentID int64) ([]*models.Submission, error) {
	sql, args, err := r.sb.Select(
		"sub.id", "sub.assignment_id", "sub.student_id",
		"sub.file_name", "sub.file_path", "sub.file_url", "sub.file_size", "sub.content_type",
		"sub.submitted_at", "sub.attempt", "sub.is_late",
		"sub.grade", "sub.feedback", "sub.graded_at",
		"u.id", "u.email", "u.first_name", "u.last_name", "u.role_type",
	).
		From("submissions sub").
		Join("users u ON u.id = sub.student_id").
		Where(squirrel.Eq{"sub.assignment_id": assignmentID}).
		OrderBy("sub.submitted_at ASC").
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building get submissions by assignment SQL")
		return nil, fmt.Errorf("failed to build get submissions query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("assignmentID", assignmentID).Msg("Error executing get submissions by assignment query")
		return nil, fmt.Errorf("error querying submissions: %w", err)
	}
	defer rows.Close()

	submissions := []*models.Submission{}
	for rows.Next() {
		submission := &models.Submission{Student: &models.User{}}
		if err := rows.Scan(
			&submission.ID, &submission.AssignmentID, &submission.StudentID,
			&submission.FileName, &submission.FilePath, &submission.FileURL,
			&submission.FileSize, &submission.ContentType, &submission.SubmittedAt,
			&submission.Attempt, &submission.IsLate,
			&submission.Grade, &submission.Feedback, &submission.GradedAt,
			&submission.Student.ID, &submission.Student.Email,
			&submission.Student.FirstName, &submission.Student.LastName,
			&submission.Student.RoleType,
		); err != nil {
			logger.Error().Err(err).Msg("Error scanning submission row during list")
			return nil, fmt.Errorf("error scanning submission row: %w", err)
		}
		submissions = append(submissions, submission)
	}

	if err := rows.Err(); err != nil {
		logger.Error().Err(err).Msg("Error iterating submission rows")
		return nil, fmt.Errorf("error iterating submission rows: %w", err)
	}

	return submissions, nil
}

// GetSubmissionsByStudentAndCourse retrieves a student's submissions across a course
func (r *SubmissionRepository) GetSubmissionsByStudentAndCourse(ctx context.Context, studentID, courseID int64) ([]*models.Submission, error) {
	sql, args, err := r.sb.Select(
		"sub.id", "sub.assignment_id", "sub.student_id",
		"sub.file_name", "sub.file_path", "sub.file_url", "sub.file_size", "sub.content_type",
		"sub.submitted_at", "sub.attempt", "sub.is_late",
		"sub.grade", "sub.feedback", "sub.graded_at",
	).
		From("submissions sub").
		Join("assignments a ON a.id = sub.assignment_id").
		Where(squirrel.Eq{"sub.student_id": studentID, "a.course_id": courseID}).
		OrderBy("a.due_date ASC").
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building get submissions by student and course SQL")
		return nil, fmt.Errorf("failed to build get submissions query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("studentID", studentID).Int64("courseID", courseID).Msg("Error executing get submissions by student and course query")
		return nil, fmt.Errorf("error querying submissions: %w", err)
	}
	defer rows.Close()

	submissions := []*models.Submission{}
	for rows.Next() {
		submission := &models.Submission{}
		if err := rows.Scan(
			&submission.ID, &submission.AssignmentID, &submission.StudentID,
			&submission.FileName, &submission.FilePath, &submission.FileURL,
			&submission.FileSize, &submission.ContentType, &submission.SubmittedAt,
			&submission.Attempt, &submission.IsLate,
			&submission.Grade, &submission.Feedback, &submission.GradedAt,
		); err != nil {
			logger.Error().Err(err).Msg("Error scanning submission row during list")
			return nil, fmt.Errorf("error scanning submission row: %w", err)
		}
		submissions = append(submissions, submission)
	}

	if err := rows.Err(); err != nil {
		logger.Error().Err(err).Msg("Error iterating submission rows")
		return nil, fmt.Errorf("error iterating submission rows: %w", err)
	}

	return submissions, nil
}

// GradeSubmission records a grade and optional feedback on a submission
func (r *SubmissionRepository) GradeSubmission(ctx context.Context, id int64, grade int, feedback *string, gradedAt time.Time) error {
	sql, args, err := r.sb.Update("submissions").
		SetMap(map[string]interface{}{
			"grade":     grade,
			"feedback":  feedback,
			"graded_at": gradedAt,
		}).
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building grade submission SQL")
		return fmt.Errorf("failed to build grade submission query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("submissionID", id).Msg("Error executing grade submission query")
		return fmt.Errorf("error grading submission: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrSubmissionNotFound
	}

	return nil
}

// GetCourseGradeSummaries aggregates graded submissions per student across a
// course, averaging each grade as a percentage of its assignment's points
func (r *SubmissionRepository) GetCourseGradeSummaries(ctx context.Context, courseID int64) ([]dto.StudentGradeSummary, error) {
	sql, args, err := r.sb.Select(
		"u.id", "u.first_name", "u.last_name",
		"COUNT(sub.id) AS graded_submissions",
		"COALESCE(AVG(sub.grade::float8 / a.max_points * 100), 0) AS average_percent",
	).
		From("submissions sub").
		Join("assignments a ON a.id = sub.assignment_id").
		Join("users u ON u.id = sub.student_id").
		Where(squirrel.Eq{"a.course_id": courseID}).
		Where("sub.grade IS NOT NULL").
		GroupBy("u.id", "u.first_name", "u.last_name").
		OrderBy("u.last_name ASC", "u.first_name ASC").
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building course grade summaries SQL")
		return nil, fmt.Errorf("failed to build course grade summaries query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("courseID", courseID).Msg("Error executing course grade summaries query")
		return nil, fmt.Errorf("error querying course grade summaries: %w", err)
	}
	defer rows.Close()

	summaries := []dto.StudentGradeSummary{}
	for rows.Next() {
		row := dto.StudentGradeSummary{}
		if err := rows.Scan(
			&row.StudentID, &row.FirstName, &row.LastName,
			&row.GradedSubmissions, &row.AveragePercent,
		); err != nil {
			logger.Error().Err(err).Msg("Error scanning course grade summary row")
			return nil, fmt.Errorf("error scanning course grade summary: %w", err)
		}
		summaries = append(summaries, row)
	}

	if err := rows.Err(); err != nil {
		logger.Error().Err(err).Msg("Error iterating course grade summary rows")
		return nil, fmt.Errorf("error iterating course grade summaries: %w", err)
	}

	return summaries, nil
}

// DeleteSubmission deletes a submission by ID
func (r *SubmissionRepository) DeleteSubmission(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Delete("submissions").
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building delete submission SQL")
		return fmt.Errorf("failed to build delete submission query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("submissionID", id).Msg("Error executing delete submission query")
		return fmt.Errorf("error deleting submission: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrSubmissionNotFound
	}

	return nil
}
