package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ozan/classpoint/internal/app/models"
	"github.com/ozan/classpoint/internal/pkg/apperrors"
	"github.com/ozan/classpoint/internal/pkg/dberrors"
	"github.com/ozan/classpoint/internal/pkg/logger"
)

// EnrollmentRepository handles enrollment database operations
type EnrollmentRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewEnrollmentRepository creates a new EnrollmentRepository
func NewEnrollmentRepository(db *pgxpool.Pool) *EnrollmentRepository {
	return &EnrollmentRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// CreateEnrollment enrolls a student in a course and returns the enrollment ID
func (r *EnrollmentRepository) CreateEnrollment(ctx context.Context, courseID, studentID int64) (int64, error) {
	sql, args, err := r.sb.Insert("enrollments").
		Columns("course_id", "student_id", "status").
		Values(courseID, studentID, models.EnrollmentActive).
		Suffix("RETURNING id").
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building create enrollment SQL")
		return 0, fmt.Errorf("failed to build create enrollment query: %w", err)
	}

	var id int64
	err = r.db.QueryRow(ctx, sql, args...).Scan(&id)
	if err != nil {
		if dberrors.IsDuplicateKeyError(err) {
			return 0, apperrors.ErrAlreadyEnrolled
		}
		logger.Error().Err(err).Int64("courseID", courseID).Int64("studentID", studentID).Msg("Error executing create enrollment query")
		return 0, fmt.Errorf("error creating enrollment: %w", err)
	}

	return id, nil
}

// GetEnrollment retrieves the enrollment of a student in a course
func (r *EnrollmentRepository) GetEnrollment(ctx context.Context, courseID, studentID int64) (*models.Enrollment, error) {
	sql, args, err := r.sb.Select("id", "course_id", "student_id", "status", "enrolled_at").
		From("enrollments").
		Where(squirrel.Eq{"course_id": courseID, "student_id": studentID}).
		Limit(1).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building get enrollment SQL")
		return nil, fmt.Errorf("failed to build get enrollment query: %w", err)
	}

	enrollment := &models.Enrollment{}
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&enrollment.ID, &enrollment.CourseID, &enrollment.StudentID,
		&enrollment.Status, &enrollment.EnrolledAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrEnrollmentNotFound
		}
		logger.Error().Err(err).Msg("Error scanning enrollment row")
		return nil, fmt.Errorf("error retrieving enrollment: %w", err)
	}

	return enrollment, nil
}

// IsActivelyEnrolled reports whether a student has an active enrollment in a course
func (r *EnrollmentRepository) IsActivelyEnrolled(ctx context.Context, courseID, studentID int64) (bool, error) {
	enrollment, err := r.GetEnrollment(ctx, courseID, studentID)
	if err != nil {
		if errors.Is(err, apperrors.ErrEnrollmentNotFound) {
			return false, nil
		}
		return false, err
	}
	return enrollment.Status == models.EnrollmentActive, nil
}

// GetCourseEnrollments retrieves all enrollments of a course with student details
func (r *EnrollmentRepository) GetCourseEnrollments(ctx context.Context, courseID int64) ([]*models.Enrollment, error) {
	sql, args, err := r.sb.Select(
		"e.id", "e.course_id", "e.student_id", "e.status", "e.enrolled_at",
		"u.id", "u.email", "u.first_name", "u.last_name", "u.role_type",
	).
		From("enrollments e").
		Join("users u ON u.id = e.student_id").
		Where(squirrel.Eq{"e.course_id": courseID}).
		OrderBy("u.last_name ASC", "u.first_name ASC").
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building get course enrollments SQL")
		return nil, fmt.Errorf("failed to build get course enrollments query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("courseID", courseID).Msg("Error executing get course enrollments query")
		return nil, fmt.Errorf("error querying enrollments: %w", err)
	}
	defer rows.Close()

	enrollments := []*models.Enrollment{}
	for rows.Next() {
		enrollment := &models.Enrollment{Student: &models.User{}}
		if err := rows.Scan(
			&enrollment.ID, &enrollment.CourseID, &enrollment.StudentID,
			&enrollment.Status, &enrollment.EnrolledAt,
			&enrollment.Student.ID, &enrollment.Student.Email,
			&enrollment.Student.FirstName, &enrollment.Student.LastName,
			&enrollment.Student.RoleType,
		); err != nil {
			logger.Error().Err(err).Msg("Error scanning enrollment row during list")
			return nil, fmt.Errorf("error scanning enrollment row: %w", err)
		}
		enrollments = append(enrollments, enrollment)
	}

	if err := rows.Err(); err != nil {
		logger.Error().Err(err).Msg("Error iterating enrollment rows")
		return nil, fmt.Errorf("error iterating enrollment rows: %w", err)
	}

	return enrollments, nil
}

// UpdateEnrollmentStatus sets the status of an existing enrollment
func (r *EnrollmentRepository) UpdateEnrollmentStatus(ctx context.Context, courseID, studentID int64, status models.EnrollmentStatus) error {
	sql, args, err := r.sb.Update("enrollments").
		Set("status", status).
		Where(squirrel.Eq{"course_id": courseID, "student_id": studentID}).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building update enrollment status SQL")
		return fmt.Errorf("failed to build update enrollment status query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("courseID", courseID).Int64("studentID", studentID).Msg("Error executing update enrollment status query")
		return fmt.Errorf("error updating enrollment status: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrEnrollmentNotFound
	}

	return nil
}

// DeleteEnrollment removes a student's enrollment from a course
func (r *EnrollmentRepository) DeleteEnrollment(ctx context.Context, courseID, studentID int64) error {
	sql, args, err := r.sb.Delete("enrollments").
		Where(squirrel.Eq{"course_id": courseID, "student_id": studentID}).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building delete enrollment SQL")
		return fmt.Errorf("failed to build delete enrollment query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("courseID", courseID).Int64("studentID", studentID).Msg("Error executing delete enrollment query")
		return fmt.Errorf("error deleting enrollment: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrEnrollmentNotFound
	}

	return nil
}

// CountActiveStudents counts active enrollments of a course
func (r *EnrollmentRepository) CountActiveStudents(ctx context.Context, courseID int64) (int, error) {
	sql, args, err := r.sb.Select("COUNT(*)").
		From("enrollments").
		Where(squirrel.Eq{"course_id": courseID, "status": models.EnrollmentActive}).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building count active students SQL")
		return 0, fmt.Errorf("failed to build count active students query: %w", err)
	}

	var count int
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		logger.Error().Err(err).Int64("courseID", courseID).Msg("Error counting active students")
		return 0, fmt.Errorf("error counting active students: %w", err)
	}

	return count, nil
}
