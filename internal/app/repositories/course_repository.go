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
	"github.com/ozan/classpoint/internal/pkg/apperrors"
	"github.com/ozan/classpoint/internal/pkg/dberrors"
	"github.com/ozan/classpoint/internal/pkg/logger"
)

// CourseRepository handles course database operations
type CourseRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewCourseRepository creates a new CourseRepository
func NewCourseRepository(db *pgxpool.Pool) *CourseRepository {
	return &CourseRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

const courseColumns = "id, teacher_id, code, name, description, created_at, updated_at"

func scanCourse(row pgx.Row) (*models.Course, error) {
	course := &models.Course{}
	err := row.Scan(
		&course.ID, &course.TeacherID, &course.Code, &course.Name,
		&course.Description, &course.CreatedAt, &course.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrCourseNotFound
		}
		logger.Error().Err(err).Msg("Error scanning course row")
		return nil, fmt.Errorf("error scanning course: %w", err)
	}
	return course, nil
}

// CreateCourse creates a new course and returns its ID
func (r *CourseRepository) CreateCourse(ctx context.Context, course *models.Course) (int64, error) {
	sql, args, err := r.sb.Insert("courses").
		Columns("teacher_id", "code", "name", "description").
		Values(course.TeacherID, course.Code, course.Name, course.Description).
		Suffix("RETURNING id").
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building create course SQL")
		return 0, fmt.Errorf("failed to build create course query: %w", err)
	}

	var id int64
	err = r.db.QueryRow(ctx, sql, args...).Scan(&id)
	if err != nil {
		if dberrors.IsDuplicateKeyError(err) {
			return 0, apperrors.ErrCourseCodeExists
		}
		logger.Error().Err(err).Str("code", course.Code).Msg("Error executing create course query")
		return 0, fmt.Errorf("error creating course: %w", err)
	}

	return id, nil
}

// GetCourseByID retrieves a course by ID
func (r *CourseRepository) GetCourseByID(ctx context.Context, id int64) (*models.Course, error) {
	sql, args, err := r.sb.Select(courseColumns).
		From("courses").
		Where(squirrel.Eq{"id": id}).
		Limit(1).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building get course by ID SQL")
		return nil, fmt.Errorf("failed to build get course query: %w", err)
	}

	return scanCourse(r.db.QueryRow(ctx, sql, args...))
}

// GetAllCourses retrieves all courses
func (r *CourseRepository) GetAllCourses(ctx context.Context) ([]*models.Course, error) {
	sql, args, err := r.sb.Select(courseColumns).
		From("courses").
		OrderBy("code ASC").
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building get all courses SQL")
		return nil, fmt.Errorf("failed to build get all courses query: %w", err)
	}

	return r.queryCourses(ctx, sql, args...)
}

// GetCoursesByTeacher retrieves courses owned by a teacher
func (r *CourseRepository) GetCoursesByTeacher(ctx context.Context, teacherID int64) ([]*models.Course, error) {
	sql, args, err := r.sb.Select(courseColumns).
		From("courses").
		Where(squirrel.Eq{"teacher_id": teacherID}).
		OrderBy("code ASC").
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building get courses by teacher SQL")
		return nil, fmt.Errorf("failed to build get courses by teacher query: %w", err)
	}

	return r.queryCourses(ctx, sql, args...)
}

// GetCoursesByStudent retrieves courses a student is actively enrolled in
func (r *CourseRepository) GetCoursesByStudent(ctx context.Context, studentID int64) ([]*models.Course, error) {
	sql, args, err := r.sb.Select(
		"c.id", "c.teacher_id", "c.code", "c.name", "c.description", "c.created_at", "c.updated_at",
	).
		From("courses c").
		Join("enrollments e ON e.course_id = c.id").
		Where(squirrel.Eq{"e.student_id": studentID, "e.status": models.EnrollmentActive}).
		OrderBy("c.code ASC").
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building get courses by student SQL")
		return nil, fmt.Errorf("failed to build get courses by student query: %w", err)
	}

	return r.queryCourses(ctx, sql, args...)
}

func (r *CourseRepository) queryCourses(ctx context.Context, sql string, args ...interface{}) ([]*models.Course, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing course list query")
		return nil, fmt.Errorf("error querying courses: %w", err)
	}
	defer rows.Close()

	courses := []*models.Course{}
	for rows.Next() {
		course := &models.Course{}
		if err := rows.Scan(
			&course.ID, &course.TeacherID, &course.Code, &course.Name,
			&course.Description, &course.CreatedAt, &course.UpdatedAt,
		); err != nil {
			logger.Error().Err(err).Msg("Error scanning course row during list")
			return nil, fmt.Errorf("error scanning course row: %w", err)
		}
		courses = append(courses, course)
	}

	if err := rows.Err(); err != nil {
		logger.Error().Err(err).Msg("Error iterating course rows")
		return nil, fmt.Errorf("error iterating course rows: %w", err)
	}

	return courses, nil
}

// UpdateCourse updates an existing course
func (r *CourseRepository) UpdateCourse(ctx context.Context, course *models.Course) error {
	sql, args, err := r.sb.Update("courses").
		SetMap(map[string]interface{}{
			"code":        course.Code,
			"name":        course.Name,
			"description": course.Description,
			"updated_at":  time.Now(),
		}).
		Where(squirrel.Eq{"id": course.ID}).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building update course SQL")
		return fmt.Errorf("failed to build update course query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		if dberrors.IsDuplicateKeyError(err) {
			return apperrors.ErrCourseCodeExists
		}
		logger.Error().Err(err).Int64("courseID", course.ID).Msg("Error executing update course query")
		return fmt.Errorf("error updating course: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrCourseNotFound
	}

	return nil
}

// DeleteCourse deletes a course by ID
func (r *CourseRepository) DeleteCourse(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Delete("courses").
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building delete course SQL")
		return fmt.Errorf("failed to build delete course query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("courseID", id).Msg("Error executing delete course query")
		return fmt.Errorf("error deleting course: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrCourseNotFound
	}

	return nil
}
