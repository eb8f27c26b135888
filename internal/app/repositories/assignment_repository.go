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
	"github.com/ozan/classpoint/internal/pkg/logger"
)

// AssignmentRepository handles assignment database operations
type AssignmentRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewAssignmentRepository creates a new AssignmentRepository
func NewAssignmentRepository(db *pgxpool.Pool) *AssignmentRepository {
	return &AssignmentRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

const assignmentColumns = "id, course_id, title, description, due_date, max_points, created_at, updated_at"

func scanAssignment(row pgx.Row) (*models.Assignment, error) {
	assignment := &models.Assignment{}
	err := row.Scan(
		&assignment.ID, &assignment.CourseID, &assignment.Title, &assignment.Description,
		&assignment.DueDate, &assignment.MaxPoints, &assignment.CreatedAt, &assignment.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrAssignmentNotFound
		}
		logger.Error().Err(err).Msg("Error scanning assignment row")
		return nil, fmt.Errorf("error scanning assignment: %w", err)
	}
	return assignment, nil
}

// CreateAssignment creates a new assignment and returns its ID
func (r *AssignmentRepository) CreateAssignment(ctx context.Context, assignment *models.Assignment) (int64, error) {
	sql, args, err := r.sb.Insert("assignments").
		Columns("course_id", "title", "description", "due_date", "max_points").
		Values(assignment.CourseID, assignment.Title, assignment.Description,
			assignment.DueDate, assignment.MaxPoints).
		Suffix("RETURNING id").
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building create assignment SQL")
		return 0, fmt.Errorf("failed to build create assignment query: %w", err)
	}

	var id int64
	err = r.db.QueryRow(ctx, sql, args...).Scan(&id)
	if err != nil {
		logger.Error().Err(err).Int64("courseID", assignment.CourseID).Msg("Error executing create assignment query")
		return 0, fmt.Errorf("error creating assignment: %w", err)
	}

	return id, nil
}

// GetAssignmentByID retrieves an assignment by ID
func (r *AssignmentRepository) GetAssignmentByID(ctx context.Context, id int64) (*models.Assignment, error) {
	sql, args, err := r.sb.Select(assignmentColumns).
		From("assignments").
		Where(squirrel.Eq{"id": id}).
		Limit(1).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building get assignment by ID SQL")
		return nil, fmt.Errorf("failed to build get assignment query: %w", err)
	}

	return scanAssignment(r.db.QueryRow(ctx, sql, args...))
}

// GetAssignmentsByCourse retrieves all assignments of a course ordered by due date
func (r *AssignmentRepository) GetAssignmentsByCourse(ctx context.Context, courseID int64) ([]*models.Assignment, error) {
	sql, args, err := r.sb.Select(assignmentColumns).
		From("assignments").
		Where(squirrel.Eq{"course_id": courseID}).
		OrderBy("due_date ASC").
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building get assignments by course SQL")
		return nil, fmt.Errorf("failed to build get assignments by course query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("courseID", courseID).Msg("Error executing get assignments by course query")
		return nil, fmt.Errorf("error querying assignments: %w", err)
	}
	defer rows.Close()

	assignments := []*models.Assignment{}
	for rows.Next() {
		assignment := &models.Assignment{}
		if err := rows.Scan(
			&assignment.ID, &assignment.CourseID, &assignment.Title, &assignment.Description,
			&assignment.DueDate, &assignment.MaxPoints, &assignment.CreatedAt, &assignment.UpdatedAt,
		); err != nil {
			logger.Error().Err(err).Msg("Error scanning assignment row during list")
			return nil, fmt.Errorf("error scanning assignment row: %w", err)
		}
		assignments = append(assignments, assignment)
	}

	if err := rows.Err(); err != nil {
		logger.Error().Err(err).Msg("Error iterating assignment rows")
		return nil, fmt.Errorf("error iterating assignment rows: %w", err)
	}

	return assignments, nil
}

// UpdateAssignment updates an existing assignment
func (r *AssignmentRepository) UpdateAssignment(ctx context.Context, assignment *models.Assignment) error {
	sql, args, err := r.sb.Update("assignments").
		SetMap(map[string]interface{}{
			"title":       assignment.Title,
			"description": assignment.Description,
			"due_date":    assignment.DueDate,
			"max_points":  assignment.MaxPoints,
			"updated_at":  time.Now(),
		}).
		Where(squirrel.Eq{"id": assignment.ID}).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building update assignment SQL")
		return fmt.Errorf("failed to build update assignment query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("assignmentID", assignment.ID).Msg("Error executing update assignment query")
		return fmt.Errorf("error updating assignment: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrAssignmentNotFound
	}

	return nil
}

// DeleteAssignment deletes an assignment by ID
func (r *AssignmentRepository) DeleteAssignment(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Delete("assignments").
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building delete assignment SQL")
		return fmt.Errorf("failed to build delete assignment query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("assignmentID", id).Msg("Error executing delete assignment query")
		return fmt.Errorf("error deleting assignment: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrAssignmentNotFound
	}

	return nil
}
