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

// SessionRepository handles class session database operations
type SessionRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewSessionRepository creates a new SessionRepository
func NewSessionRepository(db *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

const sessionColumns = "id, course_id, title, start_time, end_time, meeting_url, is_completed, recording_url, created_at, updated_at"

func scanSession(row pgx.Row) (*models.Session, error) {
	session := &models.Session{}
	err := row.Scan(
		&session.ID, &session.CourseID, &session.Title,
		&session.StartTime, &session.EndTime, &session.MeetingURL,
		&session.IsCompleted, &session.RecordingURL,
		&session.CreatedAt, &session.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrSessionNotFound
		}
		logger.Error().Err(err).Msg("Error scanning session row")
		return nil, fmt.Errorf("error scanning session: %w", err)
	}
	return session, nil
}

// CreateSession creates a new session and returns its ID
func (r *SessionRepository) CreateSession(ctx context.Context, session *models.Session) (int64, error) {
	sql, args, err := r.sb.Insert("sessions").
		Columns("course_id", "title", "start_time", "end_time", "meeting_url", "is_completed").
		Values(session.CourseID, session.Title, session.StartTime, session.EndTime, session.MeetingURL, false).
		Suffix("RETURNING id").
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building create session SQL")
		return 0, fmt.Errorf("failed to build create session query: %w", err)
	}

	var id int64
	err = r.db.QueryRow(ctx, sql, args...).Scan(&id)
	if err != nil {
		logger.Error().Err(err).Int64("courseID", session.CourseID).Msg("Error executing create session query")
		return 0, fmt.Errorf("error creating session: %w", err)
	}

	return id, nil
}

// GetSessionByID retrieves a session by ID
func (r *SessionRepository) GetSessionByID(ctx context.Context, id int64) (*models.Session, error) {
	sql, args, err := r.sb.Select(sessionColumns).
		From("sessions").
		Where(squirrel.Eq{"id": id}).
		Limit(1).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building get session by ID SQL")
		return nil, fmt.Errorf("failed to build get session query: %w", err)
	}

	return scanSession(r.db.QueryRow(ctx, sql, args...))
}

// GetSessionsByCourse retrieves all sessions of a course ordered by start time
func (r *SessionRepository) GetSessionsByCourse(ctx context.Context, courseID int64) ([]*models.Session, error) {
	sql, args, err := r.sb.Select(sessionColumns).
		From("sessions").
		Where(squirrel.Eq{"course_id": courseID}).
		OrderBy("start_time ASC").
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building get sessions by course SQL")
		return nil, fmt.Errorf("failed to build get sessions by course query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("courseID", courseID).Msg("Error executing get sessions by course query")
		return nil, fmt.Errorf("error querying sessions: %w", err)
	}
	defer rows.Close()

	sessions := []*models.Session{}
	for rows.Next() {
		session := &models.Session{}
		if err := rows.Scan(
			&session.ID, &session.CourseID, &session.Title,
			&session.StartTime, &session.EndTime, &session.MeetingURL,
			&session.IsCompleted, &session.RecordingURL,
			&session.CreatedAt, &session.UpdatedAt,
		); err != nil {
			logger.Error().Err(err).Msg("Error scanning session row during list")
			return nil, fmt.Errorf("error scanning session row: %w", err)
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		logger.Error().Err(err).Msg("Error iterating session rows")
		return nil, fmt.Errorf("error iterating session rows: %w", err)
	}

	return sessions, nil
}

// CountSessionsByCourse counts the sessions of a course
func (r *SessionRepository) CountSessionsByCourse(ctx context.Context, courseID int64) (int, error) {
	sql, args, err := r.sb.Select("COUNT(*)").
		From("sessions").
		Where(squirrel.Eq{"course_id": courseID}).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building count sessions SQL")
		return 0, fmt.Errorf("failed to build count sessions query: %w", err)
	}

	var count int
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		logger.Error().Err(err).Int64("courseID", courseID).Msg("Error counting sessions")
		return 0, fmt.Errorf("error counting sessions: %w", err)
	}

	return count, nil
}

// UpdateSession updates the schedulable fields of a session
func (r *SessionRepository) UpdateSession(ctx context.Context, session *models.Session) error {
	sql, args, err := r.sb.Update("sessions").
		SetMap(map[string]interface{}{
			"title":      session.Title,
			"start_time": session.StartTime,
			"end_time":   session.EndTime,
			"updated_at": time.Now(),
		}).
		Where(squirrel.Eq{"id": session.ID}).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building update session SQL")
		return fmt.Errorf("failed to build update session query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("sessionID", session.ID).Msg("Error executing update session query")
		return fmt.Errorf("error updating session: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrSessionNotFound
	}

	return nil
}

// CompleteSession marks a session completed and stores its recording URL
func (r *SessionRepository) CompleteSession(ctx context.Context, id int64, recordingURL *string) error {
	sql, args, err := r.sb.Update("sessions").
		SetMap(map[string]interface{}{
			"is_completed":  true,
			"recording_url": recordingURL,
			"updated_at":    time.Now(),
		}).
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building complete session SQL")
		return fmt.Errorf("failed to build complete session query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("sessionID", id).Msg("Error executing complete session query")
		return fmt.Errorf("error completing session: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrSessionNotFound
	}

	return nil
}

// DeleteSession deletes a session by ID
func (r *SessionRepository) DeleteSession(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Delete("sessions").
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building delete session SQL")
		return fmt.Errorf("failed to build delete session query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("sessionID", id).Msg("Error executing delete session query")
		return fmt.Errorf("error deleting session: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrSessionNotFound
	}

	return nil
}
