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
	"github.com/ozan/classpoint/internal/pkg/dberrors"
	"github.com/ozan/classpoint/internal/pkg/logger"
)

// AttendanceRepository handles attendance record database operations
type AttendanceRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewAttendanceRepository creates a new AttendanceRepository
func NewAttendanceRepository(db *pgxpool.Pool) *AttendanceRepository {
	return &AttendanceRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

const attendanceColumns = "id, session_id, student_id, status, notes, join_time, leave_time, duration, created_at, updated_at"

func scanAttendance(row pgx.Row) (*models.AttendanceRecord, error) {
	record := &models.AttendanceRecord{}
	err := row.Scan(
		&record.ID, &record.SessionID, &record.StudentID,
		&record.Status, &record.Notes, &record.JoinTime, &record.LeaveTime,
		&record.Duration, &record.CreatedAt, &record.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrAttendanceNotFound
		}
		logger.Error().Err(err).Msg("Error scanning attendance row")
		return nil, fmt.Errorf("error scanning attendance record: %w", err)
	}
	return record, nil
}

// CreateRecord inserts a new attendance record and returns its ID. A second
// insert for the same (session, student) pair fails with ErrAttendanceExists.
func (r *AttendanceRepository) CreateRecord(ctx context.Context, record *models.AttendanceRecord) (int64, error) {
	sql, args, err := r.sb.Insert("attendance_records").
		Columns("session_id", "student_id", "status", "notes", "join_time", "leave_time", "duration").
		Values(record.SessionID, record.StudentID, record.Status, record.Notes,
			record.JoinTime, record.LeaveTime, record.Duration).
		Suffix("RETURNING id").
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building create attendance SQL")
		return 0, fmt.Errorf("failed to build create attendance query: %w", err)
	}

	var id int64
	err = r.db.QueryRow(ctx, sql, args...).Scan(&id)
	if err != nil {
		if dberrors.IsDuplicateKeyError(err) {
			return 0, apperrors.ErrAttendanceExists
		}
		logger.Error().Err(err).
			Int64("sessionID", record.SessionID).
			Int64("studentID", record.StudentID).
			Msg("Error executing create attendance query")
		return 0, fmt.Errorf("error creating attendance record: %w", err)
	}

	return id, nil
}

// UpdateRecord overwrites the mutable fields of an attendance record
func (r *AttendanceRepository) UpdateRecord(ctx context.Context, record *models.AttendanceRecord) error {
	sql, args, err := r.sb.Update("attendance_records").
		SetMap(map[string]interface{}{
			"status":     record.Status,
			"notes":      record.Notes,
			"join_time":  record.JoinTime,
			"leave_time": record.LeaveTime,
			"duration":   record.Duration,
			"updated_at": time.Now(),
		}).
		Where(squirrel.Eq{"id": record.ID}).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building update attendance SQL")
		return fmt.Errorf("failed to build update attendance query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("recordID", record.ID).Msg("Error executing update attendance query")
		return fmt.Errorf("error updating attendance record: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrAttendanceNotFound
	}

	return nil
}

// GetByID retrieves an attendance record by ID
func (r *AttendanceRepository) GetByID(ctx context.Context, id int64) (*models.AttendanceRecord, error) {
	sql, args, err := r.sb.Select(attendanceColumns).
		From("attendance_records").
		Where(squirrel.Eq{"id": id}).
		Limit(1).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building get attendance by ID SQL")
		return nil, fmt.Errorf("failed to build get attendance query: %w", err)
	}

	return scanAttendance(r.db.QueryRow(ctx, sql, args...))
}

// GetBySessionAndStudent retrieves the record for one student in one session
func (r *AttendanceRepository) GetBySessionAndStudent(ctx context.Context, sessionID, studentID int64) (*models.AttendanceRecord, error) {
	sql, args, err := r.sb.Select(attendanceColumns).
		From("attendance_records").
		Where(squirrel.Eq{"session_id": sessionID, "student_id": studentID}).
		Limit(1).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building get attendance by session and student SQL")
		return nil, fmt.Errorf("failed to build get attendance query: %w", err)
	}

	return scanAttendance(r.db.QueryRow(ctx, sql, args...))
}

// GetOpenBySessionAndStudent retrieves the most recent record of the student
// in the session that has a join time but no leave time yet
func (r *AttendanceRepository) GetOpenBySessionAndStudent(ctx context.Context, sessionID, studentID int64) (*models.AttendanceRecord, error) {
	sql, args, err := r.sb.Select(attendanceColumns).
		From("attendance_records").
		Where(squirrel.Eq{"session_id": sessionID, "student_id": studentID}).
		Where("join_time IS NOT NULL").
		Where("leave_time IS NULL").
		OrderBy("join_time DESC").
		Limit(1).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building get open attendance SQL")
		return nil, fmt.Errorf("failed to build get open attendance query: %w", err)
	}

	return scanAttendance(r.db.QueryRow(ctx, sql, args...))
}

// ListBySession retrieves all attendance records of a session with student details
func (r *AttendanceRepository) ListBySession(ctx context.Context, sessionID int64) ([]*models.AttendanceRecord, error) {
	sql, args, err := r.sb.Select(
		"a.id", "a.session_id", "a.student_id", "a.status", "a.notes",
		"a.join_time", "a.leave_time", "a.duration", "a.created_at", "a.updated_at",
		"u.id", "u.email", "u.first_name", "u.last_name", "u.role_type",
	).
		From("attendance_records a").
		Join("users u ON u.id = a.student_id").
		Where(squirrel.Eq{"a.session_id": sessionID}).
		OrderBy("u.last_name ASC", "u.first_name ASC").
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building list attendance by session SQL")
		return nil, fmt.Errorf("failed to build list attendance query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("sessionID", sessionID).Msg("Error executing list attendance by session query")
		return nil, fmt.Errorf("error querying attendance records: %w", err)
	}
	defer rows.Close()

	records := []*models.AttendanceRecord{}
	for rows.Next() {
		record := &models.AttendanceRecord{Student: &models.User{}}
		if err := rows.Scan(
			&record.ID, &record.SessionID, &record.StudentID,
			&record.Status, &record.Notes, &record.JoinTime, &record.LeaveTime,
			&record.Duration, &record.CreatedAt, &record.UpdatedAt,
			&record.Student.ID, &record.Student.Email,
			&record.Student.FirstName, &record.Student.LastName,
			&record.Student.RoleType,
		); err != nil {
			logger.Error().Err(err).Msg("Error scanning attendance row during list")
			return nil, fmt.Errorf("error scanning attendance row: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		logger.Error().Err(err).Msg("Error iterating attendance rows")
		return nil, fmt.Errorf("error iterating attendance rows: %w", err)
	}

	return records, nil
}

// ListByStudentAndCourse retrieves a student's attendance records across all
// sessions of a course, newest session first
func (r *AttendanceRepository) ListByStudentAndCourse(ctx context.Context, studentID, courseID int64) ([]*models.AttendanceRecord, error) {
	sql, args, err := r.sb.Select(
		"a.id", "a.session_id", "a.student_id", "a.status", "a.notes",
		"a.join_time", "a.leave_time", "a.duration", "a.created_at", "a.updated_at",
	).
		From("attendance_records a").
		Join("sessions s ON s.id = a.session_id").
		Where(squirrel.Eq{"a.student_id": studentID, "s.course_id": courseID}).
		OrderBy("s.start_time DESC").
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building list attendance by student and course SQL")
		return nil, fmt.Errorf("failed to build list attendance query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("studentID", studentID).Int64("courseID", courseID).Msg("Error executing list attendance by student and course query")
		return nil, fmt.Errorf("error querying attendance records: %w", err)
	}
	defer rows.Close()

	records := []*models.AttendanceRecord{}
	for rows.Next() {
		record := &models.AttendanceRecord{}
		if err := rows.Scan(
			&record.ID, &record.SessionID, &record.StudentID,
			&record.Status, &record.Notes, &record.JoinTime, &record.LeaveTime,
			&record.Duration, &record.CreatedAt, &record.UpdatedAt,
		); err != nil {
			logger.Error().Err(err).Msg("Error scanning attendance row during list")
			return nil, fmt.Errorf("error scanning attendance row: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		logger.Error().Err(err).Msg("Error iterating attendance rows")
		return nil, fmt.Errorf("error iterating attendance rows: %w", err)
	}

	return records, nil
}

// BulkUpsert writes one record per entry in a single batch. Existing
// (session, student) rows get their status, notes and join time overwritten;
// missing rows are inserted. Returns how many rows were newly inserted.
func (r *AttendanceRepository) BulkUpsert(ctx context.Context, records []*models.AttendanceRecord) (int, error) {
	const upsertSQL = `
		INSERT INTO attendance_records (session_id, student_id, status, notes, join_time)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (session_id, student_id) DO UPDATE
		SET status = EXCLUDED.status,
		    notes = EXCLUDED.notes,
		    join_time = EXCLUDED.join_time,
		    updated_at = NOW()
		RETURNING (xmax = 0) AS inserted`

	batch := &pgx.Batch{}
	for _, record := range records {
		batch.Queue(upsertSQL, record.SessionID, record.StudentID, record.Status, record.Notes, record.JoinTime)
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	inserted := 0
	for range records {
		var isInsert bool
		if err := results.QueryRow().Scan(&isInsert); err != nil {
			logger.Error().Err(err).Msg("Error executing bulk attendance upsert")
			return 0, fmt.Errorf("error upserting attendance records: %w", err)
		}
		if isInsert {
			inserted++
		}
	}

	return inserted, nil
}

// CloseAllOpen stamps a leave time on every open record of a session and
// derives the duration in rounded minutes. Returns the number of closed rows.
func (r *AttendanceRepository) CloseAllOpen(ctx context.Context, sessionID int64, leaveTime time.Time) (int64, error) {
	sql, args, err := r.sb.Update("attendance_records").
		Set("leave_time", leaveTime).
		Set("duration", squirrel.Expr("ROUND(EXTRACT(EPOCH FROM (?::timestamptz - join_time)) / 60)::int", leaveTime)).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"session_id": sessionID}).
		Where("join_time IS NOT NULL").
		Where("leave_time IS NULL").
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building close open attendance SQL")
		return 0, fmt.Errorf("failed to build close open attendance query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("sessionID", sessionID).Msg("Error executing close open attendance query")
		return 0, fmt.Errorf("error closing open attendance records: %w", err)
	}

	return cmdTag.RowsAffected(), nil
}

// DeleteBySession removes every attendance record of a session
func (r *AttendanceRepository) DeleteBySession(ctx context.Context, sessionID int64) (int64, error) {
	sql, args, err := r.sb.Delete("attendance_records").
		Where(squirrel.Eq{"session_id": sessionID}).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building delete attendance by session SQL")
		return 0, fmt.Errorf("failed to build delete attendance query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("sessionID", sessionID).Msg("Error executing delete attendance by session query")
		return 0, fmt.Errorf("error deleting attendance records: %w", err)
	}

	return cmdTag.RowsAffected(), nil
}

// GetCourseStatusCounts aggregates per-status counts for every actively
// enrolled student of a course. Percentage and totals are left to the caller.
func (r *AttendanceRepository) GetCourseStatusCounts(ctx context.Context, courseID int64) ([]dto.StudentAttendanceStats, error) {
	sql, args, err := r.sb.Select(
		"u.id", "u.first_name", "u.last_name", "u.email",
		"COUNT(a.id) FILTER (WHERE a.status = 'present') AS present",
		"COUNT(a.id) FILTER (WHERE a.status = 'absent') AS absent",
		"COUNT(a.id) FILTER (WHERE a.status = 'late') AS late",
		"COUNT(a.id) FILTER (WHERE a.status = 'excused') AS excused",
	).
		From("enrollments e").
		Join("users u ON u.id = e.student_id").
		LeftJoin("sessions s ON s.course_id = e.course_id").
		LeftJoin("attendance_records a ON a.session_id = s.id AND a.student_id = e.student_id").
		Where(squirrel.Eq{"e.course_id": courseID, "e.status": models.EnrollmentActive}).
		GroupBy("u.id", "u.first_name", "u.last_name", "u.email").
		OrderBy("u.last_name ASC", "u.first_name ASC").
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building course status counts SQL")
		return nil, fmt.Errorf("failed to build course status counts query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("courseID", courseID).Msg("Error executing course status counts query")
		return nil, fmt.Errorf("error querying course attendance stats: %w", err)
	}
	defer rows.Close()

	stats := []dto.StudentAttendanceStats{}
	for rows.Next() {
		row := dto.StudentAttendanceStats{}
		if err := rows.Scan(
			&row.StudentID, &row.FirstName, &row.LastName, &row.Email,
			&row.Present, &row.Absent, &row.Late, &row.Excused,
		); err != nil {
			logger.Error().Err(err).Msg("Error scanning course status counts row")
			return nil, fmt.Errorf("error scanning course attendance stats: %w", err)
		}
		stats = append(stats, row)
	}

	if err := rows.Err(); err != nil {
		logger.Error().Err(err).Msg("Error iterating course status counts rows")
		return nil, fmt.Errorf("error iterating course attendance stats: %w", err)
	}

	return stats, nil
}

// GetSessionDurationStats aggregates join data across one session. Only
// records that have a join time count as joins; durations are summed per
// student before averaging.
func (r *AttendanceRepository) GetSessionDurationStats(ctx context.Context, sessionID int64) (*dto.SessionAttendanceStats, error) {
	const statsSQL = `
		SELECT COUNT(*) AS unique_students,
		       COALESCE(AVG(total_duration), 0) AS average_duration,
		       COALESCE(MAX(total_duration), 0) AS max_duration,
		       COALESCE(SUM(joins), 0) AS total_joins
		FROM (
			SELECT student_id, SUM(duration) AS total_duration, COUNT(*) AS joins
			FROM attendance_records
			WHERE session_id = $1 AND join_time IS NOT NULL
			GROUP BY student_id
		) per_student`

	stats := &dto.SessionAttendanceStats{SessionID: sessionID}
	err := r.db.QueryRow(ctx, statsSQL, sessionID).Scan(
		&stats.UniqueStudents, &stats.AverageDuration, &stats.MaxDuration, &stats.TotalJoins,
	)
	if err != nil {
		logger.Error().Err(err).Int64("sessionID", sessionID).Msg("Error executing session duration stats query")
		return nil, fmt.Errorf("error querying session attendance stats: %w", err)
	}

	return stats, nil
}
