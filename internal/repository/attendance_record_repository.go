package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/schoolhub-dev/schoolhub-api/internal/models"
)

// AttendanceRecordRepository persists per-student attendance records. The
// (session_id, student_id) pair carries a unique constraint.
type AttendanceRecordRepository struct {
	db *sqlx.DB
}

// NewAttendanceRecordRepository constructs the repository.
func NewAttendanceRecordRepository(db *sqlx.DB) *AttendanceRecordRepository {
	return &AttendanceRecordRepository{db: db}
}

// FindBySessionAndStudent loads the record keyed by the composite pair.
func (r *AttendanceRecordRepository) FindBySessionAndStudent(ctx context.Context, sessionID, studentID string) (*models.AttendanceRecord, error) {
	const query = `SELECT id, session_id, student_id, status, created_at, updated_at
		FROM attendance_records WHERE session_id = $1 AND student_id = $2`
	var record models.AttendanceRecord
	if err := r.db.GetContext(ctx, &record, query, sessionID, studentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find attendance record: %w", err)
	}
	return &record, nil
}

// ListBySession returns all records of a session with student names.
func (r *AttendanceRecordRepository) ListBySession(ctx context.Context, sessionID string) ([]models.AttendanceRecordDetail, error) {
	const query = `
SELECT ar.id, ar.session_id, ar.student_id, ar.status, ar.created_at, ar.updated_at,
       u.full_name AS student_name
FROM attendance_records ar
JOIN users u ON u.id = ar.student_id
WHERE ar.session_id = $1
ORDER BY u.full_name ASC`
	var records []models.AttendanceRecordDetail
	if err := r.db.SelectContext(ctx, &records, query, sessionID); err != nil {
		return nil, fmt.Errorf("list attendance records: %w", err)
	}
	return records, nil
}

// Create inserts a record for a student's first mark in a session. A unique
// violation on the composite pair propagates for the caller to translate.
func (r *AttendanceRecordRepository) Create(ctx context.Context, record *models.AttendanceRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	const query = `INSERT INTO attendance_records (id, session_id, student_id, status, created_at, updated_at)
		VALUES (:id, :session_id, :student_id, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("create attendance record: %w", err)
	}
	return nil
}

// UpdateStatus overwrites the status in place. No history is kept.
func (r *AttendanceRecordRepository) UpdateStatus(ctx context.Context, id string, status models.AttendanceStatus) error {
	const query = `UPDATE attendance_records SET status = $1, updated_at = $2 WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update attendance record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check updated record rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
