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

// AttendanceSessionRepository persists attendance sessions. The
// (allocation_id, session_date) pair carries a unique constraint; insert
// races are settled by the database.
type AttendanceSessionRepository struct {
	db *sqlx.DB
}

// NewAttendanceSessionRepository constructs the repository.
func NewAttendanceSessionRepository(db *sqlx.DB) *AttendanceSessionRepository {
	return &AttendanceSessionRepository{db: db}
}

// FindByID loads one session.
func (r *AttendanceSessionRepository) FindByID(ctx context.Context, id string) (*models.AttendanceSession, error) {
	const query = `SELECT id, allocation_id, session_date, created_at, updated_at FROM attendance_sessions WHERE id = $1`
	var session models.AttendanceSession
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find attendance session: %w", err)
	}
	return &session, nil
}

// FindByAllocationAndDate loads the session keyed by the composite pair.
func (r *AttendanceSessionRepository) FindByAllocationAndDate(ctx context.Context, allocationID string, date time.Time) (*models.AttendanceSession, error) {
	const query = `SELECT id, allocation_id, session_date, created_at, updated_at
		FROM attendance_sessions WHERE allocation_id = $1 AND session_date = $2`
	var session models.AttendanceSession
	if err := r.db.GetContext(ctx, &session, query, allocationID, date); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find attendance session by date: %w", err)
	}
	return &session, nil
}

// ExistsOther reports whether a different session occupies the pair.
func (r *AttendanceSessionRepository) ExistsOther(ctx context.Context, allocationID string, date time.Time, excludeID string) (bool, error) {
	const query = `SELECT 1 FROM attendance_sessions WHERE allocation_id = $1 AND session_date = $2 AND id <> $3 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, allocationID, date, excludeID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check attendance session date: %w", err)
	}
	return true, nil
}

// Create inserts a new session. A unique violation on the composite pair
// propagates for the caller to translate into a conflict.
func (r *AttendanceSessionRepository) Create(ctx context.Context, session *models.AttendanceSession) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now
	const query = `INSERT INTO attendance_sessions (id, allocation_id, session_date, created_at, updated_at)
		VALUES (:id, :allocation_id, :session_date, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("create attendance session: %w", err)
	}
	return nil
}

// UpdateDate moves the session to a new date.
func (r *AttendanceSessionRepository) UpdateDate(ctx context.Context, id string, date time.Time) error {
	const query = `UPDATE attendance_sessions SET session_date = $1, updated_at = $2 WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, date, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update attendance session date: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check updated session rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes the session and its records in one transaction.
func (r *AttendanceSessionRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete session: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM attendance_records WHERE session_id = $1`, id); err != nil {
		return fmt.Errorf("delete attendance records: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM attendance_sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete attendance session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check deleted session rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete session: %w", err)
	}
	return nil
}
