package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolhub-dev/schoolhub-api/internal/models"
)

func newSessionMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestAttendanceSessionRepositoryFindByAllocationAndDate(t *testing.T) {
	db, mock, cleanup := newSessionMock(t)
	defer cleanup()
	repo := NewAttendanceSessionRepository(db)

	date := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "allocation_id", "session_date", "created_at", "updated_at"}).
		AddRow("session-1", "alloc-1", date, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, allocation_id, session_date, created_at, updated_at
		FROM attendance_sessions WHERE allocation_id = $1 AND session_date = $2`)).
		WithArgs("alloc-1", date).
		WillReturnRows(rows)

	session, err := repo.FindByAllocationAndDate(context.Background(), "alloc-1", date)
	require.NoError(t, err)
	assert.Equal(t, "session-1", session.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceSessionRepositoryFindByAllocationAndDateMissing(t *testing.T) {
	db, mock, cleanup := newSessionMock(t)
	defer cleanup()
	repo := NewAttendanceSessionRepository(db)

	date := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT id, allocation_id, session_date").
		WithArgs("alloc-1", date).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByAllocationAndDate(context.Background(), "alloc-1", date)
	assert.Equal(t, sql.ErrNoRows, err)
}

func TestAttendanceSessionRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newSessionMock(t)
	defer cleanup()
	repo := NewAttendanceSessionRepository(db)

	mock.ExpectExec("INSERT INTO attendance_sessions").
		WithArgs(sqlmock.AnyArg(), "alloc-1", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	session := &models.AttendanceSession{
		AllocationID: "alloc-1",
		Date:         time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Create(context.Background(), session))
	assert.NotEmpty(t, session.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceSessionRepositoryExistsOther(t *testing.T) {
	db, mock, cleanup := newSessionMock(t)
	defer cleanup()
	repo := NewAttendanceSessionRepository(db)

	date := time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM attendance_sessions WHERE allocation_id = $1 AND session_date = $2 AND id <> $3 LIMIT 1`)).
		WithArgs("alloc-1", date, "session-1").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	exists, err := repo.ExistsOther(context.Background(), "alloc-1", date, "session-1")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceSessionRepositoryUpdateDateMissing(t *testing.T) {
	db, mock, cleanup := newSessionMock(t)
	defer cleanup()
	repo := NewAttendanceSessionRepository(db)

	mock.ExpectExec("UPDATE attendance_sessions SET session_date").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "session-9").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateDate(context.Background(), "session-9", time.Now().UTC())
	assert.Equal(t, sql.ErrNoRows, err)
}

func TestAttendanceSessionRepositoryDeleteCascades(t *testing.T) {
	db, mock, cleanup := newSessionMock(t)
	defer cleanup()
	repo := NewAttendanceSessionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM attendance_records WHERE session_id").
		WithArgs("session-1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("DELETE FROM attendance_sessions WHERE id").
		WithArgs("session-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), "session-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceSessionRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newSessionMock(t)
	defer cleanup()
	repo := NewAttendanceSessionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM attendance_records WHERE session_id").
		WithArgs("session-9").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM attendance_sessions WHERE id").
		WithArgs("session-9").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	assert.Equal(t, sql.ErrNoRows, repo.Delete(context.Background(), "session-9"))
}
