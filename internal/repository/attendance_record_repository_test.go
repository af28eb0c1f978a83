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

func newRecordMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestAttendanceRecordRepositoryFindBySessionAndStudent(t *testing.T) {
	db, mock, cleanup := newRecordMock(t)
	defer cleanup()
	repo := NewAttendanceRecordRepository(db)

	rows := sqlmock.NewRows([]string{"id", "session_id", "student_id", "status", "created_at", "updated_at"}).
		AddRow("record-1", "session-1", "student-1", "PRESENT", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, session_id, student_id, status, created_at, updated_at
		FROM attendance_records WHERE session_id = $1 AND student_id = $2`)).
		WithArgs("session-1", "student-1").
		WillReturnRows(rows)

	record, err := repo.FindBySessionAndStudent(context.Background(), "session-1", "student-1")
	require.NoError(t, err)
	assert.Equal(t, models.AttendancePresent, record.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRecordRepositoryCreateAndUpdateStatus(t *testing.T) {
	db, mock, cleanup := newRecordMock(t)
	defer cleanup()
	repo := NewAttendanceRecordRepository(db)

	mock.ExpectExec("INSERT INTO attendance_records").
		WithArgs(sqlmock.AnyArg(), "session-1", "student-1", "ABSENT", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	record := &models.AttendanceRecord{
		SessionID: "session-1",
		StudentID: "student-1",
		Status:    models.AttendanceAbsent,
	}
	require.NoError(t, repo.Create(context.Background(), record))
	assert.NotEmpty(t, record.ID)

	mock.ExpectExec("UPDATE attendance_records SET status").
		WithArgs("LATE", sqlmock.AnyArg(), record.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), record.ID, models.AttendanceLate))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRecordRepositoryUpdateStatusMissing(t *testing.T) {
	db, mock, cleanup := newRecordMock(t)
	defer cleanup()
	repo := NewAttendanceRecordRepository(db)

	mock.ExpectExec("UPDATE attendance_records SET status").
		WithArgs("LATE", sqlmock.AnyArg(), "record-9").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.Equal(t, sql.ErrNoRows, repo.UpdateStatus(context.Background(), "record-9", models.AttendanceLate))
}

func TestAttendanceRecordRepositoryListBySession(t *testing.T) {
	db, mock, cleanup := newRecordMock(t)
	defer cleanup()
	repo := NewAttendanceRecordRepository(db)

	rows := sqlmock.NewRows([]string{"id", "session_id", "student_id", "status", "created_at", "updated_at", "student_name"}).
		AddRow("record-1", "session-1", "student-1", "PRESENT", time.Now(), time.Now(), "Alice").
		AddRow("record-2", "session-1", "student-2", "EXCUSED", time.Now(), time.Now(), "Bob")
	mock.ExpectQuery("SELECT ar.id, ar.session_id, ar.student_id, ar.status").
		WithArgs("session-1").
		WillReturnRows(rows)

	records, err := repo.ListBySession(context.Background(), "session-1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Alice", records[0].StudentName)
	assert.NoError(t, mock.ExpectationsWereMet())
}
