package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolhub-dev/schoolhub-api/internal/authz"
	"github.com/schoolhub-dev/schoolhub-api/internal/models"
	"github.com/schoolhub-dev/schoolhub-api/pkg/result"
)

type fakeAllocations struct {
	byID map[string]*models.Allocation
}

func (f *fakeAllocations) FindByID(_ context.Context, id string) (*models.Allocation, error) {
	if allocation, ok := f.byID[id]; ok {
		copied := *allocation
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

type fakeSessions struct {
	byID      map[string]*models.AttendanceSession
	seq       int
	createErr error
}

func sessionKey(allocationID string, date time.Time) string {
	return allocationID + "|" + date.Format("2006-01-02")
}

func (f *fakeSessions) FindByID(_ context.Context, id string) (*models.AttendanceSession, error) {
	if session, ok := f.byID[id]; ok {
		copied := *session
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeSessions) FindByAllocationAndDate(_ context.Context, allocationID string, date time.Time) (*models.AttendanceSession, error) {
	for _, session := range f.byID {
		if sessionKey(session.AllocationID, session.Date) == sessionKey(allocationID, date) {
			copied := *session
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeSessions) ExistsOther(_ context.Context, allocationID string, date time.Time, excludeID string) (bool, error) {
	for _, session := range f.byID {
		if session.ID != excludeID && sessionKey(session.AllocationID, session.Date) == sessionKey(allocationID, date) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeSessions) Create(_ context.Context, session *models.AttendanceSession) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, existing := range f.byID {
		if sessionKey(existing.AllocationID, existing.Date) == sessionKey(session.AllocationID, session.Date) {
			return &pq.Error{Code: "23505"}
		}
	}
	f.seq++
	session.ID = fmt.Sprintf("session-%d", f.seq)
	copied := *session
	f.byID[session.ID] = &copied
	return nil
}

func (f *fakeSessions) UpdateDate(_ context.Context, id string, date time.Time) error {
	session, ok := f.byID[id]
	if !ok {
		return sql.ErrNoRows
	}
	session.Date = date
	return nil
}

func (f *fakeSessions) Delete(_ context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.byID, id)
	return nil
}

type fakeRecords struct {
	byID    map[string]*models.AttendanceRecord
	seq     int
	creates int
	updates int
}

func (f *fakeRecords) FindBySessionAndStudent(_ context.Context, sessionID, studentID string) (*models.AttendanceRecord, error) {
	for _, record := range f.byID {
		if record.SessionID == sessionID && record.StudentID == studentID {
			copied := *record
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeRecords) ListBySession(_ context.Context, sessionID string) ([]models.AttendanceRecordDetail, error) {
	var details []models.AttendanceRecordDetail
	for _, record := range f.byID {
		if record.SessionID == sessionID {
			details = append(details, models.AttendanceRecordDetail{
				AttendanceRecord: *record,
				StudentName:      "Student " + record.StudentID,
			})
		}
	}
	return details, nil
}

func (f *fakeRecords) Create(_ context.Context, record *models.AttendanceRecord) error {
	for _, existing := range f.byID {
		if existing.SessionID == record.SessionID && existing.StudentID == record.StudentID {
			return &pq.Error{Code: "23505"}
		}
	}
	f.seq++
	f.creates++
	record.ID = fmt.Sprintf("record-%d", f.seq)
	copied := *record
	f.byID[record.ID] = &copied
	return nil
}

func (f *fakeRecords) UpdateStatus(_ context.Context, id string, status models.AttendanceStatus) error {
	record, ok := f.byID[id]
	if !ok {
		return sql.ErrNoRows
	}
	f.updates++
	record.Status = status
	return nil
}

func (f *fakeRecords) statusOf(t *testing.T, sessionID, studentID string) models.AttendanceStatus {
	t.Helper()
	record, err := f.FindBySessionAndStudent(context.Background(), sessionID, studentID)
	require.NoError(t, err)
	return record.Status
}

func newAttendanceFixture() (*AttendanceService, *fakeSessions, *fakeRecords) {
	allocations := &fakeAllocations{byID: map[string]*models.Allocation{
		"alloc-1": {ID: "alloc-1", TeacherID: "teacher-1", ClassID: "class-1", SubjectID: "subject-1"},
	}}
	sessions := &fakeSessions{byID: map[string]*models.AttendanceSession{}}
	records := &fakeRecords{byID: map[string]*models.AttendanceRecord{}}
	svc := NewAttendanceService(allocations, sessions, records, authz.Policy{}, nil, nil)
	return svc, sessions, records
}

func TestMarkCreatesSessionAndRecords(t *testing.T) {
	svc, sessions, records := newAttendanceFixture()

	r := svc.Mark(context.Background(), MarkAttendanceRequest{
		AllocationID: "alloc-1",
		Date:         "2026-03-02",
		Records: []AttendanceMarkItem{
			{StudentID: "student-1", Status: "PRESENT"},
			{StudentID: "student-2", Status: "absent"},
		},
	})

	require.True(t, r.Succeeded())
	sessionID := r.Value()
	require.Len(t, sessions.byID, 1)
	assert.Equal(t, models.AttendancePresent, records.statusOf(t, sessionID, "student-1"))
	assert.Equal(t, models.AttendanceAbsent, records.statusOf(t, sessionID, "student-2"))
}

func TestMarkReusesSessionAndOverwrites(t *testing.T) {
	svc, sessions, records := newAttendanceFixture()
	ctx := context.Background()

	first := svc.Mark(ctx, MarkAttendanceRequest{
		AllocationID: "alloc-1",
		Date:         "2026-03-02",
		Records: []AttendanceMarkItem{
			{StudentID: "student-1", Status: "PRESENT"},
			{StudentID: "student-2", Status: "PRESENT"},
		},
	})
	require.True(t, first.Succeeded())

	second := svc.Mark(ctx, MarkAttendanceRequest{
		AllocationID: "alloc-1",
		Date:         "2026-03-02",
		Records: []AttendanceMarkItem{
			{StudentID: "student-1", Status: "LATE"},
		},
	})
	require.True(t, second.Succeeded())

	assert.Equal(t, first.Value(), second.Value())
	require.Len(t, sessions.byID, 1)
	assert.Equal(t, models.AttendanceLate, records.statusOf(t, second.Value(), "student-1"))
	// student-2 was omitted from the second call; its record is untouched.
	assert.Equal(t, models.AttendancePresent, records.statusOf(t, second.Value(), "student-2"))
	assert.Len(t, records.byID, 2)
	assert.Equal(t, 2, records.creates)
}

func TestMarkUnknownAllocation(t *testing.T) {
	svc, _, _ := newAttendanceFixture()

	r := svc.Mark(context.Background(), MarkAttendanceRequest{
		AllocationID: "alloc-missing",
		Date:         "2026-03-02",
	})

	require.False(t, r.Succeeded())
	assert.Equal(t, result.KindNotFound, r.Err().Kind)
}

func TestMarkCollectsAllValidationFailures(t *testing.T) {
	svc, sessions, _ := newAttendanceFixture()

	r := svc.Mark(context.Background(), MarkAttendanceRequest{
		AllocationID: "alloc-1",
		Date:         "March 2nd",
		Records: []AttendanceMarkItem{
			{StudentID: "student-1", Status: "SLEEPING"},
			{StudentID: "student-1", Status: "PRESENT"},
		},
	})

	require.False(t, r.Succeeded())
	require.True(t, r.IsInvalid())
	fields := r.FieldErrors()
	require.Len(t, fields, 3)

	var codes []string
	for _, f := range fields {
		assert.Equal(t, result.KindValidation, f.Kind)
		codes = append(codes, f.Code)
	}
	// Struct rules report first, in field order; cross-field rules follow.
	assert.Contains(t, codes[0], "DATE")
	assert.Contains(t, codes[1], "STATUS")
	assert.Equal(t, "DUPLICATE_STUDENT", codes[2])
	assert.Empty(t, sessions.byID)
}

func TestMarkSessionInsertRace(t *testing.T) {
	svc, sessions, _ := newAttendanceFixture()
	// Lookup misses but the insert collides, as when a concurrent mark
	// lands between the two.
	sessions.createErr = &pq.Error{Code: "23505"}

	r := svc.Mark(context.Background(), MarkAttendanceRequest{
		AllocationID: "alloc-1",
		Date:         "2026-03-02",
		Records:      []AttendanceMarkItem{{StudentID: "student-1", Status: "PRESENT"}},
	})

	require.False(t, r.Succeeded())
	assert.Equal(t, result.KindConflict, r.Err().Kind)
}

func markOne(t *testing.T, svc *AttendanceService, date string) string {
	t.Helper()
	r := svc.Mark(context.Background(), MarkAttendanceRequest{
		AllocationID: "alloc-1",
		Date:         date,
		Records:      []AttendanceMarkItem{{StudentID: "student-1", Status: "PRESENT"}},
	})
	require.True(t, r.Succeeded())
	return r.Value()
}

func TestUpdateRequiresOwnership(t *testing.T) {
	svc, _, _ := newAttendanceFixture()
	sessionID := markOne(t, svc, "2026-03-02")

	req := UpdateAttendanceRequest{SessionID: sessionID, Date: "2026-03-02"}

	other := authz.Identity{UserID: "teacher-2", Role: models.RoleTeacher}
	r := svc.Update(context.Background(), other, req)
	require.False(t, r.Succeeded())
	assert.Equal(t, result.KindForbidden, r.Err().Kind)

	// Admins are not exempt unless the bypass is switched on.
	admin := authz.Identity{UserID: "admin-1", Role: models.RoleAdmin}
	r = svc.Update(context.Background(), admin, req)
	require.False(t, r.Succeeded())
	assert.Equal(t, result.KindForbidden, r.Err().Kind)

	owner := authz.Identity{UserID: "teacher-1", Role: models.RoleTeacher}
	require.True(t, svc.Update(context.Background(), owner, req).Succeeded())
}

func TestUpdateAdminBypass(t *testing.T) {
	allocations := &fakeAllocations{byID: map[string]*models.Allocation{
		"alloc-1": {ID: "alloc-1", TeacherID: "teacher-1"},
	}}
	sessions := &fakeSessions{byID: map[string]*models.AttendanceSession{}}
	records := &fakeRecords{byID: map[string]*models.AttendanceRecord{}}
	svc := NewAttendanceService(allocations, sessions, records, authz.Policy{AdminBypass: true}, nil, nil)
	sessionID := markOne(t, svc, "2026-03-02")

	admin := authz.Identity{UserID: "admin-1", Role: models.RoleAdmin}
	r := svc.Update(context.Background(), admin, UpdateAttendanceRequest{SessionID: sessionID, Date: "2026-03-02"})
	assert.True(t, r.Succeeded())
}

func TestUpdateDateConflict(t *testing.T) {
	svc, _, _ := newAttendanceFixture()
	first := markOne(t, svc, "2026-03-02")
	markOne(t, svc, "2026-03-03")

	owner := authz.Identity{UserID: "teacher-1", Role: models.RoleTeacher}
	r := svc.Update(context.Background(), owner, UpdateAttendanceRequest{SessionID: first, Date: "2026-03-03"})

	require.False(t, r.Succeeded())
	assert.Equal(t, result.KindConflict, r.Err().Kind)
}

func TestUpdateMovesDateAndUpserts(t *testing.T) {
	svc, sessions, records := newAttendanceFixture()
	sessionID := markOne(t, svc, "2026-03-02")

	owner := authz.Identity{UserID: "teacher-1", Role: models.RoleTeacher}
	r := svc.Update(context.Background(), owner, UpdateAttendanceRequest{
		SessionID: sessionID,
		Date:      "2026-03-09",
		Records: []AttendanceMarkItem{
			{StudentID: "student-1", Status: "EXCUSED"},
			{StudentID: "student-3", Status: "PRESENT"},
		},
	})

	require.True(t, r.Succeeded())
	assert.Equal(t, "2026-03-09", sessions.byID[sessionID].Date.Format("2006-01-02"))
	assert.Equal(t, models.AttendanceExcused, records.statusOf(t, sessionID, "student-1"))
	assert.Equal(t, models.AttendancePresent, records.statusOf(t, sessionID, "student-3"))
}

func TestUpdateMissingSession(t *testing.T) {
	svc, _, _ := newAttendanceFixture()

	owner := authz.Identity{UserID: "teacher-1", Role: models.RoleTeacher}
	r := svc.Update(context.Background(), owner, UpdateAttendanceRequest{SessionID: "session-missing", Date: "2026-03-02"})

	require.False(t, r.Succeeded())
	assert.Equal(t, result.KindNotFound, r.Err().Kind)
}

func TestDeleteSession(t *testing.T) {
	svc, sessions, _ := newAttendanceFixture()
	sessionID := markOne(t, svc, "2026-03-02")

	other := authz.Identity{UserID: "teacher-2", Role: models.RoleTeacher}
	r := svc.Delete(context.Background(), other, sessionID)
	require.False(t, r.Succeeded())
	assert.Equal(t, result.KindForbidden, r.Err().Kind)

	owner := authz.Identity{UserID: "teacher-1", Role: models.RoleTeacher}
	require.True(t, svc.Delete(context.Background(), owner, sessionID).Succeeded())
	assert.Empty(t, sessions.byID)

	r = svc.Delete(context.Background(), owner, sessionID)
	require.False(t, r.Succeeded())
	assert.Equal(t, result.KindNotFound, r.Err().Kind)
}

func TestExportRecapCSV(t *testing.T) {
	svc, _, _ := newAttendanceFixture()
	sessionID := markOne(t, svc, "2026-03-02")

	r := svc.ExportRecap(context.Background(), sessionID, "csv")

	require.True(t, r.Succeeded())
	exported := r.Value()
	assert.Equal(t, "text/csv", exported.ContentType)
	assert.Equal(t, "attendance-2026-03-02.csv", exported.FileName)
	content := string(exported.Content)
	assert.True(t, strings.HasPrefix(content, "Student,Status,Marked At"))
	assert.Contains(t, content, "Student student-1,PRESENT")
}

func TestExportRecapRejectsUnknownFormat(t *testing.T) {
	svc, _, _ := newAttendanceFixture()
	sessionID := markOne(t, svc, "2026-03-02")

	r := svc.ExportRecap(context.Background(), sessionID, "xlsx")

	require.False(t, r.Succeeded())
	assert.Equal(t, result.KindValidation, r.Err().Kind)
}
