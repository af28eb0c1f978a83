package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolhub-dev/schoolhub-api/internal/authz"
	"github.com/schoolhub-dev/schoolhub-api/internal/models"
	"github.com/schoolhub-dev/schoolhub-api/pkg/result"
)

type fakeAssignmentReader struct {
	byID map[string]*models.Assignment
}

func (f *fakeAssignmentReader) FindByID(_ context.Context, id string) (*models.Assignment, error) {
	if assignment, ok := f.byID[id]; ok {
		copied := *assignment
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

type fakeSubmissions struct {
	byID map[string]*models.Submission
	seq  int
}

func (f *fakeSubmissions) FindByID(_ context.Context, id string) (*models.Submission, error) {
	if submission, ok := f.byID[id]; ok {
		copied := *submission
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeSubmissions) ListByAssignment(_ context.Context, assignmentID string) ([]models.Submission, error) {
	var submissions []models.Submission
	for _, submission := range f.byID {
		if submission.AssignmentID == assignmentID {
			submissions = append(submissions, *submission)
		}
	}
	return submissions, nil
}

func (f *fakeSubmissions) Create(_ context.Context, submission *models.Submission) error {
	for _, existing := range f.byID {
		if existing.AssignmentID == submission.AssignmentID && existing.StudentID == submission.StudentID {
			return &pq.Error{Code: "23505"}
		}
	}
	f.seq++
	submission.ID = fmt.Sprintf("submission-%d", f.seq)
	submission.SubmittedAt = time.Now()
	copied := *submission
	f.byID[submission.ID] = &copied
	return nil
}

func (f *fakeSubmissions) UpdateGrade(_ context.Context, id string, grade float64) error {
	submission, ok := f.byID[id]
	if !ok {
		return sql.ErrNoRows
	}
	now := time.Now()
	submission.Grade = &grade
	submission.GradedAt = &now
	return nil
}

func (f *fakeSubmissions) Delete(_ context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.byID, id)
	return nil
}

func newSubmissionFixture() (*SubmissionService, *fakeSubmissions) {
	allocations := &fakeAllocations{byID: map[string]*models.Allocation{
		"alloc-1": {ID: "alloc-1", TeacherID: "teacher-1"},
	}}
	assignments := &fakeAssignmentReader{byID: map[string]*models.Assignment{
		"assignment-1": {ID: "assignment-1", AllocationID: "alloc-1", Title: "Fractions"},
	}}
	submissions := &fakeSubmissions{byID: map[string]*models.Submission{}}
	svc := NewSubmissionService(submissions, assignments, allocations, authz.Policy{}, nil, nil)
	return svc, submissions
}

var (
	studentOne = authz.Identity{UserID: "student-1", Role: models.RoleStudent}
	studentTwo = authz.Identity{UserID: "student-2", Role: models.RoleStudent}
	teacherOne = authz.Identity{UserID: "teacher-1", Role: models.RoleTeacher}
	teacherTwo = authz.Identity{UserID: "teacher-2", Role: models.RoleTeacher}
)

func submitOne(t *testing.T, svc *SubmissionService, caller authz.Identity) models.Submission {
	t.Helper()
	r := svc.Create(context.Background(), caller, CreateSubmissionRequest{
		AssignmentID: "assignment-1",
		Content:      "my answer",
	})
	require.True(t, r.Succeeded())
	return r.Value()
}

func TestSubmissionCreate(t *testing.T) {
	svc, _ := newSubmissionFixture()

	submission := submitOne(t, svc, studentOne)

	assert.Equal(t, "student-1", submission.StudentID)
	assert.Nil(t, submission.Grade)
}

func TestSubmissionCreateRejectsNonStudent(t *testing.T) {
	svc, _ := newSubmissionFixture()

	r := svc.Create(context.Background(), teacherOne, CreateSubmissionRequest{
		AssignmentID: "assignment-1",
		Content:      "answer key",
	})

	require.False(t, r.Succeeded())
	assert.Equal(t, result.KindForbidden, r.Err().Kind)
}

func TestSubmissionCreateTwiceConflicts(t *testing.T) {
	svc, _ := newSubmissionFixture()
	submitOne(t, svc, studentOne)

	r := svc.Create(context.Background(), studentOne, CreateSubmissionRequest{
		AssignmentID: "assignment-1",
		Content:      "second try",
	})

	require.False(t, r.Succeeded())
	assert.Equal(t, result.KindConflict, r.Err().Kind)
}

func TestSubmissionGrade(t *testing.T) {
	svc, submissions := newSubmissionFixture()
	submission := submitOne(t, svc, studentOne)

	r := svc.Grade(context.Background(), teacherTwo, submission.ID, GradeSubmissionRequest{Grade: 85})
	require.False(t, r.Succeeded())
	assert.Equal(t, result.KindForbidden, r.Err().Kind)

	r = svc.Grade(context.Background(), teacherOne, submission.ID, GradeSubmissionRequest{Grade: 85})
	require.True(t, r.Succeeded())
	graded := submissions.byID[submission.ID]
	require.NotNil(t, graded.Grade)
	assert.Equal(t, 85.0, *graded.Grade)
	assert.NotNil(t, graded.GradedAt)
}

func TestSubmissionGradeOutOfRange(t *testing.T) {
	svc, _ := newSubmissionFixture()
	submission := submitOne(t, svc, studentOne)

	r := svc.Grade(context.Background(), teacherOne, submission.ID, GradeSubmissionRequest{Grade: 140})

	require.False(t, r.Succeeded())
	assert.True(t, r.IsInvalid())
}

func TestSubmissionListRequiresOwnership(t *testing.T) {
	svc, _ := newSubmissionFixture()
	submitOne(t, svc, studentOne)
	submitOne(t, svc, studentTwo)

	r := svc.ListByAssignment(context.Background(), teacherTwo, "assignment-1")
	require.False(t, r.Succeeded())
	assert.Equal(t, result.KindForbidden, r.Err().Kind)

	r = svc.ListByAssignment(context.Background(), teacherOne, "assignment-1")
	require.True(t, r.Succeeded())
	assert.Len(t, r.Value(), 2)
}

func TestSubmissionDelete(t *testing.T) {
	svc, submissions := newSubmissionFixture()
	submission := submitOne(t, svc, studentOne)

	// Another student cannot withdraw it.
	r := svc.Delete(context.Background(), studentTwo, submission.ID)
	require.False(t, r.Succeeded())
	assert.Equal(t, result.KindForbidden, r.Err().Kind)

	// The submitting student can.
	require.True(t, svc.Delete(context.Background(), studentOne, submission.ID).Succeeded())
	assert.Empty(t, submissions.byID)

	// The allocation's teacher can remove any.
	submission = submitOne(t, svc, studentOne)
	require.True(t, svc.Delete(context.Background(), teacherOne, submission.ID).Succeeded())
}
