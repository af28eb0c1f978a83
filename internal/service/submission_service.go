package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/schoolhub-dev/schoolhub-api/internal/authz"
	"github.com/schoolhub-dev/schoolhub-api/internal/models"
	"github.com/schoolhub-dev/schoolhub-api/internal/validation"
	"github.com/schoolhub-dev/schoolhub-api/pkg/database"
	"github.com/schoolhub-dev/schoolhub-api/pkg/result"
)

type submissionRepository interface {
	FindByID(ctx context.Context, id string) (*models.Submission, error)
	ListByAssignment(ctx context.Context, assignmentID string) ([]models.Submission, error)
	Create(ctx context.Context, submission *models.Submission) error
	UpdateGrade(ctx context.Context, id string, grade float64) error
	Delete(ctx context.Context, id string) error
}

type submissionAssignmentReader interface {
	FindByID(ctx context.Context, id string) (*models.Assignment, error)
}

// CreateSubmissionRequest hands in an answer. The student id comes from
// the caller, never the body.
type CreateSubmissionRequest struct {
	AssignmentID string `json:"assignment_id" validate:"required"`
	Content      string `json:"content" validate:"required"`
}

// GradeSubmissionRequest scores a submission.
type GradeSubmissionRequest struct {
	Grade float64 `json:"grade" validate:"gte=0,lte=100"`
}

// SubmissionService manages student answers. Students submit and withdraw
// their own; the allocation's teacher lists and grades.
type SubmissionService struct {
	submissions submissionRepository
	assignments submissionAssignmentReader
	allocations assignmentAllocationReader
	policy      authz.Policy
	logger      *zap.Logger

	createValidators []validation.Validator[CreateSubmissionRequest]
	gradeValidators  []validation.Validator[GradeSubmissionRequest]
}

// NewSubmissionService constructs the submission service.
func NewSubmissionService(
	submissions submissionRepository,
	assignments submissionAssignmentReader,
	allocations assignmentAllocationReader,
	policy authz.Policy,
	validate *validator.Validate,
	logger *zap.Logger,
) *SubmissionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubmissionService{
		submissions: submissions,
		assignments: assignments,
		allocations: allocations,
		policy:      policy,
		logger:      logger,
		createValidators: []validation.Validator[CreateSubmissionRequest]{
			validation.NewStructRules[CreateSubmissionRequest](validate),
		},
		gradeValidators: []validation.Validator[GradeSubmissionRequest]{
			validation.NewStructRules[GradeSubmissionRequest](validate),
		},
	}
}

// Create hands in the caller's answer to an assignment. One submission per
// student per assignment.
func (s *SubmissionService) Create(ctx context.Context, caller authz.Identity, req CreateSubmissionRequest) result.Result[models.Submission] {
	if caller.Role != models.RoleStudent {
		return result.Err[models.Submission](result.Forbidden("NOT_A_STUDENT", "only students can submit answers"))
	}
	return validation.Run(ctx, req, s.createValidators, func(ctx context.Context, req CreateSubmissionRequest) result.Result[models.Submission] {
		if _, err := s.assignments.FindByID(ctx, req.AssignmentID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return result.Err[models.Submission](result.NotFound("ASSIGNMENT_NOT_FOUND", "assignment not found"))
			}
			return result.Err[models.Submission](s.unexpected("resolve assignment", err))
		}

		submission := &models.Submission{
			AssignmentID: req.AssignmentID,
			StudentID:    caller.UserID,
			Content:      req.Content,
		}
		if err := s.submissions.Create(ctx, submission); err != nil {
			if database.IsUniqueViolation(err) {
				return result.Err[models.Submission](result.Conflict("ALREADY_SUBMITTED", "you have already submitted for this assignment"))
			}
			return result.Err[models.Submission](s.unexpected("create submission", err))
		}
		return result.Ok(*submission)
	})
}

// ListByAssignment returns all submissions for an assignment the caller
// teaches.
func (s *SubmissionService) ListByAssignment(ctx context.Context, caller authz.Identity, assignmentID string) result.Result[[]models.Submission] {
	if r := s.authorizeTeacher(ctx, caller, assignmentID); !r.Succeeded() {
		return result.Forward[[]models.Submission](r)
	}
	submissions, err := s.submissions.ListByAssignment(ctx, assignmentID)
	if err != nil {
		return result.Err[[]models.Submission](s.unexpected("list submissions", err))
	}
	return result.Ok(submissions)
}

// Grade scores a submission. Only the allocation's teacher may grade.
func (s *SubmissionService) Grade(ctx context.Context, caller authz.Identity, submissionID string, req GradeSubmissionRequest) result.Empty {
	return validation.Run(ctx, req, s.gradeValidators, func(ctx context.Context, req GradeSubmissionRequest) result.Empty {
		submission, err := s.submissions.FindByID(ctx, submissionID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return result.Err[result.Unit](result.NotFound("SUBMISSION_NOT_FOUND", "submission not found"))
			}
			return result.Err[result.Unit](s.unexpected("resolve submission", err))
		}
		if r := s.authorizeTeacher(ctx, caller, submission.AssignmentID); !r.Succeeded() {
			return r
		}
		if err := s.submissions.UpdateGrade(ctx, submission.ID, req.Grade); err != nil {
			return result.Err[result.Unit](s.unexpected("grade submission", err))
		}
		return result.OK()
	})
}

// Delete withdraws a submission. The submitting student may withdraw
// their own; the allocation's teacher may remove any.
func (s *SubmissionService) Delete(ctx context.Context, caller authz.Identity, submissionID string) result.Empty {
	submission, err := s.submissions.FindByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return result.Err[result.Unit](result.NotFound("SUBMISSION_NOT_FOUND", "submission not found"))
		}
		return result.Err[result.Unit](s.unexpected("resolve submission", err))
	}

	if caller.UserID == "" || caller.UserID != submission.StudentID {
		if r := s.authorizeTeacher(ctx, caller, submission.AssignmentID); !r.Succeeded() {
			return r
		}
	}

	if err := s.submissions.Delete(ctx, submission.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return result.Err[result.Unit](result.NotFound("SUBMISSION_NOT_FOUND", "submission not found"))
		}
		return result.Err[result.Unit](s.unexpected("delete submission", err))
	}
	return result.OK()
}

// authorizeTeacher resolves an assignment's allocation and checks the
// caller owns it.
func (s *SubmissionService) authorizeTeacher(ctx context.Context, caller authz.Identity, assignmentID string) result.Empty {
	assignment, err := s.assignments.FindByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return result.Err[result.Unit](result.NotFound("ASSIGNMENT_NOT_FOUND", "assignment not found"))
		}
		return result.Err[result.Unit](s.unexpected("resolve assignment", err))
	}
	allocation, err := s.allocations.FindByID(ctx, assignment.AllocationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return result.Err[result.Unit](result.NotFound("ALLOCATION_NOT_FOUND", "allocation not found"))
		}
		return result.Err[result.Unit](s.unexpected("resolve allocation", err))
	}
	return s.policy.CanManage(caller, allocation.TeacherID)
}

func (s *SubmissionService) unexpected(op string, err error) result.Error {
	s.logger.Error("submission operation failed", zap.String("op", op), zap.Error(err))
	return result.Failure("UNEXPECTED_ERROR", "an unexpected error occurred")
}
