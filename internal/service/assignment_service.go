package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/schoolhub-dev/schoolhub-api/internal/authz"
	"github.com/schoolhub-dev/schoolhub-api/internal/models"
	"github.com/schoolhub-dev/schoolhub-api/internal/validation"
	"github.com/schoolhub-dev/schoolhub-api/pkg/result"
)

type assignmentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Assignment, error)
	List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, int, error)
	Create(ctx context.Context, assignment *models.Assignment) error
	Update(ctx context.Context, assignment *models.Assignment) error
	Delete(ctx context.Context, id string) error
}

type assignmentAllocationReader interface {
	FindByID(ctx context.Context, id string) (*models.Allocation, error)
}

// CreateAssignmentRequest publishes homework under an allocation.
type CreateAssignmentRequest struct {
	AllocationID string  `json:"allocation_id" validate:"required"`
	Title        string  `json:"title" validate:"required,max=200"`
	Description  *string `json:"description,omitempty"`
	DueDate      string  `json:"due_date" validate:"required,datetime=2006-01-02"`
}

// UpdateAssignmentRequest rewrites an assignment's content.
type UpdateAssignmentRequest struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Description *string `json:"description,omitempty"`
	DueDate     string  `json:"due_date" validate:"required,datetime=2006-01-02"`
}

// AssignmentService manages homework. Writes require the caller to own
// the allocation the assignment hangs off.
type AssignmentService struct {
	assignments assignmentRepository
	allocations assignmentAllocationReader
	policy      authz.Policy
	logger      *zap.Logger

	createValidators []validation.Validator[CreateAssignmentRequest]
	updateValidators []validation.Validator[UpdateAssignmentRequest]
}

// NewAssignmentService constructs the assignment service.
func NewAssignmentService(
	assignments assignmentRepository,
	allocations assignmentAllocationReader,
	policy authz.Policy,
	validate *validator.Validate,
	logger *zap.Logger,
) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{
		assignments: assignments,
		allocations: allocations,
		policy:      policy,
		logger:      logger,
		createValidators: []validation.Validator[CreateAssignmentRequest]{
			validation.NewStructRules[CreateAssignmentRequest](validate),
		},
		updateValidators: []validation.Validator[UpdateAssignmentRequest]{
			validation.NewStructRules[UpdateAssignmentRequest](validate),
		},
	}
}

// Create publishes an assignment under an allocation the caller owns.
func (s *AssignmentService) Create(ctx context.Context, caller authz.Identity, req CreateAssignmentRequest) result.Result[models.Assignment] {
	return validation.Run(ctx, req, s.createValidators, func(ctx context.Context, req CreateAssignmentRequest) result.Result[models.Assignment] {
		allocation, err := s.allocations.FindByID(ctx, req.AllocationID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return result.Err[models.Assignment](result.NotFound("ALLOCATION_NOT_FOUND", "allocation not found"))
			}
			return result.Err[models.Assignment](s.unexpected("resolve allocation", err))
		}
		if r := s.policy.CanManage(caller, allocation.TeacherID); !r.Succeeded() {
			return result.Forward[models.Assignment](r)
		}

		dueDate, parseErr := time.Parse(dateLayout, req.DueDate)
		if parseErr != nil {
			return result.Err[models.Assignment](result.Validation("INVALID_DUE_DATE", "due_date must be formatted YYYY-MM-DD"))
		}

		assignment := &models.Assignment{
			AllocationID: allocation.ID,
			Title:        req.Title,
			Description:  req.Description,
			DueDate:      dueDate,
		}
		if err := s.assignments.Create(ctx, assignment); err != nil {
			return result.Err[models.Assignment](s.unexpected("create assignment", err))
		}
		return result.Ok(*assignment)
	})
}

// Get returns one assignment.
func (s *AssignmentService) Get(ctx context.Context, id string) result.Result[models.Assignment] {
	assignment, err := s.assignments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return result.Err[models.Assignment](result.NotFound("ASSIGNMENT_NOT_FOUND", "assignment not found"))
		}
		return result.Err[models.Assignment](s.unexpected("resolve assignment", err))
	}
	return result.Ok(*assignment)
}

// List returns a page of assignments.
func (s *AssignmentService) List(ctx context.Context, filter models.AssignmentFilter) result.Result[Page[models.Assignment]] {
	filter.Page, filter.PageSize = normalizePaging(filter.Page, filter.PageSize)
	items, total, err := s.assignments.List(ctx, filter)
	if err != nil {
		return result.Err[Page[models.Assignment]](s.unexpected("list assignments", err))
	}
	return result.Ok(Page[models.Assignment]{
		Items:      items,
		Pagination: models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total},
	})
}

// Update rewrites an assignment the caller owns.
func (s *AssignmentService) Update(ctx context.Context, caller authz.Identity, id string, req UpdateAssignmentRequest) result.Result[models.Assignment] {
	return validation.Run(ctx, req, s.updateValidators, func(ctx context.Context, req UpdateAssignmentRequest) result.Result[models.Assignment] {
		assignment, r := s.resolveOwned(ctx, caller, id)
		if !r.Succeeded() {
			return result.Forward[models.Assignment](r)
		}

		dueDate, parseErr := time.Parse(dateLayout, req.DueDate)
		if parseErr != nil {
			return result.Err[models.Assignment](result.Validation("INVALID_DUE_DATE", "due_date must be formatted YYYY-MM-DD"))
		}

		assignment.Title = req.Title
		assignment.Description = req.Description
		assignment.DueDate = dueDate
		if err := s.assignments.Update(ctx, assignment); err != nil {
			return result.Err[models.Assignment](s.unexpected("update assignment", err))
		}
		return result.Ok(*assignment)
	})
}

// Delete removes an assignment the caller owns.
func (s *AssignmentService) Delete(ctx context.Context, caller authz.Identity, id string) result.Empty {
	_, r := s.resolveOwned(ctx, caller, id)
	if !r.Succeeded() {
		return r
	}
	if err := s.assignments.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return result.Err[result.Unit](result.NotFound("ASSIGNMENT_NOT_FOUND", "assignment not found"))
		}
		return result.Err[result.Unit](s.unexpected("delete assignment", err))
	}
	return result.OK()
}

// resolveOwned loads an assignment and checks the caller owns its
// allocation. Not-found wins over forbidden so ids cannot be probed.
func (s *AssignmentService) resolveOwned(ctx context.Context, caller authz.Identity, id string) (*models.Assignment, result.Empty) {
	assignment, err := s.assignments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, result.Err[result.Unit](result.NotFound("ASSIGNMENT_NOT_FOUND", "assignment not found"))
		}
		return nil, result.Err[result.Unit](s.unexpected("resolve assignment", err))
	}
	allocation, err := s.allocations.FindByID(ctx, assignment.AllocationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, result.Err[result.Unit](result.NotFound("ALLOCATION_NOT_FOUND", "allocation not found"))
		}
		return nil, result.Err[result.Unit](s.unexpected("resolve allocation", err))
	}
	if r := s.policy.CanManage(caller, allocation.TeacherID); !r.Succeeded() {
		return nil, r
	}
	return assignment, result.OK()
}

func (s *AssignmentService) unexpected(op string, err error) result.Error {
	s.logger.Error("assignment operation failed", zap.String("op", op), zap.Error(err))
	return result.Failure("UNEXPECTED_ERROR", "an unexpected error occurred")
}
