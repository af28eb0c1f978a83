package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/schoolhub-dev/schoolhub-api/internal/models"
	"github.com/schoolhub-dev/schoolhub-api/internal/validation"
	"github.com/schoolhub-dev/schoolhub-api/pkg/database"
	"github.com/schoolhub-dev/schoolhub-api/pkg/result"
)

type allocationRepository interface {
	FindByID(ctx context.Context, id string) (*models.Allocation, error)
	List(ctx context.Context, filter models.AllocationFilter) ([]models.AllocationDetail, int, error)
	Exists(ctx context.Context, teacherID, classID, subjectID string) (bool, error)
	Create(ctx context.Context, allocation *models.Allocation) error
	Delete(ctx context.Context, id string) error
}

type allocationUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type allocationClassReader interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

type allocationSubjectReader interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

// CreateAllocationRequest binds a teacher to a class and subject.
type CreateAllocationRequest struct {
	TeacherID string `json:"teacher_id" validate:"required"`
	ClassID   string `json:"class_id" validate:"required"`
	SubjectID string `json:"subject_id" validate:"required"`
}

// AllocationService manages teacher-class-subject bindings.
type AllocationService struct {
	allocations allocationRepository
	users       allocationUserReader
	classes     allocationClassReader
	subjects    allocationSubjectReader
	logger      *zap.Logger

	createValidators []validation.Validator[CreateAllocationRequest]
}

// NewAllocationService constructs the allocation service.
func NewAllocationService(
	allocations allocationRepository,
	users allocationUserReader,
	classes allocationClassReader,
	subjects allocationSubjectReader,
	validate *validator.Validate,
	logger *zap.Logger,
) *AllocationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AllocationService{
		allocations: allocations,
		users:       users,
		classes:     classes,
		subjects:    subjects,
		logger:      logger,
		createValidators: []validation.Validator[CreateAllocationRequest]{
			validation.NewStructRules[CreateAllocationRequest](validate),
		},
	}
}

// Create binds a teacher to a class and subject. The triple is unique.
func (s *AllocationService) Create(ctx context.Context, req CreateAllocationRequest) result.Result[models.Allocation] {
	return validation.Run(ctx, req, s.createValidators, s.create)
}

func (s *AllocationService) create(ctx context.Context, req CreateAllocationRequest) result.Result[models.Allocation] {
	teacher, err := s.users.FindByID(ctx, req.TeacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return result.Err[models.Allocation](result.NotFound("TEACHER_NOT_FOUND", "teacher not found"))
		}
		return result.Err[models.Allocation](s.unexpected("resolve teacher", err))
	}
	if teacher.Role != models.RoleTeacher {
		return result.Err[models.Allocation](result.Validation("NOT_A_TEACHER", "user is not a teacher"))
	}

	if _, err := s.classes.FindByID(ctx, req.ClassID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return result.Err[models.Allocation](result.NotFound("CLASS_NOT_FOUND", "class not found"))
		}
		return result.Err[models.Allocation](s.unexpected("resolve class", err))
	}
	if _, err := s.subjects.FindByID(ctx, req.SubjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return result.Err[models.Allocation](result.NotFound("SUBJECT_NOT_FOUND", "subject not found"))
		}
		return result.Err[models.Allocation](s.unexpected("resolve subject", err))
	}

	exists, err := s.allocations.Exists(ctx, req.TeacherID, req.ClassID, req.SubjectID)
	if err != nil {
		return result.Err[models.Allocation](s.unexpected("check allocation", err))
	}
	if exists {
		return result.Err[models.Allocation](result.Conflict("ALLOCATION_EXISTS", "this teacher is already allocated to the class and subject"))
	}

	allocation := &models.Allocation{
		TeacherID: req.TeacherID,
		ClassID:   req.ClassID,
		SubjectID: req.SubjectID,
	}
	if err := s.allocations.Create(ctx, allocation); err != nil {
		if database.IsUniqueViolation(err) {
			return result.Err[models.Allocation](result.Conflict("ALLOCATION_EXISTS", "this teacher is already allocated to the class and subject"))
		}
		return result.Err[models.Allocation](s.unexpected("create allocation", err))
	}
	return result.Ok(*allocation)
}

// Get returns one allocation.
func (s *AllocationService) Get(ctx context.Context, id string) result.Result[models.Allocation] {
	allocation, err := s.allocations.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return result.Err[models.Allocation](result.NotFound("ALLOCATION_NOT_FOUND", "allocation not found"))
		}
		return result.Err[models.Allocation](s.unexpected("resolve allocation", err))
	}
	return result.Ok(*allocation)
}

// List returns a page of allocations with display names.
func (s *AllocationService) List(ctx context.Context, filter models.AllocationFilter) result.Result[Page[models.AllocationDetail]] {
	filter.Page, filter.PageSize = normalizePaging(filter.Page, filter.PageSize)
	items, total, err := s.allocations.List(ctx, filter)
	if err != nil {
		return result.Err[Page[models.AllocationDetail]](s.unexpected("list allocations", err))
	}
	return result.Ok(Page[models.AllocationDetail]{
		Items:      items,
		Pagination: models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total},
	})
}

// Delete removes an allocation.
func (s *AllocationService) Delete(ctx context.Context, id string) result.Empty {
	if err := s.allocations.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return result.Err[result.Unit](result.NotFound("ALLOCATION_NOT_FOUND", "allocation not found"))
		}
		return result.Err[result.Unit](s.unexpected("delete allocation", err))
	}
	return result.OK()
}

func (s *AllocationService) unexpected(op string, err error) result.Error {
	s.logger.Error("allocation operation failed", zap.String("op", op), zap.Error(err))
	return result.Failure("UNEXPECTED_ERROR", "an unexpected error occurred")
}
