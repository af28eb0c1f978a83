package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/schoolhub-dev/schoolhub-api/internal/models"
	"github.com/schoolhub-dev/schoolhub-api/internal/validation"
	"github.com/schoolhub-dev/schoolhub-api/pkg/database"
	"github.com/schoolhub-dev/schoolhub-api/pkg/result"
)

type subjectRepository interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error)
	ExistsByCode(ctx context.Context, code, excludeID string) (bool, error)
	Create(ctx context.Context, subject *models.Subject) error
	Update(ctx context.Context, subject *models.Subject) error
	Delete(ctx context.Context, id string) error
}

// SubjectRequest carries the writable subject fields.
type SubjectRequest struct {
	Code string `json:"code" validate:"required,max=20"`
	Name string `json:"name" validate:"required,max=100"`
}

// SubjectService manages subjects. Codes are unique and stored uppercase.
type SubjectService struct {
	subjects subjectRepository
	cache    listCache
	cacheTTL time.Duration
	logger   *zap.Logger

	validators []validation.Validator[SubjectRequest]
}

// NewSubjectService constructs the subject service. cache may be nil to
// disable caching.
func NewSubjectService(subjects subjectRepository, cache listCache, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectService{
		subjects: subjects,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
		validators: []validation.Validator[SubjectRequest]{
			validation.NewStructRules[SubjectRequest](validate),
		},
	}
}

// Create adds a subject.
func (s *SubjectService) Create(ctx context.Context, req SubjectRequest) result.Result[models.Subject] {
	return validation.Run(ctx, req, s.validators, func(ctx context.Context, req SubjectRequest) result.Result[models.Subject] {
		code := strings.ToUpper(req.Code)
		taken, err := s.subjects.ExistsByCode(ctx, code, "")
		if err != nil {
			return result.Err[models.Subject](s.unexpected("check subject code", err))
		}
		if taken {
			return result.Err[models.Subject](result.Conflict("SUBJECT_CODE_TAKEN", "a subject with this code already exists"))
		}

		subject := &models.Subject{Code: code, Name: req.Name}
		if err := s.subjects.Create(ctx, subject); err != nil {
			if database.IsUniqueViolation(err) {
				return result.Err[models.Subject](result.Conflict("SUBJECT_CODE_TAKEN", "a subject with this code already exists"))
			}
			return result.Err[models.Subject](s.unexpected("create subject", err))
		}
		s.invalidate(ctx)
		return result.Ok(*subject)
	})
}

// Get returns one subject.
func (s *SubjectService) Get(ctx context.Context, id string) result.Result[models.Subject] {
	subject, err := s.subjects.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return result.Err[models.Subject](result.NotFound("SUBJECT_NOT_FOUND", "subject not found"))
		}
		return result.Err[models.Subject](s.unexpected("resolve subject", err))
	}
	return result.Ok(*subject)
}

// List returns a page of subjects, served from cache when possible.
func (s *SubjectService) List(ctx context.Context, filter models.SubjectFilter) result.Result[Page[models.Subject]] {
	filter.Page, filter.PageSize = normalizePaging(filter.Page, filter.PageSize)

	key := fmt.Sprintf("subjects:list:%s:%d:%d", filter.Search, filter.Page, filter.PageSize)
	if s.cache != nil {
		var cached Page[models.Subject]
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return result.Ok(cached)
		}
	}

	items, total, err := s.subjects.List(ctx, filter)
	if err != nil {
		return result.Err[Page[models.Subject]](s.unexpected("list subjects", err))
	}
	page := Page[models.Subject]{
		Items:      items,
		Pagination: models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total},
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, page, s.cacheTTL); err != nil {
			s.logger.Warn("subject list cache write failed", zap.Error(err))
		}
	}
	return result.Ok(page)
}

// Update rewrites a subject's code and name.
func (s *SubjectService) Update(ctx context.Context, id string, req SubjectRequest) result.Result[models.Subject] {
	return validation.Run(ctx, req, s.validators, func(ctx context.Context, req SubjectRequest) result.Result[models.Subject] {
		subject, err := s.subjects.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return result.Err[models.Subject](result.NotFound("SUBJECT_NOT_FOUND", "subject not found"))
			}
			return result.Err[models.Subject](s.unexpected("resolve subject", err))
		}

		code := strings.ToUpper(req.Code)
		taken, err := s.subjects.ExistsByCode(ctx, code, subject.ID)
		if err != nil {
			return result.Err[models.Subject](s.unexpected("check subject code", err))
		}
		if taken {
			return result.Err[models.Subject](result.Conflict("SUBJECT_CODE_TAKEN", "a subject with this code already exists"))
		}

		subject.Code = code
		subject.Name = req.Name
		if err := s.subjects.Update(ctx, subject); err != nil {
			if database.IsUniqueViolation(err) {
				return result.Err[models.Subject](result.Conflict("SUBJECT_CODE_TAKEN", "a subject with this code already exists"))
			}
			return result.Err[models.Subject](s.unexpected("update subject", err))
		}
		s.invalidate(ctx)
		return result.Ok(*subject)
	})
}

// Delete removes a subject.
func (s *SubjectService) Delete(ctx context.Context, id string) result.Empty {
	if err := s.subjects.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return result.Err[result.Unit](result.NotFound("SUBJECT_NOT_FOUND", "subject not found"))
		}
		return result.Err[result.Unit](s.unexpected("delete subject", err))
	}
	s.invalidate(ctx)
	return result.OK()
}

func (s *SubjectService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "subjects:list:*"); err != nil {
		s.logger.Warn("subject list cache invalidation failed", zap.Error(err))
	}
}

func (s *SubjectService) unexpected(op string, err error) result.Error {
	s.logger.Error("subject operation failed", zap.String("op", op), zap.Error(err))
	return result.Failure("UNEXPECTED_ERROR", "an unexpected error occurred")
}
