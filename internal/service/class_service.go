package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/schoolhub-dev/schoolhub-api/internal/models"
	"github.com/schoolhub-dev/schoolhub-api/internal/validation"
	"github.com/schoolhub-dev/schoolhub-api/pkg/database"
	"github.com/schoolhub-dev/schoolhub-api/pkg/result"
)

type classRepository interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
	List(ctx context.Context, filter models.ClassFilter) ([]models.Class, int, error)
	ExistsByName(ctx context.Context, name, grade, excludeID string) (bool, error)
	Create(ctx context.Context, class *models.Class) error
	Update(ctx context.Context, class *models.Class) error
	Delete(ctx context.Context, id string) error
}

type listCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// ClassRequest carries the writable class fields.
type ClassRequest struct {
	Name  string `json:"name" validate:"required,max=100"`
	Grade string `json:"grade" validate:"required,max=20"`
}

// ClassService manages classes, with a read-through cache on listing.
type ClassService struct {
	classes  classRepository
	cache    listCache
	cacheTTL time.Duration
	logger   *zap.Logger

	validators []validation.Validator[ClassRequest]
}

// NewClassService constructs the class service. cache may be nil to
// disable caching.
func NewClassService(classes classRepository, cache listCache, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{
		classes:  classes,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
		validators: []validation.Validator[ClassRequest]{
			validation.NewStructRules[ClassRequest](validate),
		},
	}
}

// Create adds a class. Name is unique within a grade.
func (s *ClassService) Create(ctx context.Context, req ClassRequest) result.Result[models.Class] {
	return validation.Run(ctx, req, s.validators, func(ctx context.Context, req ClassRequest) result.Result[models.Class] {
		taken, err := s.classes.ExistsByName(ctx, req.Name, req.Grade, "")
		if err != nil {
			return result.Err[models.Class](s.unexpected("check class name", err))
		}
		if taken {
			return result.Err[models.Class](result.Conflict("CLASS_NAME_TAKEN", "a class with this name already exists in the grade"))
		}

		class := &models.Class{Name: req.Name, Grade: req.Grade}
		if err := s.classes.Create(ctx, class); err != nil {
			if database.IsUniqueViolation(err) {
				return result.Err[models.Class](result.Conflict("CLASS_NAME_TAKEN", "a class with this name already exists in the grade"))
			}
			return result.Err[models.Class](s.unexpected("create class", err))
		}
		s.invalidate(ctx)
		return result.Ok(*class)
	})
}

// Get returns one class.
func (s *ClassService) Get(ctx context.Context, id string) result.Result[models.Class] {
	class, err := s.classes.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return result.Err[models.Class](result.NotFound("CLASS_NOT_FOUND", "class not found"))
		}
		return result.Err[models.Class](s.unexpected("resolve class", err))
	}
	return result.Ok(*class)
}

// List returns a page of classes, served from cache when possible.
func (s *ClassService) List(ctx context.Context, filter models.ClassFilter) result.Result[Page[models.Class]] {
	filter.Page, filter.PageSize = normalizePaging(filter.Page, filter.PageSize)

	key := fmt.Sprintf("classes:list:%s:%s:%d:%d", filter.Grade, filter.Search, filter.Page, filter.PageSize)
	if s.cache != nil {
		var cached Page[models.Class]
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return result.Ok(cached)
		}
	}

	items, total, err := s.classes.List(ctx, filter)
	if err != nil {
		return result.Err[Page[models.Class]](s.unexpected("list classes", err))
	}
	page := Page[models.Class]{
		Items:      items,
		Pagination: models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total},
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, page, s.cacheTTL); err != nil {
			s.logger.Warn("class list cache write failed", zap.Error(err))
		}
	}
	return result.Ok(page)
}

// Update rewrites a class's name and grade.
func (s *ClassService) Update(ctx context.Context, id string, req ClassRequest) result.Result[models.Class] {
	return validation.Run(ctx, req, s.validators, func(ctx context.Context, req ClassRequest) result.Result[models.Class] {
		class, err := s.classes.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return result.Err[models.Class](result.NotFound("CLASS_NOT_FOUND", "class not found"))
			}
			return result.Err[models.Class](s.unexpected("resolve class", err))
		}

		taken, err := s.classes.ExistsByName(ctx, req.Name, req.Grade, class.ID)
		if err != nil {
			return result.Err[models.Class](s.unexpected("check class name", err))
		}
		if taken {
			return result.Err[models.Class](result.Conflict("CLASS_NAME_TAKEN", "a class with this name already exists in the grade"))
		}

		class.Name = req.Name
		class.Grade = req.Grade
		if err := s.classes.Update(ctx, class); err != nil {
			if database.IsUniqueViolation(err) {
				return result.Err[models.Class](result.Conflict("CLASS_NAME_TAKEN", "a class with this name already exists in the grade"))
			}
			return result.Err[models.Class](s.unexpected("update class", err))
		}
		s.invalidate(ctx)
		return result.Ok(*class)
	})
}

// Delete removes a class.
func (s *ClassService) Delete(ctx context.Context, id string) result.Empty {
	if err := s.classes.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return result.Err[result.Unit](result.NotFound("CLASS_NOT_FOUND", "class not found"))
		}
		return result.Err[result.Unit](s.unexpected("delete class", err))
	}
	s.invalidate(ctx)
	return result.OK()
}

func (s *ClassService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "classes:list:*"); err != nil {
		s.logger.Warn("class list cache invalidation failed", zap.Error(err))
	}
}

func (s *ClassService) unexpected(op string, err error) result.Error {
	s.logger.Error("class operation failed", zap.String("op", op), zap.Error(err))
	return result.Failure("UNEXPECTED_ERROR", "an unexpected error occurred")
}
