package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/schoolhub-dev/schoolhub-api/internal/models"
	"github.com/schoolhub-dev/schoolhub-api/internal/validation"
	"github.com/schoolhub-dev/schoolhub-api/pkg/database"
	"github.com/schoolhub-dev/schoolhub-api/pkg/result"
)

type userRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Deactivate(ctx context.Context, id string) error
}

// CreateUserRequest registers an account.
type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	FullName string `json:"full_name" validate:"required,max=150"`
	Role     string `json:"role" validate:"required,oneof=ADMIN TEACHER STUDENT"`
}

// UpdateUserRequest rewrites an account's profile fields.
type UpdateUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"full_name" validate:"required,max=150"`
}

// UserService manages accounts. Deletion is a deactivation; listing hides
// inactive accounts only when the filter asks for that.
type UserService struct {
	users  userRepository
	logger *zap.Logger

	createValidators []validation.Validator[CreateUserRequest]
	updateValidators []validation.Validator[UpdateUserRequest]
}

// NewUserService constructs the user service.
func NewUserService(users userRepository, validate *validator.Validate, logger *zap.Logger) *UserService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{
		users:  users,
		logger: logger,
		createValidators: []validation.Validator[CreateUserRequest]{
			validation.NewStructRules[CreateUserRequest](validate),
		},
		updateValidators: []validation.Validator[UpdateUserRequest]{
			validation.NewStructRules[UpdateUserRequest](validate),
		},
	}
}

// Create registers an account with a hashed password.
func (s *UserService) Create(ctx context.Context, req CreateUserRequest) result.Result[models.User] {
	return validation.Run(ctx, req, s.createValidators, s.create)
}

func (s *UserService) create(ctx context.Context, req CreateUserRequest) result.Result[models.User] {
	email := strings.ToLower(req.Email)
	taken, err := s.users.ExistsByEmail(ctx, email, "")
	if err != nil {
		return result.Err[models.User](s.unexpected("check email", err))
	}
	if taken {
		return result.Err[models.User](result.Conflict("EMAIL_TAKEN", "an account with this email already exists"))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return result.Err[models.User](s.unexpected("hash password", err))
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		FullName:     req.FullName,
		Role:         models.UserRole(req.Role),
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if database.IsUniqueViolation(err) {
			return result.Err[models.User](result.Conflict("EMAIL_TAKEN", "an account with this email already exists"))
		}
		return result.Err[models.User](s.unexpected("create user", err))
	}
	return result.Ok(*user)
}

// Get returns one account.
func (s *UserService) Get(ctx context.Context, id string) result.Result[models.User] {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return result.Err[models.User](result.NotFound("USER_NOT_FOUND", "user not found"))
		}
		return result.Err[models.User](s.unexpected("resolve user", err))
	}
	return result.Ok(*user)
}

// List returns a page of accounts. Inactive accounts are included unless
// filter.ActiveOnly is set.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) result.Result[Page[models.User]] {
	filter.Page, filter.PageSize = normalizePaging(filter.Page, filter.PageSize)
	if filter.Role != nil && !filter.Role.Valid() {
		return result.Err[Page[models.User]](result.Validation("INVALID_ROLE", "role must be ADMIN, TEACHER or STUDENT"))
	}

	items, total, err := s.users.List(ctx, filter)
	if err != nil {
		return result.Err[Page[models.User]](s.unexpected("list users", err))
	}
	return result.Ok(Page[models.User]{
		Items:      items,
		Pagination: models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total},
	})
}

// Update rewrites an account's profile fields.
func (s *UserService) Update(ctx context.Context, id string, req UpdateUserRequest) result.Result[models.User] {
	return validation.Run(ctx, req, s.updateValidators, func(ctx context.Context, req UpdateUserRequest) result.Result[models.User] {
		user, err := s.users.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return result.Err[models.User](result.NotFound("USER_NOT_FOUND", "user not found"))
			}
			return result.Err[models.User](s.unexpected("resolve user", err))
		}

		email := strings.ToLower(req.Email)
		taken, err := s.users.ExistsByEmail(ctx, email, user.ID)
		if err != nil {
			return result.Err[models.User](s.unexpected("check email", err))
		}
		if taken {
			return result.Err[models.User](result.Conflict("EMAIL_TAKEN", "an account with this email already exists"))
		}

		user.Email = email
		user.FullName = req.FullName
		if err := s.users.Update(ctx, user); err != nil {
			if database.IsUniqueViolation(err) {
				return result.Err[models.User](result.Conflict("EMAIL_TAKEN", "an account with this email already exists"))
			}
			return result.Err[models.User](s.unexpected("update user", err))
		}
		return result.Ok(*user)
	})
}

// Deactivate soft-deletes an account. The row stays for audit.
func (s *UserService) Deactivate(ctx context.Context, id string) result.Empty {
	if err := s.users.Deactivate(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return result.Err[result.Unit](result.NotFound("USER_NOT_FOUND", "user not found"))
		}
		return result.Err[result.Unit](s.unexpected("deactivate user", err))
	}
	return result.OK()
}

func (s *UserService) unexpected(op string, err error) result.Error {
	s.logger.Error("user operation failed", zap.String("op", op), zap.Error(err))
	return result.Failure("UNEXPECTED_ERROR", "an unexpected error occurred")
}
