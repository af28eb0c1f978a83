package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/schoolhub-dev/schoolhub-api/internal/models"
	"github.com/schoolhub-dev/schoolhub-api/internal/validation"
	"github.com/schoolhub-dev/schoolhub-api/pkg/config"
	"github.com/schoolhub-dev/schoolhub-api/pkg/result"
)

type authUserReader interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// AuthService authenticates users and issues access tokens.
type AuthService struct {
	users  authUserReader
	cfg    config.JWTConfig
	logger *zap.Logger

	loginValidators []validation.Validator[models.LoginRequest]
}

// NewAuthService constructs the auth service.
func NewAuthService(users authUserReader, cfg config.JWTConfig, validate *validator.Validate, logger *zap.Logger) *AuthService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:  users,
		cfg:    cfg,
		logger: logger,
		loginValidators: []validation.Validator[models.LoginRequest]{
			validation.NewStructRules[models.LoginRequest](validate),
		},
	}
}

// Login verifies credentials and returns a signed access token. Missing
// accounts, deactivated accounts, and wrong passwords all answer the same
// way so callers cannot probe which emails exist.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) result.Result[models.LoginResponse] {
	return validation.Run(ctx, req, s.loginValidators, s.login)
}

func (s *AuthService) login(ctx context.Context, req models.LoginRequest) result.Result[models.LoginResponse] {
	invalidCredentials := result.Unauthorized("INVALID_CREDENTIALS", "invalid email or password")

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return result.Err[models.LoginResponse](invalidCredentials)
		}
		s.logger.Error("login lookup failed", zap.Error(err))
		return result.Err[models.LoginResponse](result.Failure("UNEXPECTED_ERROR", "an unexpected error occurred"))
	}
	if !user.Active {
		return result.Err[models.LoginResponse](invalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return result.Err[models.LoginResponse](invalidCredentials)
	}

	token, expiresIn, err := s.issueToken(user)
	if err != nil {
		s.logger.Error("token signing failed", zap.Error(err))
		return result.Err[models.LoginResponse](result.Failure("UNEXPECTED_ERROR", "an unexpected error occurred"))
	}

	return result.Ok(models.LoginResponse{
		AccessToken: token,
		ExpiresIn:   expiresIn,
		User: models.UserInfo{
			ID:       user.ID,
			Email:    user.Email,
			FullName: user.FullName,
			Role:     user.Role,
		},
	})
}

func (s *AuthService) issueToken(user *models.User) (string, int64, error) {
	now := time.Now()
	claims := models.JWTClaims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.Expiration)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", 0, fmt.Errorf("sign token: %w", err)
	}
	return signed, int64(s.cfg.Expiration.Seconds()), nil
}

// ValidateToken parses and verifies an access token.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	claims := &models.JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return []byte(s.cfg.Secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
