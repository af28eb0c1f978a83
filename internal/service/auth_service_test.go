package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/schoolhub-dev/schoolhub-api/internal/models"
	"github.com/schoolhub-dev/schoolhub-api/pkg/config"
	"github.com/schoolhub-dev/schoolhub-api/pkg/result"
)

type fakeUserByEmail struct {
	byEmail map[string]*models.User
}

func (f *fakeUserByEmail) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if user, ok := f.byEmail[email]; ok {
		copied := *user
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func newAuthFixture(t *testing.T) *AuthService {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)

	users := &fakeUserByEmail{byEmail: map[string]*models.User{
		"teacher@school.test": {
			ID:           "teacher-1",
			Email:        "teacher@school.test",
			PasswordHash: string(hash),
			FullName:     "Pat Teacher",
			Role:         models.RoleTeacher,
			Active:       true,
		},
		"gone@school.test": {
			ID:           "gone-1",
			Email:        "gone@school.test",
			PasswordHash: string(hash),
			Role:         models.RoleTeacher,
			Active:       false,
		},
	}}
	cfg := config.JWTConfig{Secret: "test-secret", Expiration: time.Hour, Issuer: "schoolhub"}
	return NewAuthService(users, cfg, nil, nil)
}

func TestLoginIssuesToken(t *testing.T) {
	svc := newAuthFixture(t)

	r := svc.Login(context.Background(), models.LoginRequest{
		Email:    "teacher@school.test",
		Password: "correct horse",
	})

	require.True(t, r.Succeeded())
	resp := r.Value()
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, "teacher-1", resp.User.ID)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "teacher-1", claims.UserID)
	assert.Equal(t, models.RoleTeacher, claims.Role)
}

func TestLoginFailuresLookAlike(t *testing.T) {
	svc := newAuthFixture(t)

	cases := map[string]models.LoginRequest{
		"unknown email":  {Email: "nobody@school.test", Password: "correct horse"},
		"wrong password": {Email: "teacher@school.test", Password: "wrong horse"},
		"inactive user":  {Email: "gone@school.test", Password: "correct horse"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			r := svc.Login(context.Background(), req)
			require.False(t, r.Succeeded())
			assert.Equal(t, result.KindUnauthorized, r.Err().Kind)
			assert.Equal(t, "INVALID_CREDENTIALS", r.Err().Code)
		})
	}
}

func TestLoginValidatesRequest(t *testing.T) {
	svc := newAuthFixture(t)

	r := svc.Login(context.Background(), models.LoginRequest{Email: "not-an-email"})

	require.False(t, r.Succeeded())
	require.True(t, r.IsInvalid())
	assert.Len(t, r.FieldErrors(), 2)
}

func TestValidateTokenRejectsForgedSignature(t *testing.T) {
	svc := newAuthFixture(t)
	other := NewAuthService(nil, config.JWTConfig{Secret: "other-secret", Expiration: time.Hour}, nil, nil)

	r := svc.Login(context.Background(), models.LoginRequest{
		Email:    "teacher@school.test",
		Password: "correct horse",
	})
	require.True(t, r.Succeeded())

	_, err := other.ValidateToken(r.Value().AccessToken)
	assert.Error(t, err)
}
