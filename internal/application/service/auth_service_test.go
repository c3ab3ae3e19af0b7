package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmorales/expenseflow/internal/auth"
	"github.com/kmorales/expenseflow/internal/domain/entity"
)

func testTokens() *auth.TokenManager {
	return auth.NewTokenManager("test-secret", time.Hour)
}

func TestRegister_DefaultsToEmployee(t *testing.T) {
	var created *entity.User
	users := &mockUserRepo{
		GetByEmailFn: func(ctx context.Context, email string) (*entity.User, error) {
			return nil, nil
		},
		CreateFn: func(ctx context.Context, user *entity.User) error {
			created = user
			return nil
		},
	}

	svc := NewAuthService(users, testTokens(), nopLogger{})
	user, err := svc.Register(context.Background(), RegisterRequest{
		Name: "Pat", Email: "Pat@Example.com", Password: "hunter2hunter2",
	})
	require.NoError(t, err)

	assert.Equal(t, entity.RoleEmployee, user.Role)
	assert.Equal(t, "pat@example.com", user.Email)
	assert.NotEmpty(t, user.PasswordHash)
	assert.NotEqual(t, "hunter2hunter2", user.PasswordHash)
	assert.Same(t, created, user)
}

func TestRegister_EmailTaken(t *testing.T) {
	users := &mockUserRepo{
		GetByEmailFn: func(ctx context.Context, email string) (*entity.User, error) {
			return &entity.User{ID: "u1", Email: email}, nil
		},
	}

	svc := NewAuthService(users, testTokens(), nopLogger{})
	_, err := svc.Register(context.Background(), RegisterRequest{
		Name: "Pat", Email: "pat@example.com", Password: "hunter2hunter2",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegister_WeakPassword(t *testing.T) {
	svc := NewAuthService(&mockUserRepo{}, testTokens(), nopLogger{})

	_, err := svc.Register(context.Background(), RegisterRequest{
		Name: "Pat", Email: "pat@example.com", Password: "short",
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestLogin_RoundTrip(t *testing.T) {
	hash, err := auth.HashPassword("hunter2hunter2")
	require.NoError(t, err)

	stored := &entity.User{ID: "u1", Email: "pat@example.com", PasswordHash: hash, Role: entity.RoleManager}
	users := &mockUserRepo{
		GetByEmailFn: func(ctx context.Context, email string) (*entity.User, error) {
			if email == stored.Email {
				return stored, nil
			}
			return nil, nil
		},
	}

	tokens := testTokens()
	svc := NewAuthService(users, tokens, nopLogger{})

	result, err := svc.Login(context.Background(), LoginRequest{
		Email: "pat@example.com", Password: "hunter2hunter2",
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.Token)

	claims, err := tokens.Validate(result.Token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, entity.RoleManager, claims.Role)
}

func TestLogin_BadCredentials(t *testing.T) {
	hash, err := auth.HashPassword("correct-password")
	require.NoError(t, err)

	users := &mockUserRepo{
		GetByEmailFn: func(ctx context.Context, email string) (*entity.User, error) {
			if email == "known@example.com" {
				return &entity.User{ID: "u1", Email: email, PasswordHash: hash}, nil
			}
			return nil, nil
		},
	}

	svc := NewAuthService(users, testTokens(), nopLogger{})

	_, err = svc.Login(context.Background(), LoginRequest{Email: "known@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), LoginRequest{Email: "nobody@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestEnsureAdmin_SeedsOnce(t *testing.T) {
	adminCount := 0
	var created *entity.User
	users := &mockUserRepo{
		CountByRoleFn: func(ctx context.Context, role entity.Role) (int, error) {
			return adminCount, nil
		},
		CreateFn: func(ctx context.Context, user *entity.User) error {
			created = user
			adminCount++
			return nil
		},
	}

	svc := NewAuthService(users, testTokens(), nopLogger{})

	require.NoError(t, svc.EnsureAdmin(context.Background(), "Admin", "admin@example.com", "changeme123"))
	require.NotNil(t, created)
	assert.Equal(t, entity.RoleAdmin, created.Role)

	created = nil
	require.NoError(t, svc.EnsureAdmin(context.Background(), "Admin", "admin@example.com", "changeme123"))
	assert.Nil(t, created)
}

func TestEnsureAdmin_NoCredentialsConfigured(t *testing.T) {
	users := &mockUserRepo{
		CountByRoleFn: func(ctx context.Context, role entity.Role) (int, error) {
			return 0, nil
		},
	}

	svc := NewAuthService(users, testTokens(), nopLogger{})
	assert.NoError(t, svc.EnsureAdmin(context.Background(), "Admin", "", ""))
}
