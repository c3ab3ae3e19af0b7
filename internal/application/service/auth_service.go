package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kmorales/expenseflow/internal/application/port"
	"github.com/kmorales/expenseflow/internal/auth"
	"github.com/kmorales/expenseflow/internal/domain/entity"
	"github.com/kmorales/expenseflow/pkg/utils"
)

// AuthService handles account registration, login and session tokens.
type AuthService struct {
	users  port.UserRepository
	tokens *auth.TokenManager
	logger Logger
}

// NewAuthService creates an auth service.
func NewAuthService(users port.UserRepository, tokens *auth.TokenManager, logger Logger) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		logger: logger,
	}
}

// RegisterRequest carries a self-service signup.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest carries login credentials.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResult is returned on successful authentication.
type LoginResult struct {
	Token string       `json:"token"`
	User  *entity.User `json:"user"`
}

// Register creates a new account. Self-registered users always start as
// employees; role changes are an admin operation.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*entity.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := utils.ValidateEmail(email); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if err := auth.ValidatePassword(req.Password); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if existing, err := s.users.GetByEmail(ctx, email); err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	} else if existing != nil {
		return nil, fmt.Errorf("%w: %s", ErrEmailTaken, email)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &entity.User{
		ID:           uuid.New().String(),
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         entity.RoleEmployee,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user registered", "user_id", user.ID, "email", user.Email)
	return user, nil
}

// Login verifies credentials and issues a session token.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, auth.ErrInvalidCredentials
	}

	if err := auth.VerifyPassword(user.PasswordHash, req.Password); err != nil {
		return nil, err
	}

	token, err := s.tokens.Generate(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", "user_id", user.ID)
	return &LoginResult{Token: token, User: user}, nil
}

// EnsureAdmin seeds an admin account at startup when no admin exists yet.
// Idempotent across restarts.
func (s *AuthService) EnsureAdmin(ctx context.Context, name, email, password string) error {
	count, err := s.users.CountByRole(ctx, entity.RoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to count admins: %w", err)
	}
	if count > 0 {
		return nil
	}
	if email == "" || password == "" {
		s.logger.Info("no admin account and no seed credentials configured, skipping")
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	now := time.Now()
	admin := &entity.User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        strings.ToLower(email),
		PasswordHash: hash,
		Role:         entity.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to seed admin: %w", err)
	}

	s.logger.Info("seeded admin account", "email", admin.Email)
	return nil
}
