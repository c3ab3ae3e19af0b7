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

// UserService implements admin-side user management.
type UserService struct {
	users  port.UserRepository
	flows  port.FlowRepository
	logger Logger
}

// NewUserService creates a user service.
func NewUserService(users port.UserRepository, flows port.FlowRepository, logger Logger) *UserService {
	return &UserService{
		users:  users,
		flows:  flows,
		logger: logger,
	}
}

// CreateUserRequest carries an admin-created account.
type CreateUserRequest struct {
	Name           string      `json:"name" binding:"required"`
	Email          string      `json:"email" binding:"required"`
	Password       string      `json:"password" binding:"required"`
	Role           entity.Role `json:"role"`
	ManagerID      *string     `json:"managerId"`
	ApprovalFlowID *string     `json:"approvalFlowId"`
}

// UpdateUserRequest carries an admin edit. Nil fields are left unchanged;
// ManagerID and ApprovalFlowID distinguish "absent" from "clear" via the
// Set* flags populated by the handler.
type UpdateUserRequest struct {
	Name           *string      `json:"name"`
	Role           *entity.Role `json:"role"`
	ManagerID      *string      `json:"managerId"`
	SetManager     bool         `json:"-"`
	ApprovalFlowID *string      `json:"approvalFlowId"`
	SetFlow        bool         `json:"-"`
}

// Create adds a user with an explicit role and optional manager / flow
// assignment.
func (s *UserService) Create(ctx context.Context, req CreateUserRequest) (*entity.User, error) {
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

	role := req.Role
	if role == "" {
		role = entity.RoleEmployee
	}
	if !role.IsValid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}

	if existing, err := s.users.GetByEmail(ctx, email); err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	} else if existing != nil {
		return nil, fmt.Errorf("%w: %s", ErrEmailTaken, email)
	}

	if err := s.checkManagerRef(ctx, req.ManagerID, ""); err != nil {
		return nil, err
	}
	if err := s.checkFlowRef(ctx, req.ApprovalFlowID); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &entity.User{
		ID:             uuid.New().String(),
		Name:           strings.TrimSpace(req.Name),
		Email:          email,
		PasswordHash:   hash,
		Role:           role,
		ManagerID:      req.ManagerID,
		ApprovalFlowID: req.ApprovalFlowID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user created", "user_id", user.ID, "role", string(user.Role))
	return user, nil
}

// Get fetches one user by ID.
func (s *UserService) Get(ctx context.Context, id string) (*entity.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, id)
	}
	return user, nil
}

// List returns a page of users with the total count.
func (s *UserService) List(ctx context.Context, page, limit int) ([]*entity.User, int, error) {
	page, limit = normalizePage(page, limit)
	users, total, err := s.users.List(ctx, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

// Update applies an admin edit to a user.
func (s *UserService) Update(ctx context.Context, id string, req UpdateUserRequest) (*entity.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrValidation)
		}
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Role != nil {
		if !req.Role.IsValid() {
			return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, *req.Role)
		}
		user.Role = *req.Role
	}
	if req.SetManager {
		if err := s.checkManagerRef(ctx, req.ManagerID, id); err != nil {
			return nil, err
		}
		user.ManagerID = req.ManagerID
	}
	if req.SetFlow {
		if err := s.checkFlowRef(ctx, req.ApprovalFlowID); err != nil {
			return nil, err
		}
		user.ApprovalFlowID = req.ApprovalFlowID
	}

	user.UpdatedAt = time.Now()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.logger.Info("user updated", "user_id", user.ID)
	return user, nil
}

func (s *UserService) checkManagerRef(ctx context.Context, managerID *string, selfID string) error {
	if managerID == nil {
		return nil
	}
	if *managerID == selfID {
		return fmt.Errorf("%w: user cannot be their own manager", ErrValidation)
	}
	manager, err := s.users.GetByID(ctx, *managerID)
	if err != nil {
		return fmt.Errorf("failed to resolve manager: %w", err)
	}
	if manager == nil {
		return fmt.Errorf("%w: manager %s does not exist", ErrValidation, *managerID)
	}
	return nil
}

func (s *UserService) checkFlowRef(ctx context.Context, flowID *string) error {
	if flowID == nil {
		return nil
	}
	flow, err := s.flows.GetByID(ctx, *flowID)
	if err != nil {
		return fmt.Errorf("failed to resolve approval flow: %w", err)
	}
	if flow == nil {
		return fmt.Errorf("%w: approval flow %s does not exist", ErrValidation, *flowID)
	}
	return nil
}

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit
}
