package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmorales/expenseflow/internal/domain/entity"
)

func newTestUserService(users *mockUserRepo, flows *mockFlowRepo) *UserService {
	return NewUserService(users, flows, nopLogger{})
}

func TestCreateUser_WithRoleAndManager(t *testing.T) {
	var created *entity.User
	users := &mockUserRepo{
		GetByEmailFn: func(ctx context.Context, email string) (*entity.User, error) {
			return nil, nil
		},
		GetByIDFn: func(ctx context.Context, id string) (*entity.User, error) {
			if id == "mgr-1" {
				return &entity.User{ID: id, Role: entity.RoleManager}, nil
			}
			return nil, nil
		},
		CreateFn: func(ctx context.Context, user *entity.User) error {
			created = user
			return nil
		},
	}

	svc := newTestUserService(users, &mockFlowRepo{})
	user, err := svc.Create(context.Background(), CreateUserRequest{
		Name: "Sam", Email: "sam@example.com", Password: "longpassword",
		Role: entity.RoleManager, ManagerID: ptr("mgr-1"),
	})
	require.NoError(t, err)

	assert.Equal(t, entity.RoleManager, user.Role)
	require.NotNil(t, user.ManagerID)
	assert.Equal(t, "mgr-1", *user.ManagerID)
	assert.Same(t, created, user)
}

func TestCreateUser_UnknownManager(t *testing.T) {
	users := &mockUserRepo{
		GetByEmailFn: func(ctx context.Context, email string) (*entity.User, error) {
			return nil, nil
		},
		GetByIDFn: func(ctx context.Context, id string) (*entity.User, error) {
			return nil, nil
		},
	}

	svc := newTestUserService(users, &mockFlowRepo{})
	_, err := svc.Create(context.Background(), CreateUserRequest{
		Name: "Sam", Email: "sam@example.com", Password: "longpassword",
		ManagerID: ptr("ghost"),
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateUser_InvalidRole(t *testing.T) {
	users := &mockUserRepo{
		GetByEmailFn: func(ctx context.Context, email string) (*entity.User, error) {
			return nil, nil
		},
	}

	svc := newTestUserService(users, &mockFlowRepo{})
	_, err := svc.Create(context.Background(), CreateUserRequest{
		Name: "Sam", Email: "sam@example.com", Password: "longpassword", Role: "Superuser",
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateUser_AssignAndClearFlow(t *testing.T) {
	stored := &entity.User{ID: "u1", Name: "Sam", Role: entity.RoleEmployee}
	users := &mockUserRepo{
		GetByIDFn: func(ctx context.Context, id string) (*entity.User, error) {
			if id == "u1" {
				return stored, nil
			}
			return nil, nil
		},
		UpdateFn: func(ctx context.Context, user *entity.User) error {
			stored = user
			return nil
		},
	}
	flows := &mockFlowRepo{
		GetByIDFn: func(ctx context.Context, id string) (*entity.ApprovalFlow, error) {
			if id == "flow-1" {
				return &entity.ApprovalFlow{ID: id}, nil
			}
			return nil, nil
		},
	}

	svc := newTestUserService(users, flows)

	user, err := svc.Update(context.Background(), "u1", UpdateUserRequest{
		ApprovalFlowID: ptr("flow-1"), SetFlow: true,
	})
	require.NoError(t, err)
	require.NotNil(t, user.ApprovalFlowID)

	user, err = svc.Update(context.Background(), "u1", UpdateUserRequest{SetFlow: true})
	require.NoError(t, err)
	assert.Nil(t, user.ApprovalFlowID)
}

func TestUpdateUser_SelfManagerRejected(t *testing.T) {
	users := &mockUserRepo{
		GetByIDFn: func(ctx context.Context, id string) (*entity.User, error) {
			return &entity.User{ID: id}, nil
		},
	}

	svc := newTestUserService(users, &mockFlowRepo{})
	_, err := svc.Update(context.Background(), "u1", UpdateUserRequest{
		ManagerID: ptr("u1"), SetManager: true,
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestGetUser_NotFound(t *testing.T) {
	users := &mockUserRepo{
		GetByIDFn: func(ctx context.Context, id string) (*entity.User, error) {
			return nil, nil
		},
	}

	svc := newTestUserService(users, &mockFlowRepo{})
	_, err := svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
