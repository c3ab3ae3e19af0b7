package port

import (
	"context"

	"github.com/kmorales/expenseflow/internal/domain/entity"
)

// UserRepository defines persistence operations for User
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	Update(ctx context.Context, user *entity.User) error
	List(ctx context.Context, limit, offset int) ([]*entity.User, int, error)
	CountByRole(ctx context.Context, role entity.Role) (int, error)

	// MissingIDs returns the subset of ids with no matching user, preserving
	// input order. Used to validate approver lists.
	MissingIDs(ctx context.Context, ids []string) ([]string, error)
}

// FlowRepository defines persistence operations for ApprovalFlow
type FlowRepository interface {
	Create(ctx context.Context, flow *entity.ApprovalFlow) error
	GetByID(ctx context.Context, id string) (*entity.ApprovalFlow, error)
	Update(ctx context.Context, flow *entity.ApprovalFlow) error
	List(ctx context.Context, limit, offset int) ([]*entity.ApprovalFlow, int, error)
}

// ExpenseRepository defines persistence operations for Expense
type ExpenseRepository interface {
	Create(ctx context.Context, exp *entity.Expense) error
	GetByID(ctx context.Context, id string) (*entity.Expense, error)

	// ApplyTransition persists the outcome of a decision: the expense's
	// status/index/updated_at and the newly appended decision row, as one
	// write set. Callers run it inside a transaction.
	ApplyTransition(ctx context.Context, exp *entity.Expense, decision entity.Decision) error

	ListByEmployee(ctx context.Context, employeeID string, limit, offset int) ([]*entity.Expense, int, error)
	ListPendingFor(ctx context.Context, approverID string, limit, offset int) ([]*entity.Expense, int, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Expense, int, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
