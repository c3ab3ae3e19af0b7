package service

import (
	"context"
	"sync"

	"github.com/kmorales/expenseflow/internal/domain/entity"
)

// nopLogger discards log output in tests.
type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}

type mockUserRepo struct {
	CreateFn      func(ctx context.Context, user *entity.User) error
	GetByIDFn     func(ctx context.Context, id string) (*entity.User, error)
	GetByEmailFn  func(ctx context.Context, email string) (*entity.User, error)
	UpdateFn      func(ctx context.Context, user *entity.User) error
	ListFn        func(ctx context.Context, limit, offset int) ([]*entity.User, int, error)
	CountByRoleFn func(ctx context.Context, role entity.Role) (int, error)
	MissingIDsFn  func(ctx context.Context, ids []string) ([]string, error)
}

func (m *mockUserRepo) Create(ctx context.Context, user *entity.User) error {
	return m.CreateFn(ctx, user)
}
func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return m.GetByIDFn(ctx, id)
}
func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return m.GetByEmailFn(ctx, email)
}
func (m *mockUserRepo) Update(ctx context.Context, user *entity.User) error {
	return m.UpdateFn(ctx, user)
}
func (m *mockUserRepo) List(ctx context.Context, limit, offset int) ([]*entity.User, int, error) {
	return m.ListFn(ctx, limit, offset)
}
func (m *mockUserRepo) CountByRole(ctx context.Context, role entity.Role) (int, error) {
	return m.CountByRoleFn(ctx, role)
}
func (m *mockUserRepo) MissingIDs(ctx context.Context, ids []string) ([]string, error) {
	return m.MissingIDsFn(ctx, ids)
}

type mockFlowRepo struct {
	CreateFn  func(ctx context.Context, flow *entity.ApprovalFlow) error
	GetByIDFn func(ctx context.Context, id string) (*entity.ApprovalFlow, error)
	UpdateFn  func(ctx context.Context, flow *entity.ApprovalFlow) error
	ListFn    func(ctx context.Context, limit, offset int) ([]*entity.ApprovalFlow, int, error)
}

func (m *mockFlowRepo) Create(ctx context.Context, flow *entity.ApprovalFlow) error {
	return m.CreateFn(ctx, flow)
}
func (m *mockFlowRepo) GetByID(ctx context.Context, id string) (*entity.ApprovalFlow, error) {
	return m.GetByIDFn(ctx, id)
}
func (m *mockFlowRepo) Update(ctx context.Context, flow *entity.ApprovalFlow) error {
	return m.UpdateFn(ctx, flow)
}
func (m *mockFlowRepo) List(ctx context.Context, limit, offset int) ([]*entity.ApprovalFlow, int, error) {
	return m.ListFn(ctx, limit, offset)
}

type mockExpenseRepo struct {
	CreateFn          func(ctx context.Context, exp *entity.Expense) error
	GetByIDFn         func(ctx context.Context, id string) (*entity.Expense, error)
	ApplyTransitionFn func(ctx context.Context, exp *entity.Expense, decision entity.Decision) error
	ListByEmployeeFn  func(ctx context.Context, employeeID string, limit, offset int) ([]*entity.Expense, int, error)
	ListPendingForFn  func(ctx context.Context, approverID string, limit, offset int) ([]*entity.Expense, int, error)
	ListFn            func(ctx context.Context, limit, offset int) ([]*entity.Expense, int, error)
}

func (m *mockExpenseRepo) Create(ctx context.Context, exp *entity.Expense) error {
	return m.CreateFn(ctx, exp)
}
func (m *mockExpenseRepo) GetByID(ctx context.Context, id string) (*entity.Expense, error) {
	return m.GetByIDFn(ctx, id)
}
func (m *mockExpenseRepo) ApplyTransition(ctx context.Context, exp *entity.Expense, decision entity.Decision) error {
	return m.ApplyTransitionFn(ctx, exp, decision)
}
func (m *mockExpenseRepo) ListByEmployee(ctx context.Context, employeeID string, limit, offset int) ([]*entity.Expense, int, error) {
	return m.ListByEmployeeFn(ctx, employeeID, limit, offset)
}
func (m *mockExpenseRepo) ListPendingFor(ctx context.Context, approverID string, limit, offset int) ([]*entity.Expense, int, error) {
	return m.ListPendingForFn(ctx, approverID, limit, offset)
}
func (m *mockExpenseRepo) List(ctx context.Context, limit, offset int) ([]*entity.Expense, int, error) {
	return m.ListFn(ctx, limit, offset)
}

// mockTxManager runs the function directly; no real transaction in tests.
type mockTxManager struct{}

func (mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// expenseStore is an in-memory expense repository for concurrency tests.
type expenseStore struct {
	mu       sync.Mutex
	expenses map[string]*entity.Expense
}

func newExpenseStore(seed ...*entity.Expense) *expenseStore {
	s := &expenseStore{expenses: make(map[string]*entity.Expense)}
	for _, exp := range seed {
		s.expenses[exp.ID] = exp.Clone()
	}
	return s
}

func (s *expenseStore) Create(ctx context.Context, exp *entity.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses[exp.ID] = exp.Clone()
	return nil
}

func (s *expenseStore) GetByID(ctx context.Context, id string) (*entity.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.expenses[id]
	if !ok {
		return nil, nil
	}
	return exp.Clone(), nil
}

func (s *expenseStore) ApplyTransition(ctx context.Context, exp *entity.Expense, decision entity.Decision) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := s.expenses[exp.ID]
	stored.Status = exp.Status
	stored.CurrentApproverIndex = exp.CurrentApproverIndex
	stored.UpdatedAt = exp.UpdatedAt
	stored.Decisions = append(stored.Decisions, decision)
	return nil
}

func (s *expenseStore) ListByEmployee(ctx context.Context, employeeID string, limit, offset int) ([]*entity.Expense, int, error) {
	return nil, 0, nil
}

func (s *expenseStore) ListPendingFor(ctx context.Context, approverID string, limit, offset int) ([]*entity.Expense, int, error) {
	return nil, 0, nil
}

func (s *expenseStore) List(ctx context.Context, limit, offset int) ([]*entity.Expense, int, error) {
	return nil, 0, nil
}
