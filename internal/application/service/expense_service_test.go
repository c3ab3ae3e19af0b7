package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmorales/expenseflow/internal/domain/engine"
	"github.com/kmorales/expenseflow/internal/domain/entity"
)

func ptr[T any](v T) *T { return &v }

func newTestExpenseService(users *mockUserRepo, flows *mockFlowRepo, expenses *mockExpenseRepo) *ExpenseService {
	return NewExpenseService(expenses, users, flows, mockTxManager{}, nopLogger{})
}

func TestSubmit_UsesAssignedFlow(t *testing.T) {
	flow := &entity.ApprovalFlow{
		ID:                  "flow-1",
		Name:                "Finance Review",
		Type:                entity.FlowSimultaneous,
		Approvers:           []string{"mgr-1", "mgr-2", "mgr-3"},
		SplitVotePercentage: ptr(60),
	}
	users := &mockUserRepo{
		GetByIDFn: func(ctx context.Context, id string) (*entity.User, error) {
			return &entity.User{ID: id, Role: entity.RoleEmployee, ApprovalFlowID: ptr("flow-1")}, nil
		},
	}
	flows := &mockFlowRepo{
		GetByIDFn: func(ctx context.Context, id string) (*entity.ApprovalFlow, error) {
			require.Equal(t, "flow-1", id)
			return flow, nil
		},
	}
	var created *entity.Expense
	expenses := &mockExpenseRepo{
		CreateFn: func(ctx context.Context, exp *entity.Expense) error {
			created = exp
			return nil
		},
	}

	svc := newTestExpenseService(users, flows, expenses)
	exp, err := svc.Submit(context.Background(), "emp-1", SubmitRequest{Amount: 50, Category: "Meals", Description: "Team lunch"})
	require.NoError(t, err)

	assert.Equal(t, entity.StatusPending, exp.Status)
	assert.Equal(t, "flow-1", exp.FlowID)
	assert.Equal(t, entity.FlowSimultaneous, exp.FlowType)
	assert.Equal(t, []string{"mgr-1", "mgr-2", "mgr-3"}, exp.Approvers)
	require.NotNil(t, exp.SplitVotePercentage)
	assert.Equal(t, 60, *exp.SplitVotePercentage)
	assert.Equal(t, 0, exp.CurrentApproverIndex)
	assert.Same(t, created, exp)

	// Snapshot must be independent of the flow definition
	flow.Approvers[0] = "someone-else"
	assert.Equal(t, "mgr-1", exp.Approvers[0])
}

func TestSubmit_FallsBackToManager(t *testing.T) {
	users := &mockUserRepo{
		GetByIDFn: func(ctx context.Context, id string) (*entity.User, error) {
			return &entity.User{ID: id, Role: entity.RoleEmployee, ManagerID: ptr("mgr-1")}, nil
		},
	}
	expenses := &mockExpenseRepo{
		CreateFn: func(ctx context.Context, exp *entity.Expense) error { return nil },
	}

	svc := newTestExpenseService(users, &mockFlowRepo{}, expenses)
	exp, err := svc.Submit(context.Background(), "emp-1", SubmitRequest{Amount: 20, Category: "Travel", Description: "Taxi to airport"})
	require.NoError(t, err)

	assert.Equal(t, entity.FlowSequential, exp.FlowType)
	assert.Equal(t, []string{"mgr-1"}, exp.Approvers)
	assert.Empty(t, exp.FlowID)
	assert.Nil(t, exp.SplitVotePercentage)
}

func TestSubmit_NoApproverChain(t *testing.T) {
	users := &mockUserRepo{
		GetByIDFn: func(ctx context.Context, id string) (*entity.User, error) {
			return &entity.User{ID: id, Role: entity.RoleEmployee}, nil
		},
	}

	svc := newTestExpenseService(users, &mockFlowRepo{}, &mockExpenseRepo{})
	_, err := svc.Submit(context.Background(), "emp-1", SubmitRequest{Amount: 20, Category: "Travel", Description: "Taxi to airport"})

	assert.ErrorIs(t, err, ErrNoApproverChain)
}

func TestSubmit_DanglingFlowReference(t *testing.T) {
	users := &mockUserRepo{
		GetByIDFn: func(ctx context.Context, id string) (*entity.User, error) {
			return &entity.User{ID: id, ApprovalFlowID: ptr("gone")}, nil
		},
	}
	flows := &mockFlowRepo{
		GetByIDFn: func(ctx context.Context, id string) (*entity.ApprovalFlow, error) {
			return nil, nil
		},
	}

	svc := newTestExpenseService(users, flows, &mockExpenseRepo{})
	_, err := svc.Submit(context.Background(), "emp-1", SubmitRequest{Amount: 20, Category: "Travel", Description: "Taxi to airport"})

	assert.ErrorIs(t, err, ErrNoApproverChain)
}

func TestSubmit_InvalidAmount(t *testing.T) {
	svc := newTestExpenseService(&mockUserRepo{}, &mockFlowRepo{}, &mockExpenseRepo{})

	_, err := svc.Submit(context.Background(), "emp-1", SubmitRequest{Amount: -5, Category: "Meals", Description: "Lunch"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Submit(context.Background(), "emp-1", SubmitRequest{Amount: 5, Description: "Lunch"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSubmit_RequiresDescription(t *testing.T) {
	users := &mockUserRepo{
		GetByIDFn: func(ctx context.Context, id string) (*entity.User, error) {
			return &entity.User{ID: id, Role: entity.RoleEmployee, ManagerID: ptr("mgr-1")}, nil
		},
	}
	svc := newTestExpenseService(users, &mockFlowRepo{}, &mockExpenseRepo{})

	_, err := svc.Submit(context.Background(), "emp-1", SubmitRequest{
		Amount: 45.50, Currency: "USD", Category: "Meals", Description: "   ",
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Submit(context.Background(), "emp-1", SubmitRequest{
		Amount: 45.50, Currency: "USD", Category: "Meals",
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestProcess_SequentialApproveAdvances(t *testing.T) {
	store := newExpenseStore(&entity.Expense{
		ID:         "exp-1",
		EmployeeID: "emp-1",
		Status:     entity.StatusPending,
		FlowType:   entity.FlowSequential,
		Approvers:  []string{"mgr-1", "mgr-2"},
	})

	svc := NewExpenseService(store, &mockUserRepo{}, &mockFlowRepo{}, mockTxManager{}, nopLogger{})

	exp, err := svc.Process(context.Background(), "exp-1", "mgr-1", ProcessRequest{Action: entity.ActionApprove})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPending, exp.Status)
	assert.Equal(t, 1, exp.CurrentApproverIndex)

	exp, err = svc.Process(context.Background(), "exp-1", "mgr-2", ProcessRequest{Action: entity.ActionApprove})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusApproved, exp.Status)
}

func TestProcess_NotFound(t *testing.T) {
	svc := NewExpenseService(newExpenseStore(), &mockUserRepo{}, &mockFlowRepo{}, mockTxManager{}, nopLogger{})

	_, err := svc.Process(context.Background(), "missing", "mgr-1", ProcessRequest{Action: entity.ActionApprove})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProcess_InvalidAction(t *testing.T) {
	svc := NewExpenseService(newExpenseStore(), &mockUserRepo{}, &mockFlowRepo{}, mockTxManager{}, nopLogger{})

	_, err := svc.Process(context.Background(), "exp-1", "mgr-1", ProcessRequest{Action: "escalate"})
	assert.ErrorIs(t, err, engine.ErrInvalidAction)
}

func TestProcess_RollbackOnPersistFailure(t *testing.T) {
	boom := errors.New("disk full")
	expenses := &mockExpenseRepo{
		GetByIDFn: func(ctx context.Context, id string) (*entity.Expense, error) {
			return &entity.Expense{
				ID:        id,
				Status:    entity.StatusPending,
				FlowType:  entity.FlowSequential,
				Approvers: []string{"mgr-1"},
			}, nil
		},
		ApplyTransitionFn: func(ctx context.Context, exp *entity.Expense, decision entity.Decision) error {
			return boom
		},
	}

	svc := newTestExpenseService(&mockUserRepo{}, &mockFlowRepo{}, expenses)
	_, err := svc.Process(context.Background(), "exp-1", "mgr-1", ProcessRequest{Action: entity.ActionApprove})
	assert.ErrorIs(t, err, boom)
}

// Two approvers race on the final decision of a simultaneous unanimous flow.
// Exactly one terminal transition must win; once terminal, the loser's vote
// is refused.
func TestProcess_ConcurrentDecisions(t *testing.T) {
	store := newExpenseStore(&entity.Expense{
		ID:         "exp-1",
		EmployeeID: "emp-1",
		Status:     entity.StatusPending,
		FlowType:   entity.FlowSimultaneous,
		Approvers:  []string{"mgr-1", "mgr-2"},
	})

	svc := NewExpenseService(store, &mockUserRepo{}, &mockFlowRepo{}, mockTxManager{}, nopLogger{})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	actions := []struct {
		actor  string
		action entity.DecisionAction
	}{
		{"mgr-1", entity.ActionApprove},
		{"mgr-2", entity.ActionReject},
	}
	for i, a := range actions {
		wg.Add(1)
		go func(i int, actor string, action entity.DecisionAction) {
			defer wg.Done()
			_, errs[i] = svc.Process(context.Background(), "exp-1", actor, ProcessRequest{Action: action})
		}(i, a.actor, a.action)
	}
	wg.Wait()

	final, err := store.GetByID(context.Background(), "exp-1")
	require.NoError(t, err)

	// A reject in a simultaneous flow is fatal regardless of ordering. If the
	// reject lands first the expense is terminal and the approve is refused;
	// if the approve lands first the reject still terminates it.
	assert.Equal(t, entity.StatusRejected, final.Status)

	refused := 0
	for _, e := range errs {
		if e != nil {
			refused++
			assert.ErrorIs(t, e, engine.ErrAlreadyProcessed)
		}
	}
	assert.LessOrEqual(t, refused, 1)
	assert.GreaterOrEqual(t, len(final.Decisions), 1)
}

func TestGetMine_PassesPaging(t *testing.T) {
	expenses := &mockExpenseRepo{
		ListByEmployeeFn: func(ctx context.Context, employeeID string, limit, offset int) ([]*entity.Expense, int, error) {
			assert.Equal(t, "emp-1", employeeID)
			assert.Equal(t, 10, limit)
			assert.Equal(t, 20, offset)
			return []*entity.Expense{{ID: "exp-1"}}, 21, nil
		},
	}

	svc := newTestExpenseService(&mockUserRepo{}, &mockFlowRepo{}, expenses)
	items, total, err := svc.GetMine(context.Background(), "emp-1", 3, 10)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 21, total)
}

func TestSubmit_DefaultsCurrency(t *testing.T) {
	users := &mockUserRepo{
		GetByIDFn: func(ctx context.Context, id string) (*entity.User, error) {
			return &entity.User{ID: id, ManagerID: ptr("mgr-1")}, nil
		},
	}
	expenses := &mockExpenseRepo{
		CreateFn: func(ctx context.Context, exp *entity.Expense) error { return nil },
	}

	svc := newTestExpenseService(users, &mockFlowRepo{}, expenses)
	exp, err := svc.Submit(context.Background(), "emp-1", SubmitRequest{Amount: 12, Category: "Meals", Currency: "eur", Description: "Client dinner"})
	require.NoError(t, err)
	assert.Equal(t, "EUR", exp.Currency)
	assert.WithinDuration(t, time.Now(), exp.SubmissionDate, time.Minute)
}
