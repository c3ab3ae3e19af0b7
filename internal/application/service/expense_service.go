package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kmorales/expenseflow/internal/application/port"
	"github.com/kmorales/expenseflow/internal/domain/engine"
	"github.com/kmorales/expenseflow/internal/domain/entity"
	"github.com/kmorales/expenseflow/pkg/utils"
)

// ExpenseService manages the expense lifecycle: submission, listing and
// approval processing.
type ExpenseService struct {
	expenses port.ExpenseRepository
	users    port.UserRepository
	flows    port.FlowRepository
	txMgr    port.TransactionManager
	logger   Logger

	locks keyedMutex
}

// NewExpenseService creates an expense service.
func NewExpenseService(
	expenses port.ExpenseRepository,
	users port.UserRepository,
	flows port.FlowRepository,
	txMgr port.TransactionManager,
	logger Logger,
) *ExpenseService {
	return &ExpenseService{
		expenses: expenses,
		users:    users,
		flows:    flows,
		txMgr:    txMgr,
		logger:   logger,
	}
}

// SubmitRequest carries a new expense submission.
type SubmitRequest struct {
	Amount      float64 `json:"amount" binding:"required"`
	Currency    string  `json:"currency"`
	Category    string  `json:"category" binding:"required"`
	Description string  `json:"description" binding:"required"`
}

// ProcessRequest carries an approver's verdict on a pending expense.
type ProcessRequest struct {
	Action entity.DecisionAction `json:"action" binding:"required"`
}

// Submit validates a new expense and snapshots its approval chain.
//
// Chain resolution: the employee's assigned approval flow wins; without one,
// the direct manager forms an implicit single-step sequential chain; with
// neither, the submission is a configuration error.
func (s *ExpenseService) Submit(ctx context.Context, employeeID string, req SubmitRequest) (*entity.Expense, error) {
	if err := utils.ValidateAmount(req.Amount); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if strings.TrimSpace(req.Category) == "" {
		return nil, fmt.Errorf("%w: category is required", ErrValidation)
	}
	if strings.TrimSpace(req.Description) == "" {
		return nil, fmt.Errorf("%w: description is required", ErrValidation)
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "USD"
	}

	employee, err := s.users.GetByID(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load employee: %w", err)
	}
	if employee == nil {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, employeeID)
	}

	now := time.Now()
	exp := &entity.Expense{
		ID:             uuid.New().String(),
		EmployeeID:     employee.ID,
		Amount:         req.Amount,
		Currency:       currency,
		Category:       strings.TrimSpace(req.Category),
		Description:    strings.TrimSpace(req.Description),
		Status:         entity.StatusPending,
		SubmissionDate: now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.resolveChain(ctx, employee, exp); err != nil {
		return nil, err
	}

	if err := s.expenses.Create(ctx, exp); err != nil {
		return nil, fmt.Errorf("failed to create expense: %w", err)
	}

	s.logger.Info("expense submitted",
		"expense_id", exp.ID,
		"employee_id", employee.ID,
		"flow_type", string(exp.FlowType),
		"approvers", len(exp.Approvers))
	return exp, nil
}

// resolveChain snapshots the approver configuration onto the expense.
func (s *ExpenseService) resolveChain(ctx context.Context, employee *entity.User, exp *entity.Expense) error {
	if employee.ApprovalFlowID != nil {
		flow, err := s.flows.GetByID(ctx, *employee.ApprovalFlowID)
		if err != nil {
			return fmt.Errorf("failed to load approval flow: %w", err)
		}
		if flow == nil {
			return fmt.Errorf("%w: assigned approval flow %s no longer exists",
				ErrNoApproverChain, *employee.ApprovalFlowID)
		}
		exp.FlowID = flow.ID
		exp.FlowType = flow.Type
		exp.Approvers = append([]string(nil), flow.Approvers...)
		if flow.SplitVotePercentage != nil {
			v := *flow.SplitVotePercentage
			exp.SplitVotePercentage = &v
		}
		return nil
	}

	if employee.ManagerID != nil {
		exp.FlowType = entity.FlowSequential
		exp.Approvers = []string{*employee.ManagerID}
		return nil
	}

	return fmt.Errorf("%w: user %s has no approval flow and no manager",
		ErrNoApproverChain, employee.ID)
}

// GetMine returns a page of the employee's own expenses, newest first.
func (s *ExpenseService) GetMine(ctx context.Context, employeeID string, page, limit int) ([]*entity.Expense, int, error) {
	page, limit = normalizePage(page, limit)
	items, total, err := s.expenses.ListByEmployee(ctx, employeeID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list expenses: %w", err)
	}
	return items, total, nil
}

// GetPendingFor returns the pending expenses the given user can act on right
// now: sequential expenses where they are the current approver, and
// simultaneous expenses where they are an approver who has not voted yet.
func (s *ExpenseService) GetPendingFor(ctx context.Context, approverID string, page, limit int) ([]*entity.Expense, int, error) {
	page, limit = normalizePage(page, limit)
	items, total, err := s.expenses.ListPendingFor(ctx, approverID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list pending approvals: %w", err)
	}
	return items, total, nil
}

// ListAll returns a page over every expense. Admin oversight only.
func (s *ExpenseService) ListAll(ctx context.Context, page, limit int) ([]*entity.Expense, int, error) {
	page, limit = normalizePage(page, limit)
	items, total, err := s.expenses.List(ctx, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list expenses: %w", err)
	}
	return items, total, nil
}

// ListAllUnpaged returns every expense. Used by the export report.
func (s *ExpenseService) ListAllUnpaged(ctx context.Context) ([]*entity.Expense, error) {
	items, _, err := s.expenses.List(ctx, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	return items, nil
}

// Process records one approver's decision on an expense.
//
// Per-expense serialization: a keyed lock ensures only one decision for a
// given expense is in flight in this process, and the read-decide-write runs
// inside a single transaction so the engine always sees the latest state.
func (s *ExpenseService) Process(ctx context.Context, expenseID, actorID string, req ProcessRequest) (*entity.Expense, error) {
	if !req.Action.IsValid() {
		return nil, fmt.Errorf("%w: %q", engine.ErrInvalidAction, req.Action)
	}

	unlock := s.locks.lock(expenseID)
	defer unlock()

	var result *entity.Expense
	err := s.txMgr.WithTransaction(ctx, func(txCtx context.Context) error {
		exp, err := s.expenses.GetByID(txCtx, expenseID)
		if err != nil {
			return fmt.Errorf("failed to load expense: %w", err)
		}
		if exp == nil {
			return fmt.Errorf("%w: expense %s", ErrNotFound, expenseID)
		}

		now := time.Now()
		next, err := engine.Decide(exp, actorID, req.Action, now)
		if err != nil {
			return err
		}

		decision := entity.Decision{ApproverID: actorID, Action: req.Action, DecidedAt: now}
		if err := s.expenses.ApplyTransition(txCtx, next, decision); err != nil {
			return fmt.Errorf("failed to persist decision: %w", err)
		}

		result = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("expense processed",
		"expense_id", result.ID,
		"actor_id", actorID,
		"action", string(req.Action),
		"status", result.Status.String())
	return result, nil
}

// keyedMutex provides mutual exclusion per string key.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) (unlock func()) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*lockEntry)
	}
	e, ok := k.locks[key]
	if !ok {
		e = &lockEntry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
