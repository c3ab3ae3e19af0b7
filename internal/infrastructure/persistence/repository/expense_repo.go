package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kmorales/expenseflow/internal/domain/entity"
	"github.com/kmorales/expenseflow/pkg/database"
)

// ExpenseRepo implements port.ExpenseRepository backed by SQLite.
//
// The snapshotted approver list lives in expense_approvers and the decision
// log in expense_decisions. A UNIQUE(expense_id, approver_id) constraint on
// decisions backs the one-vote-per-approver rule at the storage level.
type ExpenseRepo struct {
	db *database.DB
}

// NewExpenseRepo creates an expense repository.
func NewExpenseRepo(db *database.DB) *ExpenseRepo {
	return &ExpenseRepo{db: db}
}

const expenseColumns = `id, employee_id, amount, currency, category, description, status,
	current_approver_index, flow_id, flow_type, split_vote_percentage,
	submission_date, created_at, updated_at`

// Create inserts an expense and its approver snapshot atomically.
func (r *ExpenseRepo) Create(ctx context.Context, exp *entity.Expense) error {
	return r.db.WithTransaction(ctx, func(txCtx context.Context) error {
		exec := r.db.Executor(txCtx)

		var flowID interface{}
		if exp.FlowID != "" {
			flowID = exp.FlowID
		}
		_, err := exec.ExecContext(txCtx,
			`INSERT INTO expenses (`+expenseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			exp.ID, exp.EmployeeID, exp.Amount, exp.Currency, exp.Category, exp.Description,
			exp.Status.String(), exp.CurrentApproverIndex, flowID, exp.FlowType.String(),
			nullableInt(exp.SplitVotePercentage), exp.SubmissionDate, exp.CreatedAt, exp.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert expense: %w", err)
		}

		for pos, approverID := range exp.Approvers {
			_, err := exec.ExecContext(txCtx,
				`INSERT INTO expense_approvers (expense_id, position, approver_id) VALUES (?, ?, ?)`,
				exp.ID, pos, approverID)
			if err != nil {
				return fmt.Errorf("failed to insert expense approver: %w", err)
			}
		}
		return nil
	})
}

// GetByID fetches an expense with its approver snapshot and decision log.
// Returns (nil, nil) when not found.
func (r *ExpenseRepo) GetByID(ctx context.Context, id string) (*entity.Expense, error) {
	exec := r.db.Executor(ctx)

	row := exec.QueryRowContext(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id)
	exp, err := scanExpense(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan expense: %w", err)
	}
	if err := r.loadChildren(ctx, exp); err != nil {
		return nil, err
	}
	return exp, nil
}

// ApplyTransition persists the outcome of a decision as one write set:
// updated status/index plus the appended decision row.
func (r *ExpenseRepo) ApplyTransition(ctx context.Context, exp *entity.Expense, decision entity.Decision) error {
	exec := r.db.Executor(ctx)

	res, err := exec.ExecContext(ctx,
		`UPDATE expenses SET status = ?, current_approver_index = ?, updated_at = ? WHERE id = ?`,
		exp.Status.String(), exp.CurrentApproverIndex, exp.UpdatedAt, exp.ID)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("expense %s not found", exp.ID)
	}

	_, err = exec.ExecContext(ctx,
		`INSERT INTO expense_decisions (expense_id, approver_id, action, decided_at) VALUES (?, ?, ?, ?)`,
		exp.ID, decision.ApproverID, decision.Action.String(), decision.DecidedAt)
	if err != nil {
		return fmt.Errorf("failed to record decision: %w", err)
	}
	return nil
}

// ListByEmployee returns a page of one employee's expenses, newest first.
func (r *ExpenseRepo) ListByEmployee(ctx context.Context, employeeID string, limit, offset int) ([]*entity.Expense, int, error) {
	return r.listWhere(ctx,
		`WHERE employee_id = ?`, []interface{}{employeeID},
		`ORDER BY submission_date DESC, id ASC`, limit, offset)
}

// ListPendingFor returns the pending expenses the given user can act on right
// now: sequential expenses where they hold the current position, and
// simultaneous expenses where they have not voted yet.
func (r *ExpenseRepo) ListPendingFor(ctx context.Context, approverID string, limit, offset int) ([]*entity.Expense, int, error) {
	exec := r.db.Executor(ctx)

	where := `
		FROM expenses e
		JOIN expense_approvers ea ON ea.expense_id = e.id AND ea.approver_id = ?
		WHERE e.status = 'Pending'
		  AND (
			(e.flow_type = 'Sequential' AND ea.position = e.current_approver_index)
			OR
			(e.flow_type = 'Simultaneous' AND NOT EXISTS (
				SELECT 1 FROM expense_decisions d
				WHERE d.expense_id = e.id AND d.approver_id = ea.approver_id))
		  )`

	var total int
	if err := exec.QueryRowContext(ctx, `SELECT COUNT(*)`+where, approverID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count pending approvals: %w", err)
	}

	query := `SELECT e.id` + where + ` ORDER BY e.submission_date ASC, e.id ASC`
	args := []interface{}{approverID}
	if limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	}

	ids, err := collectIDs(ctx, exec, query, args)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list pending approvals: %w", err)
	}
	items, err := r.getAll(ctx, ids)
	return items, total, err
}

// List returns a page over every expense, newest first. limit <= 0 disables
// paging.
func (r *ExpenseRepo) List(ctx context.Context, limit, offset int) ([]*entity.Expense, int, error) {
	return r.listWhere(ctx, ``, nil, `ORDER BY submission_date DESC, id ASC`, limit, offset)
}

func (r *ExpenseRepo) listWhere(ctx context.Context, where string, whereArgs []interface{}, order string, limit, offset int) ([]*entity.Expense, int, error) {
	exec := r.db.Executor(ctx)

	var total int
	if err := exec.QueryRowContext(ctx, `SELECT COUNT(*) FROM expenses `+where, whereArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count expenses: %w", err)
	}

	query := `SELECT id FROM expenses ` + where + ` ` + order
	args := append([]interface{}{}, whereArgs...)
	if limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	}

	ids, err := collectIDs(ctx, exec, query, args)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list expenses: %w", err)
	}
	items, err := r.getAll(ctx, ids)
	return items, total, err
}

func (r *ExpenseRepo) getAll(ctx context.Context, ids []string) ([]*entity.Expense, error) {
	items := make([]*entity.Expense, 0, len(ids))
	for _, id := range ids {
		exp, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if exp != nil {
			items = append(items, exp)
		}
	}
	return items, nil
}

func (r *ExpenseRepo) loadChildren(ctx context.Context, exp *entity.Expense) error {
	exec := r.db.Executor(ctx)

	rows, err := exec.QueryContext(ctx,
		`SELECT approver_id FROM expense_approvers WHERE expense_id = ? ORDER BY position ASC`, exp.ID)
	if err != nil {
		return fmt.Errorf("failed to load expense approvers: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return err
		}
		exp.Approvers = append(exp.Approvers, id)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	drows, err := exec.QueryContext(ctx,
		`SELECT approver_id, action, decided_at FROM expense_decisions
		 WHERE expense_id = ? ORDER BY decided_at ASC, rowid ASC`, exp.ID)
	if err != nil {
		return fmt.Errorf("failed to load expense decisions: %w", err)
	}
	defer drows.Close()
	for drows.Next() {
		var d entity.Decision
		var action string
		if err := drows.Scan(&d.ApproverID, &action, &d.DecidedAt); err != nil {
			return err
		}
		d.Action = entity.DecisionAction(action)
		exp.Decisions = append(exp.Decisions, d)
	}
	return drows.Err()
}

func scanExpense(row rowScanner) (*entity.Expense, error) {
	var exp entity.Expense
	var status, flowType string
	var flowID sql.NullString
	var split sql.NullInt64
	err := row.Scan(&exp.ID, &exp.EmployeeID, &exp.Amount, &exp.Currency, &exp.Category,
		&exp.Description, &status, &exp.CurrentApproverIndex, &flowID, &flowType,
		&split, &exp.SubmissionDate, &exp.CreatedAt, &exp.UpdatedAt)
	if err != nil {
		return nil, err
	}
	exp.Status = entity.ExpenseStatus(status)
	exp.FlowType = entity.FlowType(flowType)
	if flowID.Valid {
		exp.FlowID = flowID.String
	}
	if split.Valid {
		v := int(split.Int64)
		exp.SplitVotePercentage = &v
	}
	return &exp, nil
}

func collectIDs(ctx context.Context, exec database.Executor, query string, args []interface{}) ([]string, error) {
	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
