package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kmorales/expenseflow/internal/domain/entity"
	"github.com/kmorales/expenseflow/pkg/database"
)

// FlowRepo implements port.FlowRepository backed by SQLite. The ordered
// approver list lives in approval_flow_approvers keyed by position.
type FlowRepo struct {
	db *database.DB
}

// NewFlowRepo creates a flow repository.
func NewFlowRepo(db *database.DB) *FlowRepo {
	return &FlowRepo{db: db}
}

// Create inserts a flow and its approver list atomically.
func (r *FlowRepo) Create(ctx context.Context, flow *entity.ApprovalFlow) error {
	return r.db.WithTransaction(ctx, func(txCtx context.Context) error {
		exec := r.db.Executor(txCtx)

		_, err := exec.ExecContext(txCtx,
			`INSERT INTO approval_flows (id, name, type, split_vote_percentage, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			flow.ID, flow.Name, string(flow.Type), nullableInt(flow.SplitVotePercentage),
			flow.CreatedAt, flow.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert flow: %w", err)
		}

		return r.insertApprovers(txCtx, flow.ID, flow.Approvers)
	})
}

// GetByID fetches a flow with its approver list. Returns (nil, nil) when not
// found.
func (r *FlowRepo) GetByID(ctx context.Context, id string) (*entity.ApprovalFlow, error) {
	exec := r.db.Executor(ctx)

	var flow entity.ApprovalFlow
	var flowType string
	var split sql.NullInt64
	err := exec.QueryRowContext(ctx,
		`SELECT id, name, type, split_vote_percentage, created_at, updated_at
		 FROM approval_flows WHERE id = ?`, id).
		Scan(&flow.ID, &flow.Name, &flowType, &split, &flow.CreatedAt, &flow.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan flow: %w", err)
	}
	flow.Type = entity.FlowType(flowType)
	if split.Valid {
		v := int(split.Int64)
		flow.SplitVotePercentage = &v
	}

	approvers, err := r.loadApprovers(ctx, flow.ID)
	if err != nil {
		return nil, err
	}
	flow.Approvers = approvers
	return &flow, nil
}

// Update rewrites a flow definition, replacing its approver list.
func (r *FlowRepo) Update(ctx context.Context, flow *entity.ApprovalFlow) error {
	return r.db.WithTransaction(ctx, func(txCtx context.Context) error {
		exec := r.db.Executor(txCtx)

		res, err := exec.ExecContext(txCtx,
			`UPDATE approval_flows SET name = ?, type = ?, split_vote_percentage = ?, updated_at = ?
			 WHERE id = ?`,
			flow.Name, string(flow.Type), nullableInt(flow.SplitVotePercentage),
			flow.UpdatedAt, flow.ID)
		if err != nil {
			return fmt.Errorf("failed to update flow: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("flow %s not found", flow.ID)
		}

		if _, err := exec.ExecContext(txCtx,
			`DELETE FROM approval_flow_approvers WHERE flow_id = ?`, flow.ID); err != nil {
			return fmt.Errorf("failed to clear flow approvers: %w", err)
		}
		return r.insertApprovers(txCtx, flow.ID, flow.Approvers)
	})
}

// List returns a page of flows plus the total count.
func (r *FlowRepo) List(ctx context.Context, limit, offset int) ([]*entity.ApprovalFlow, int, error) {
	exec := r.db.Executor(ctx)

	var total int
	if err := exec.QueryRowContext(ctx, `SELECT COUNT(*) FROM approval_flows`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count flows: %w", err)
	}

	query := `SELECT id FROM approval_flows ORDER BY created_at ASC, id ASC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	}

	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list flows: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, 0, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	flows := make([]*entity.ApprovalFlow, 0, len(ids))
	for _, id := range ids {
		flow, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, 0, err
		}
		if flow != nil {
			flows = append(flows, flow)
		}
	}
	return flows, total, nil
}

func (r *FlowRepo) insertApprovers(ctx context.Context, flowID string, approvers []string) error {
	exec := r.db.Executor(ctx)
	for pos, approverID := range approvers {
		_, err := exec.ExecContext(ctx,
			`INSERT INTO approval_flow_approvers (flow_id, position, approver_id) VALUES (?, ?, ?)`,
			flowID, pos, approverID)
		if err != nil {
			return fmt.Errorf("failed to insert flow approver: %w", err)
		}
	}
	return nil
}

func (r *FlowRepo) loadApprovers(ctx context.Context, flowID string) ([]string, error) {
	rows, err := r.db.Executor(ctx).QueryContext(ctx,
		`SELECT approver_id FROM approval_flow_approvers WHERE flow_id = ? ORDER BY position ASC`,
		flowID)
	if err != nil {
		return nil, fmt.Errorf("failed to load flow approvers: %w", err)
	}
	defer rows.Close()

	var approvers []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		approvers = append(approvers, id)
	}
	return approvers, rows.Err()
}

func nullableInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
