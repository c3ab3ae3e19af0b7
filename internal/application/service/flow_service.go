package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kmorales/expenseflow/internal/application/port"
	"github.com/kmorales/expenseflow/internal/domain/entity"
)

// FlowService manages approval flow definitions.
//
// Flow edits never touch in-flight expenses: every expense snapshots its
// flow's approver list, type and threshold at submission time.
type FlowService struct {
	flows  port.FlowRepository
	users  port.UserRepository
	logger Logger
}

// NewFlowService creates a flow service.
func NewFlowService(flows port.FlowRepository, users port.UserRepository, logger Logger) *FlowService {
	return &FlowService{
		flows:  flows,
		users:  users,
		logger: logger,
	}
}

// FlowRequest carries a flow definition for create and update.
type FlowRequest struct {
	Name                string          `json:"name" binding:"required"`
	Type                entity.FlowType `json:"type" binding:"required"`
	Approvers           []string        `json:"approvers" binding:"required"`
	SplitVotePercentage *int            `json:"splitVotePercentage"`
}

// Create validates and stores a new flow definition.
func (s *FlowService) Create(ctx context.Context, req FlowRequest) (*entity.ApprovalFlow, error) {
	if err := s.validate(ctx, req); err != nil {
		return nil, err
	}

	now := time.Now()
	flow := &entity.ApprovalFlow{
		ID:                  uuid.New().String(),
		Name:                strings.TrimSpace(req.Name),
		Type:                req.Type,
		Approvers:           req.Approvers,
		SplitVotePercentage: req.SplitVotePercentage,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.flows.Create(ctx, flow); err != nil {
		return nil, fmt.Errorf("failed to create flow: %w", err)
	}

	s.logger.Info("approval flow created",
		"flow_id", flow.ID, "type", string(flow.Type), "approvers", len(flow.Approvers))
	return flow, nil
}

// Get fetches one flow by ID.
func (s *FlowService) Get(ctx context.Context, id string) (*entity.ApprovalFlow, error) {
	flow, err := s.flows.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get flow: %w", err)
	}
	if flow == nil {
		return nil, fmt.Errorf("%w: approval flow %s", ErrNotFound, id)
	}
	return flow, nil
}

// List returns a page of flows with the total count.
func (s *FlowService) List(ctx context.Context, page, limit int) ([]*entity.ApprovalFlow, int, error) {
	page, limit = normalizePage(page, limit)
	flows, total, err := s.flows.List(ctx, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list flows: %w", err)
	}
	return flows, total, nil
}

// Update replaces a flow definition. Expenses already submitted keep the
// configuration they snapshotted.
func (s *FlowService) Update(ctx context.Context, id string, req FlowRequest) (*entity.ApprovalFlow, error) {
	flow, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validate(ctx, req); err != nil {
		return nil, err
	}

	flow.Name = strings.TrimSpace(req.Name)
	flow.Type = req.Type
	flow.Approvers = req.Approvers
	flow.SplitVotePercentage = req.SplitVotePercentage
	flow.UpdatedAt = time.Now()

	if err := s.flows.Update(ctx, flow); err != nil {
		return nil, fmt.Errorf("failed to update flow: %w", err)
	}

	s.logger.Info("approval flow updated", "flow_id", flow.ID)
	return flow, nil
}

func (s *FlowService) validate(ctx context.Context, req FlowRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return fmt.Errorf("%w: flow name is required", ErrValidation)
	}
	if !req.Type.IsValid() {
		return fmt.Errorf("%w: unknown flow type %q", ErrValidation, req.Type)
	}
	if len(req.Approvers) == 0 {
		return fmt.Errorf("%w: at least one approver is required", ErrValidation)
	}

	seen := make(map[string]struct{}, len(req.Approvers))
	for _, id := range req.Approvers {
		if id == "" {
			return fmt.Errorf("%w: approver ID cannot be empty", ErrValidation)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: duplicate approver %s", ErrValidation, id)
		}
		seen[id] = struct{}{}
	}

	missing, err := s.users.MissingIDs(ctx, req.Approvers)
	if err != nil {
		return fmt.Errorf("failed to resolve approvers: %w", err)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: unknown approvers: %s", ErrValidation, strings.Join(missing, ", "))
	}

	if req.SplitVotePercentage != nil {
		if req.Type != entity.FlowSimultaneous {
			return fmt.Errorf("%w: split vote percentage only applies to simultaneous flows", ErrValidation)
		}
		p := *req.SplitVotePercentage
		if p < 0 || p > 100 {
			return fmt.Errorf("%w: split vote percentage must be between 0 and 100", ErrValidation)
		}
	}
	return nil
}
