// Package engine implements the approval decision state machine.
//
// Every transition is a pure function over the expense's snapshotted flow
// configuration and its append-only decision log. Callers are responsible for
// serializing concurrent transitions on the same expense; the engine itself
// performs no I/O.
package engine

import (
	"fmt"
	"time"

	"github.com/kmorales/expenseflow/internal/domain/entity"
)

// Decide evaluates a single approve/reject action against the expense's
// current state and returns the resulting expense. The input expense is never
// mutated: eligibility failures return an error and no new state, successful
// transitions return a copy with the decision appended and the status
// recomputed.
func Decide(exp *entity.Expense, actorID string, action entity.DecisionAction, now time.Time) (*entity.Expense, error) {
	if !action.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}

	if exp.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: status is %s", ErrAlreadyProcessed, exp.Status)
	}

	if err := checkEligibility(exp, actorID); err != nil {
		return nil, err
	}

	next := exp.Clone()
	next.Decisions = append(next.Decisions, entity.Decision{
		ApproverID: actorID,
		Action:     action,
		DecidedAt:  now,
	})

	switch next.FlowType {
	case entity.FlowSequential:
		applySequential(next, action)
	case entity.FlowSimultaneous:
		applySimultaneous(next)
	default:
		return nil, fmt.Errorf("unknown flow type %q", next.FlowType)
	}

	next.UpdatedAt = now
	return next, nil
}

// Eligible reports whether the given user may act on the expense right now.
// Used by the pending-approvals query surface; mirrors the check Decide
// performs before recording a decision.
func Eligible(exp *entity.Expense, userID string) bool {
	if exp.Status != entity.StatusPending {
		return false
	}
	return checkEligibility(exp, userID) == nil
}

func checkEligibility(exp *entity.Expense, actorID string) error {
	switch exp.FlowType {
	case entity.FlowSequential:
		// Only the approver at the current position may act.
		if exp.CurrentApproverIndex >= len(exp.Approvers) || exp.Approvers[exp.CurrentApproverIndex] != actorID {
			return ErrNotEligible
		}
	case entity.FlowSimultaneous:
		if !exp.IsApprover(actorID) {
			return ErrNotEligible
		}
		if exp.HasVoted(actorID) {
			return ErrAlreadyVoted
		}
	default:
		return fmt.Errorf("unknown flow type %q", exp.FlowType)
	}
	return nil
}

// applySequential advances the pointer on approve and terminates on reject.
func applySequential(exp *entity.Expense, action entity.DecisionAction) {
	if action == entity.ActionReject {
		exp.Status = entity.StatusRejected
		return
	}
	exp.CurrentApproverIndex++
	if exp.CurrentApproverIndex == len(exp.Approvers) {
		exp.Status = entity.StatusApproved
	}
}

// applySimultaneous derives the status by folding over the decision log.
// Without a split-vote threshold the rule is unanimity: one reject is fatal,
// approval requires every approver's vote. With a threshold P, the expense is
// approved as soon as the approve share reaches P, and rejected as soon as
// the remaining unvoted approvers can no longer reach it.
func applySimultaneous(exp *entity.Expense) {
	approves, rejects := tally(exp.Decisions)
	total := len(exp.Approvers)

	if exp.SplitVotePercentage == nil {
		if rejects > 0 {
			exp.Status = entity.StatusRejected
		} else if approves == total {
			exp.Status = entity.StatusApproved
		}
		return
	}

	p := *exp.SplitVotePercentage
	// Integer arithmetic: approves/total*100 >= p  <=>  approves*100 >= p*total.
	if approves*100 >= p*total {
		exp.Status = entity.StatusApproved
		return
	}
	remaining := total - approves - rejects
	if (approves+remaining)*100 < p*total {
		exp.Status = entity.StatusRejected
	}
}

func tally(decisions []entity.Decision) (approves, rejects int) {
	for _, d := range decisions {
		switch d.Action {
		case entity.ActionApprove:
			approves++
		case entity.ActionReject:
			rejects++
		}
	}
	return approves, rejects
}
