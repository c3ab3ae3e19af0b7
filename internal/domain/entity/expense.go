package entity

import "time"

// Decision is one approver's recorded verdict. The decision log is
// append-only; entries are never mutated or removed.
type Decision struct {
	ApproverID string         `json:"approver_id"`
	Action     DecisionAction `json:"action"`
	DecidedAt  time.Time      `json:"decided_at"`
}

// Expense is a reimbursement request moving through an approval flow.
// The flow's approver list, type and split threshold are snapshotted at
// submission time, so later flow edits never affect in-flight expenses.
type Expense struct {
	ID          string        `json:"id"`
	EmployeeID  string        `json:"employee_id"`
	Amount      float64       `json:"amount"`
	Currency    string        `json:"currency"`
	Category    string        `json:"category"`
	Description string        `json:"description"`
	Status      ExpenseStatus `json:"status"`

	// FlowID references the flow the snapshot was taken from. Empty when the
	// expense runs on the implicit direct-manager flow.
	FlowID              string   `json:"flow_id,omitempty"`
	FlowType            FlowType `json:"flow_type"`
	Approvers           []string `json:"approvers"`
	SplitVotePercentage *int     `json:"split_vote_percentage,omitempty"`

	// CurrentApproverIndex points at the next eligible approver. Meaningful
	// only for Sequential flows; always in [0, len(Approvers)].
	CurrentApproverIndex int        `json:"current_approver_index"`
	Decisions            []Decision `json:"decisions"`

	SubmissionDate time.Time `json:"submission_date"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// HasVoted reports whether the given approver already appears in the
// decision log.
func (e *Expense) HasVoted(approverID string) bool {
	for _, d := range e.Decisions {
		if d.ApproverID == approverID {
			return true
		}
	}
	return false
}

// IsApprover reports whether the given user is anywhere in the snapshotted
// approver list.
func (e *Expense) IsApprover(userID string) bool {
	for _, a := range e.Approvers {
		if a == userID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the expense. Transitions operate on copies so
// a failed step leaves the stored record untouched.
func (e *Expense) Clone() *Expense {
	cp := *e
	cp.Approvers = append([]string(nil), e.Approvers...)
	cp.Decisions = append([]Decision(nil), e.Decisions...)
	if e.SplitVotePercentage != nil {
		v := *e.SplitVotePercentage
		cp.SplitVotePercentage = &v
	}
	return &cp
}
