package entity

import "time"

// ApprovalFlow is a named, ordered approver chain plus the rule governing
// how an expense moves through it.
type ApprovalFlow struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Type      FlowType `json:"type"`
	Approvers []string `json:"approvers"`
	// SplitVotePercentage is the minimum percentage of approve votes that
	// approves the expense early. Only meaningful for Simultaneous flows.
	SplitVotePercentage *int      `json:"split_vote_percentage,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}
