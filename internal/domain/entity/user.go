package entity

import "time"

// User is an account in the identity directory
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	ManagerID    *string   `json:"manager_id,omitempty"`
	// ApprovalFlowID is the flow explicitly assigned by an admin; when nil,
	// submissions fall back to the user's direct manager.
	ApprovalFlowID *string   `json:"approval_flow_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
