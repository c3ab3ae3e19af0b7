package entity

// Role represents a user's role in the directory
type Role string

const (
	RoleEmployee Role = "Employee"
	RoleManager  Role = "Manager"
	RoleAdmin    Role = "Admin"
)

var validRoles = map[Role]bool{
	RoleEmployee: true,
	RoleManager:  true,
	RoleAdmin:    true,
}

// IsValid returns true if the role is a known role
func (r Role) IsValid() bool {
	return validRoles[r]
}

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// FlowType represents how a flow's approvers act on an expense
type FlowType string

const (
	FlowSequential   FlowType = "Sequential"
	FlowSimultaneous FlowType = "Simultaneous"
)

var validFlowTypes = map[FlowType]bool{
	FlowSequential:   true,
	FlowSimultaneous: true,
}

// IsValid returns true if the flow type is a known type
func (t FlowType) IsValid() bool {
	return validFlowTypes[t]
}

// String returns the string representation of the flow type
func (t FlowType) String() string {
	return string(t)
}

// ExpenseStatus represents the lifecycle state of an expense
type ExpenseStatus string

const (
	StatusPending  ExpenseStatus = "Pending"
	StatusApproved ExpenseStatus = "Approved"
	StatusRejected ExpenseStatus = "Rejected"
)

var validStatuses = map[ExpenseStatus]bool{
	StatusPending:  true,
	StatusApproved: true,
	StatusRejected: true,
}

var terminalStatuses = map[ExpenseStatus]bool{
	StatusApproved: true,
	StatusRejected: true,
}

// IsTerminal returns true if the status is terminal (no further transitions allowed)
func (s ExpenseStatus) IsTerminal() bool {
	return terminalStatuses[s]
}

// IsValid returns true if the status is a valid expense status
func (s ExpenseStatus) IsValid() bool {
	return validStatuses[s]
}

// String returns the string representation of the status
func (s ExpenseStatus) String() string {
	return string(s)
}

// DecisionAction is a single approver's verdict on an expense
type DecisionAction string

const (
	ActionApprove DecisionAction = "approve"
	ActionReject  DecisionAction = "reject"
)

// IsValid returns true if the action is a known action
func (a DecisionAction) IsValid() bool {
	return a == ActionApprove || a == ActionReject
}

// String returns the string representation of the action
func (a DecisionAction) String() string {
	return string(a)
}
