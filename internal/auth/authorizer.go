package auth

import (
	"errors"

	"github.com/kmorales/expenseflow/internal/domain/entity"
)

// ErrForbidden is returned when an authenticated user lacks the role a
// capability requires
var ErrForbidden = errors.New("insufficient permissions")

// Capability names a guarded operation group. Dynamic eligibility (who may
// act on a particular expense) is decided by the approval engine, not here.
type Capability string

const (
	CapSubmitExpenses  Capability = "expenses:submit"
	CapReviewExpenses  Capability = "expenses:review"
	CapManageUsers     Capability = "users:manage"
	CapManageFlows     Capability = "flows:manage"
	CapOverseeExpenses Capability = "expenses:oversee"
)

// capabilities is the static role table. Admins hold every capability;
// managers additionally review; employees only submit.
var capabilities = map[entity.Role]map[Capability]bool{
	entity.RoleEmployee: {
		CapSubmitExpenses: true,
	},
	entity.RoleManager: {
		CapSubmitExpenses: true,
		CapReviewExpenses: true,
	},
	entity.RoleAdmin: {
		CapSubmitExpenses:  true,
		CapReviewExpenses:  true,
		CapManageUsers:     true,
		CapManageFlows:     true,
		CapOverseeExpenses: true,
	},
}

// Allowed reports whether the role holds the capability.
func Allowed(role entity.Role, cap Capability) bool {
	return capabilities[role][cap]
}

// Require returns ErrForbidden unless the role holds the capability.
func Require(role entity.Role, cap Capability) error {
	if !Allowed(role, cap) {
		return ErrForbidden
	}
	return nil
}
