package engine

import "errors"

var (
	// ErrAlreadyProcessed is returned when an action targets a terminal expense
	ErrAlreadyProcessed = errors.New("expense already processed")

	// ErrAlreadyVoted is returned when an approver votes twice on the same expense
	ErrAlreadyVoted = errors.New("approver already voted")

	// ErrNotEligible is returned when the actor is not an eligible approver right now
	ErrNotEligible = errors.New("not an eligible approver")

	// ErrInvalidAction is returned for an unknown action verb
	ErrInvalidAction = errors.New("invalid action")
)
