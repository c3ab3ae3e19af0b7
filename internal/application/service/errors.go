package service

import "errors"

var (
	// ErrValidation is returned for malformed or out-of-range input, checked
	// before any state is read
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned for unknown ids
	ErrNotFound = errors.New("not found")

	// ErrEmailTaken is returned when registering an email that already exists
	ErrEmailTaken = errors.New("email already registered")

	// ErrNoApproverChain is returned when a submission resolves neither an
	// assigned flow nor a direct manager
	ErrNoApproverChain = errors.New("no approver chain")
)
