package domain

import "errors"

// Domain errors are pure sentinels; callers branch with errors.Is.

var (
	// Input and permission errors, resolved locally before any write.
	ErrValidation           = errors.New("invalid input")
	ErrPermission           = errors.New("operation not permitted")
	ErrUnknownCooperative   = errors.New("cooperative not registered")
	ErrDuplicateCooperative = errors.New("vault already registered")

	// Lifecycle rule violations.
	ErrCampaignNotFound  = errors.New("campaign not found")
	ErrInvalidTransition = errors.New("illegal status transition")
	ErrGoalNotMet        = errors.New("funding goal not met")
	ErrAlreadyPaid       = errors.New("payment already released")
	ErrAlreadyAudited    = errors.New("campaign already audited")
	ErrCampaignClosed    = errors.New("campaign no longer accepts donations")
	ErrNoFees            = errors.New("no retained fees to withdraw")

	// Transport and reconciliation errors.
	ErrTxRejected     = errors.New("transaction rejected by signer")
	ErrNetwork        = errors.New("ledger gateway unreachable")
	ErrSync           = errors.New("reconciliation failed")
	ErrStateConflict  = errors.New("confirmation older than cached state")
	ErrPendingUnknown = errors.New("write landing status unknown")
)
