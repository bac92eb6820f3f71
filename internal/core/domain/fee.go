package domain

// FeeAccount is the process-wide platform account. It is never created
// or destroyed; both fields are re-synchronized from the ledger on
// every reconciliation pass.
type FeeAccount struct {
	// RetainedFees is the fee balance accumulated from release-time
	// skims, in integer base units. Decreases only via withdrawal.
	RetainedFees int64

	// Paused blocks campaign creation and donation recording while true.
	Paused bool
}
