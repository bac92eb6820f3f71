package port

import (
	"context"

	"manguechain/internal/core/domain"
)

// TxHandle is a pending ledger write. Wait blocks until the write
// settles or fails; the context bounds how long the caller is willing
// to wait for confirmation.
type TxHandle interface {
	Hash() string
	Wait(ctx context.Context) error
}

// CreateResult carries the ledger-assigned campaign id for a creation
// write alongside its handle.
type CreateResult struct {
	Tx TxHandle
	ID int64
}

// LedgerGateway is the outbound port to the authoritative ledger,
// reached through a wallet-mediated RPC gateway. Every write returns a
// pending handle; the caller must Wait for settlement and then re-read
// authoritative state. The token parameter on writes is a
// client-chosen idempotency key.
//
// Implementations must never apply local bookkeeping: the ledger is
// the single source of truth and read operations report it verbatim.
type LedgerGateway interface {
	// Writes.
	RegisterCooperative(ctx context.Context, token string, c domain.Cooperative) (TxHandle, error)
	CreateCampaign(ctx context.Context, token, cooperative, name, description, area string, goal int64) (CreateResult, error)
	Donate(ctx context.Context, token string, campaignID, amount int64) (TxHandle, error)
	StartCampaign(ctx context.Context, token string, campaignID int64) (TxHandle, error)
	FinalizeCampaign(ctx context.Context, token string, campaignID int64) (TxHandle, error)
	AuditTask(ctx context.Context, token string, campaignID int64, comments string) (TxHandle, error)
	ReleasePayment(ctx context.Context, token string, campaignID int64) (TxHandle, error)
	Pause(ctx context.Context, token string) (TxHandle, error)
	Unpause(ctx context.Context, token string) (TxHandle, error)
	WithdrawFees(ctx context.Context, token string) (TxHandle, error)

	// Reads.
	IsPaused(ctx context.Context) (bool, error)
	RetainedFees(ctx context.Context) (int64, error)
	TaskCount(ctx context.Context) (int64, error)
	Task(ctx context.Context, campaignID int64) (domain.Campaign, error)
	CooperativeCount(ctx context.Context) (int64, error)
	Cooperative(ctx context.Context, index int64) (domain.Cooperative, error)
}
