package port

import (
	"context"

	"manguechain/internal/core/domain"
)

// RegisterCooperativeReq is the validated registration input.
type RegisterCooperativeReq struct {
	Vault      string
	Name       string
	TaxID      string
	PersonalID string
	Email      string
}

// CreateCampaignReq is the validated campaign creation input.
type CreateCampaignReq struct {
	Cooperative string
	Name        string
	Description string
	Area        string
	Goal        int64
}

// PlatformStatus is the admin status view: global pause flag and the
// retained fee balance, both as last reconciled from the ledger.
type PlatformStatus struct {
	Paused       bool
	RetainedFees int64
}

// Coordinator is the primary port into the application: the campaign
// and cooperative lifecycle operations, fee and pause control, and
// on-demand reconciliation. Operations on the same campaign id are
// serialized; operations on different ids may proceed concurrently.
type Coordinator interface {
	// Cooperative registry.
	RegisterCooperative(ctx context.Context, req RegisterCooperativeReq) (domain.Cooperative, error)
	Cooperatives(ctx context.Context) ([]domain.Cooperative, error)

	// Campaign lifecycle.
	CreateCampaign(ctx context.Context, req CreateCampaignReq) (domain.Campaign, error)
	RecordDonation(ctx context.Context, campaignID, amount int64) (domain.Campaign, error)
	StartCampaign(ctx context.Context, campaignID int64) (domain.Campaign, error)
	FinalizeCampaign(ctx context.Context, campaignID int64) (domain.Campaign, error)
	AuditCampaign(ctx context.Context, campaignID int64, comments string) (domain.Campaign, error)
	ReleasePayment(ctx context.Context, campaignID int64) (domain.Campaign, error)
	Campaign(ctx context.Context, campaignID int64) (domain.Campaign, error)
	Campaigns(ctx context.Context) ([]domain.Campaign, error)
	CampaignsByCooperative(ctx context.Context, address string) ([]domain.Campaign, error)

	// Fee and pause control.
	Status(ctx context.Context) (PlatformStatus, error)
	TogglePause(ctx context.Context) (PlatformStatus, error)
	WithdrawFees(ctx context.Context) (PlatformStatus, error)

	// Reconciliation.
	Sync(ctx context.Context) error
}
