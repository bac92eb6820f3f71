package port

import (
	"context"

	"manguechain/internal/core/domain"
)

// Snapshot is one reconciled view of the ledger: every cooperative,
// every campaign, and the fee account, all read in a single Sync pass.
type Snapshot struct {
	Cooperatives []domain.Cooperative
	Campaigns    []domain.Campaign
	Fees         domain.FeeAccount
}

// SnapshotStore persists the last reconciled snapshot so a restart
// without ledger connectivity can still serve last-known-good state.
// Save replaces the stored snapshot wholesale. Load returns false when
// no snapshot has been saved yet.
type SnapshotStore interface {
	Save(ctx context.Context, s Snapshot) error
	Load(ctx context.Context) (Snapshot, bool, error)
}
