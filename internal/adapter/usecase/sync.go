package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"manguechain/internal/core/domain"
	"manguechain/internal/core/port"
)

// Sync reads the authoritative ledger state in full and replaces the
// local cache wholesale. No local value is ever written back to the
// ledger. A failure anywhere leaves the last-known-good cache intact;
// there is no partial overwrite.
func (c *Coordinator) Sync(ctx context.Context) error {
	var (
		snap  port.Snapshot
		coops []domain.Cooperative
		camps []domain.Campaign
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		paused, err := c.ledger.IsPaused(gctx)
		if err != nil {
			return fmt.Errorf("isPaused: %w", err)
		}
		snap.Fees.Paused = paused
		return nil
	})
	g.Go(func() error {
		fees, err := c.ledger.RetainedFees(gctx)
		if err != nil {
			return fmt.Errorf("retainedFees: %w", err)
		}
		snap.Fees.RetainedFees = fees
		return nil
	})
	g.Go(func() error {
		var err error
		coops, err = c.listCooperatives(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		camps, err = c.listTasks(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSync, err)
	}

	snap.Cooperatives = coops
	snap.Campaigns = camps
	c.installSnapshot(snap, true)

	if c.store != nil {
		if err := c.store.Save(ctx, snap); err != nil {
			c.logger.Warn("snapshot persist failed", slog.Any("error", err))
		}
	}
	return nil
}

func (c *Coordinator) listCooperatives(ctx context.Context) ([]domain.Cooperative, error) {
	n, err := c.ledger.CooperativeCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("cooperativeCount: %w", err)
	}
	out := make([]domain.Cooperative, 0, n)
	for i := int64(1); i <= n; i++ {
		coop, err := c.ledger.Cooperative(ctx, i)
		if err != nil {
			return nil, fmt.Errorf("cooperative %d: %w", i, err)
		}
		out = append(out, coop)
	}
	return out, nil
}

func (c *Coordinator) listTasks(ctx context.Context) ([]domain.Campaign, error) {
	n, err := c.ledger.TaskCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("taskCount: %w", err)
	}
	out := make([]domain.Campaign, 0, n)
	for i := int64(1); i <= n; i++ {
		camp, err := c.ledger.Task(ctx, i)
		if err != nil {
			return nil, fmt.Errorf("task %d: %w", i, err)
		}
		if err := camp.CheckInvariants(); err != nil {
			return nil, fmt.Errorf("task %d: %w", i, err)
		}
		out = append(out, camp)
	}
	return out, nil
}

// installSnapshot replaces the cache with an authoritative snapshot.
// Campaign version stamps survive the swap and are bumped on observed
// change, so late confirmations can be recognized as stale. A
// successful sync also clears every pending-unknown marker: whatever
// those writes did is now reflected.
func (c *Coordinator) installSnapshot(snap port.Snapshot, fromLedger bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	coops := make(map[string]domain.Cooperative, len(snap.Cooperatives))
	vaults := make(map[string]string, len(snap.Cooperatives))
	for _, coop := range snap.Cooperatives {
		coops[coop.Address] = coop
		vaults[coop.Vault] = coop.Address
	}

	camps := make(map[int64]domain.Campaign, len(snap.Campaigns))
	for _, camp := range snap.Campaigns {
		if cur, ok := c.campaigns[camp.ID]; ok {
			camp.Version = cur.Version
			if camp.Status != cur.Status || camp.Donated != cur.Donated || camp.Paid != cur.Paid || camp.AuditComments != cur.AuditComments {
				camp.Version++
			}
		} else if camp.Version == 0 {
			camp.Version = 1
		}
		camps[camp.ID] = camp
	}

	c.coops = coops
	c.vaults = vaults
	c.campaigns = camps
	c.fees = snap.Fees
	if fromLedger {
		c.inflight = make(map[int64]string)
		c.adminBusy = false
	}
}
