package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"manguechain/internal/core/domain"
	"manguechain/internal/core/port"
)

// CreateCampaign validates the request against the reconciled cache,
// submits the creation write and returns the campaign under its
// ledger-assigned id.
func (c *Coordinator) CreateCampaign(ctx context.Context, req port.CreateCampaignReq) (domain.Campaign, error) {
	if req.Name == "" || req.Description == "" || req.Area == "" {
		return domain.Campaign{}, fmt.Errorf("%w: name, description and area are required", domain.ErrValidation)
	}
	if req.Goal <= 0 {
		return domain.Campaign{}, fmt.Errorf("%w: goal must be positive", domain.ErrValidation)
	}

	c.mu.RLock()
	paused := c.fees.Paused
	_, known := c.coops[req.Cooperative]
	c.mu.RUnlock()
	if paused {
		return domain.Campaign{}, fmt.Errorf("%w: platform is paused", domain.ErrPermission)
	}
	if !known {
		return domain.Campaign{}, fmt.Errorf("%w: %s", domain.ErrUnknownCooperative, req.Cooperative)
	}

	res, err := c.ledger.CreateCampaign(ctx, uuid.NewString(), req.Cooperative, req.Name, req.Description, req.Area, req.Goal)
	if err != nil {
		return domain.Campaign{}, err
	}
	return c.settleCampaignWrite(ctx, res.ID, res.Tx)
}

// RecordDonation adds amount to a campaign's donation tally. The
// Open → Funded transition happens on the ledger when the goal is
// reached; over-funding is allowed.
func (c *Coordinator) RecordDonation(ctx context.Context, campaignID, amount int64) (domain.Campaign, error) {
	if amount <= 0 {
		return domain.Campaign{}, fmt.Errorf("%w: donation amount must be positive", domain.ErrValidation)
	}

	lk := c.locks.acquire(campaignID)
	defer lk.Unlock()

	camp, err := c.precheck(campaignID)
	if err != nil {
		return domain.Campaign{}, err
	}
	c.mu.RLock()
	paused := c.fees.Paused
	c.mu.RUnlock()
	if paused {
		return domain.Campaign{}, fmt.Errorf("%w: platform is paused", domain.ErrPermission)
	}
	if !camp.AcceptsDonations() {
		return domain.Campaign{}, fmt.Errorf("%w: campaign %d is %s", domain.ErrCampaignClosed, campaignID, camp.Status)
	}

	tx, err := c.ledger.Donate(ctx, uuid.NewString(), campaignID, amount)
	if err != nil {
		return domain.Campaign{}, err
	}
	return c.settleCampaignWrite(ctx, campaignID, tx)
}

// StartCampaign transitions Funded → InProgress.
func (c *Coordinator) StartCampaign(ctx context.Context, campaignID int64) (domain.Campaign, error) {
	lk := c.locks.acquire(campaignID)
	defer lk.Unlock()

	camp, err := c.precheck(campaignID)
	if err != nil {
		return domain.Campaign{}, err
	}
	if !camp.GoalMet() {
		return domain.Campaign{}, fmt.Errorf("%w: %d of %d donated", domain.ErrGoalNotMet, camp.Donated, camp.Goal)
	}
	if camp.Status != domain.StatusFunded {
		return domain.Campaign{}, fmt.Errorf("%w: cannot start from %s", domain.ErrInvalidTransition, camp.Status)
	}

	tx, err := c.ledger.StartCampaign(ctx, uuid.NewString(), campaignID)
	if err != nil {
		return domain.Campaign{}, err
	}
	return c.settleCampaignWrite(ctx, campaignID, tx)
}

// FinalizeCampaign transitions InProgress → Audited, the stage at
// which comments may be attached and payment released. A second
// finalize without an intervening valid state is rejected.
func (c *Coordinator) FinalizeCampaign(ctx context.Context, campaignID int64) (domain.Campaign, error) {
	lk := c.locks.acquire(campaignID)
	defer lk.Unlock()

	camp, err := c.precheck(campaignID)
	if err != nil {
		return domain.Campaign{}, err
	}
	if camp.Status != domain.StatusInProgress {
		return domain.Campaign{}, fmt.Errorf("%w: cannot finalize from %s", domain.ErrInvalidTransition, camp.Status)
	}

	tx, err := c.ledger.FinalizeCampaign(ctx, uuid.NewString(), campaignID)
	if err != nil {
		return domain.Campaign{}, err
	}
	return c.settleCampaignWrite(ctx, campaignID, tx)
}

// AuditCampaign attaches review comments to a finalized campaign.
// Allowed once; a repeat fails.
func (c *Coordinator) AuditCampaign(ctx context.Context, campaignID int64, comments string) (domain.Campaign, error) {
	if comments == "" {
		return domain.Campaign{}, fmt.Errorf("%w: audit comments are required", domain.ErrValidation)
	}

	lk := c.locks.acquire(campaignID)
	defer lk.Unlock()

	camp, err := c.precheck(campaignID)
	if err != nil {
		return domain.Campaign{}, err
	}
	if camp.AuditComments != "" {
		return domain.Campaign{}, fmt.Errorf("%w: campaign %d", domain.ErrAlreadyAudited, campaignID)
	}
	if camp.Status != domain.StatusAudited {
		return domain.Campaign{}, fmt.Errorf("%w: cannot audit from %s", domain.ErrInvalidTransition, camp.Status)
	}

	tx, err := c.ledger.AuditTask(ctx, uuid.NewString(), campaignID, comments)
	if err != nil {
		return domain.Campaign{}, err
	}
	return c.settleCampaignWrite(ctx, campaignID, tx)
}

// ReleasePayment releases the collected funds to the cooperative
// vault, minus the platform fee skim, and finishes the campaign. This
// must be exactly-once per campaign even under concurrent invocation;
// the per-campaign lock plus the ledger's own paid flag enforce it.
func (c *Coordinator) ReleasePayment(ctx context.Context, campaignID int64) (domain.Campaign, error) {
	lk := c.locks.acquire(campaignID)
	defer lk.Unlock()

	camp, err := c.precheck(campaignID)
	if err != nil {
		return domain.Campaign{}, err
	}
	if camp.Paid {
		return domain.Campaign{}, fmt.Errorf("%w: campaign %d", domain.ErrAlreadyPaid, campaignID)
	}
	if !camp.GoalMet() {
		return domain.Campaign{}, fmt.Errorf("%w: %d of %d donated", domain.ErrGoalNotMet, camp.Donated, camp.Goal)
	}
	if camp.Status != domain.StatusAudited {
		return domain.Campaign{}, fmt.Errorf("%w: cannot release from %s", domain.ErrInvalidTransition, camp.Status)
	}

	tx, err := c.ledger.ReleasePayment(ctx, uuid.NewString(), campaignID)
	if err != nil {
		return domain.Campaign{}, err
	}
	return c.settleCampaignWrite(ctx, campaignID, tx)
}

// Campaign returns one campaign from the reconciled cache.
func (c *Coordinator) Campaign(ctx context.Context, campaignID int64) (domain.Campaign, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	camp, ok := c.campaigns[campaignID]
	if !ok {
		return domain.Campaign{}, fmt.Errorf("%w: %d", domain.ErrCampaignNotFound, campaignID)
	}
	return camp, nil
}

// Campaigns returns all cached campaigns ordered by id.
func (c *Coordinator) Campaigns(ctx context.Context) ([]domain.Campaign, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Campaign, 0, len(c.campaigns))
	for _, camp := range c.campaigns {
		out = append(out, camp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// CampaignsByCooperative returns the cooperative's campaigns, the
// dashboard view, ordered by id.
func (c *Coordinator) CampaignsByCooperative(ctx context.Context, address string) ([]domain.Campaign, error) {
	c.mu.RLock()
	_, known := c.coops[address]
	c.mu.RUnlock()
	if !known {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownCooperative, address)
	}
	all, _ := c.Campaigns(ctx)
	out := all[:0]
	for _, camp := range all {
		if camp.Cooperative == address {
			out = append(out, camp)
		}
	}
	return out, nil
}

// precheck loads the campaign and refuses further writes while a
// previous write's landing status is unknown.
func (c *Coordinator) precheck(campaignID int64) (domain.Campaign, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if hash, ok := c.inflight[campaignID]; ok {
		return domain.Campaign{}, fmt.Errorf("%w: tx %s unresolved, sync required", domain.ErrPendingUnknown, hash)
	}
	camp, ok := c.campaigns[campaignID]
	if !ok {
		return domain.Campaign{}, fmt.Errorf("%w: %d", domain.ErrCampaignNotFound, campaignID)
	}
	return camp, nil
}

// settleCampaignWrite waits for confirmation, applies the
// authoritative record for the touched campaign and runs a full
// reconciliation pass for everything else.
func (c *Coordinator) settleCampaignWrite(ctx context.Context, campaignID int64, tx port.TxHandle) (domain.Campaign, error) {
	if err := c.confirm(ctx, tx); err != nil {
		if errors.Is(err, domain.ErrPendingUnknown) {
			c.mu.Lock()
			c.inflight[campaignID] = tx.Hash()
			c.mu.Unlock()
		}
		return domain.Campaign{}, err
	}

	rec, err := c.ledger.Task(ctx, campaignID)
	if err != nil {
		return domain.Campaign{}, fmt.Errorf("%w: re-read after write: %v", domain.ErrSync, err)
	}
	applied, err := c.applyConfirmed(rec)
	if err != nil {
		return domain.Campaign{}, err
	}

	// Fees and pause state may have moved too (e.g. a release skims a
	// fee); refresh the rest of the cache without failing the action.
	if err := c.Sync(ctx); err != nil {
		c.logger.Warn("post-write sync failed", slog.Int64("campaign", campaignID), slog.Any("error", err))
	}
	return applied, nil
}

// applyConfirmed installs a confirmation-path record into the cache.
// A record older than what a newer sync already installed is discarded
// rather than allowed to regress status, paid or donated.
func (c *Coordinator) applyConfirmed(rec domain.Campaign) (domain.Campaign, error) {
	if err := rec.CheckInvariants(); err != nil {
		return domain.Campaign{}, fmt.Errorf("%w: ledger record for campaign %d", err, rec.ID)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	cur, ok := c.campaigns[rec.ID]
	if ok {
		if rec.Status.Before(cur.Status) || (cur.Paid && !rec.Paid) || rec.Donated < cur.Donated {
			return domain.Campaign{}, fmt.Errorf("%w: campaign %d", domain.ErrStateConflict, rec.ID)
		}
		rec.Version = cur.Version
		if rec.Status != cur.Status || rec.Donated != cur.Donated || rec.Paid != cur.Paid || rec.AuditComments != cur.AuditComments {
			rec.Version++
		}
	} else {
		rec.Version = 1
	}
	c.campaigns[rec.ID] = rec
	delete(c.inflight, rec.ID)
	return rec, nil
}
