package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"manguechain/internal/core/domain"
	"manguechain/internal/core/port"
)

// Coordinator implements port.Coordinator. It owns the reconciled
// local cache of cooperatives, campaigns and the fee account, enforces
// lifecycle rules against that cache, submits state changes to the
// ledger gateway and re-synchronizes after every confirmed write. The
// cache is only ever written by this type; the ledger always wins.
type Coordinator struct {
	ledger port.LedgerGateway
	store  port.SnapshotStore // optional; nil disables persistence
	logger *slog.Logger

	// confirmTimeout bounds how long a write may wait for settlement
	// before being surfaced as pending-unknown.
	confirmTimeout time.Duration

	locks *campaignLocks

	mu        sync.RWMutex
	coops     map[string]domain.Cooperative // by address
	vaults    map[string]string             // vault -> address
	campaigns map[int64]domain.Campaign
	fees      domain.FeeAccount
	// inflight marks campaigns with a write whose landing status is
	// unknown; further writes are refused until a sync clears it.
	inflight map[int64]string
	adminBusy bool // same marker for pause/withdraw writes
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithSnapshotStore persists every reconciled snapshot and allows a
// warm start from the last one.
func WithSnapshotStore(s port.SnapshotStore) Option {
	return func(c *Coordinator) { c.store = s }
}

// WithConfirmTimeout overrides the default confirmation wait.
func WithConfirmTimeout(d time.Duration) Option {
	return func(c *Coordinator) { c.confirmTimeout = d }
}

// NewCoordinator creates a coordinator over the given gateway.
func NewCoordinator(ledger port.LedgerGateway, logger *slog.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		ledger:         ledger,
		logger:         logger,
		confirmTimeout: 30 * time.Second,
		locks:          newCampaignLocks(),
		coops:          make(map[string]domain.Cooperative),
		vaults:         make(map[string]string),
		campaigns:      make(map[int64]domain.Campaign),
		inflight:       make(map[int64]string),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Warm brings the cache up on startup: a full sync if the ledger is
// reachable, otherwise the last persisted snapshot.
func (c *Coordinator) Warm(ctx context.Context) error {
	if err := c.Sync(ctx); err == nil {
		return nil
	} else if c.store == nil {
		return err
	}
	snap, ok, err := c.store.Load(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: no snapshot to warm from", domain.ErrSync)
	}
	c.installSnapshot(snap, false)
	c.logger.Warn("ledger unreachable, serving last persisted snapshot")
	return nil
}

// Run re-synchronizes on the given interval until ctx is cancelled.
func (c *Coordinator) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := c.Sync(ctx); err != nil {
				c.logger.Warn("periodic sync failed", slog.Any("error", err))
			}
		}
	}
}

// confirm waits for a submitted write to settle, bounded by the
// configured timeout. A timeout is pending-unknown, not failure. The
// deadline is checked on the wait context itself, not only on the
// returned error: a gateway may surface the expiry wrapped in its own
// transport error without preserving the cause.
func (c *Coordinator) confirm(ctx context.Context, tx port.TxHandle) error {
	wctx, cancel := context.WithTimeout(ctx, c.confirmTimeout)
	defer cancel()
	if err := tx.Wait(wctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(wctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: tx %s", domain.ErrPendingUnknown, tx.Hash())
		}
		return err
	}
	return nil
}

// RegisterCooperative validates registration input, submits it and
// returns the reconciled record with its ledger-assigned address.
func (c *Coordinator) RegisterCooperative(ctx context.Context, req port.RegisterCooperativeReq) (domain.Cooperative, error) {
	coop := domain.Cooperative{
		Vault:      req.Vault,
		Name:       req.Name,
		TaxID:      req.TaxID,
		PersonalID: req.PersonalID,
		Email:      req.Email,
	}
	if err := coop.Validate(); err != nil {
		return domain.Cooperative{}, err
	}

	c.mu.RLock()
	_, dup := c.vaults[coop.Vault]
	c.mu.RUnlock()
	if dup {
		return domain.Cooperative{}, fmt.Errorf("%w: %s", domain.ErrDuplicateCooperative, coop.Vault)
	}

	tx, err := c.ledger.RegisterCooperative(ctx, uuid.NewString(), coop)
	if err != nil {
		return domain.Cooperative{}, err
	}
	if err := c.confirm(ctx, tx); err != nil {
		return domain.Cooperative{}, err
	}
	if err := c.Sync(ctx); err != nil {
		return domain.Cooperative{}, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	addr, ok := c.vaults[coop.Vault]
	if !ok {
		// Confirmed but not visible yet; the ledger remains the arbiter.
		return domain.Cooperative{}, fmt.Errorf("%w: registered cooperative not in listing", domain.ErrSync)
	}
	return c.coops[addr], nil
}

// Cooperatives returns the reconciled registry ordered by address.
func (c *Coordinator) Cooperatives(ctx context.Context) ([]domain.Cooperative, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Cooperative, 0, len(c.coops))
	for _, coop := range c.coops {
		out = append(out, coop)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out, nil
}

// Status returns the last reconciled pause flag and fee balance.
func (c *Coordinator) Status(ctx context.Context) (port.PlatformStatus, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return port.PlatformStatus{Paused: c.fees.Paused, RetainedFees: c.fees.RetainedFees}, nil
}

// TogglePause flips the global paused flag. Authorization is enforced
// by the ledger, not re-checked here.
func (c *Coordinator) TogglePause(ctx context.Context) (port.PlatformStatus, error) {
	if err := c.checkAdminWritable(); err != nil {
		return port.PlatformStatus{}, err
	}

	c.mu.RLock()
	paused := c.fees.Paused
	c.mu.RUnlock()

	var (
		tx  port.TxHandle
		err error
	)
	if paused {
		tx, err = c.ledger.Unpause(ctx, uuid.NewString())
	} else {
		tx, err = c.ledger.Pause(ctx, uuid.NewString())
	}
	return c.settleAdminWrite(ctx, tx, err)
}

// WithdrawFees submits a withdrawal of the whole retained balance. The
// balance is never zeroed locally; the post-withdrawal value comes
// from reconciliation so a failed withdrawal is not masked.
func (c *Coordinator) WithdrawFees(ctx context.Context) (port.PlatformStatus, error) {
	c.mu.RLock()
	balance := c.fees.RetainedFees
	c.mu.RUnlock()
	if balance <= 0 {
		return port.PlatformStatus{}, domain.ErrNoFees
	}
	if err := c.checkAdminWritable(); err != nil {
		return port.PlatformStatus{}, err
	}
	tx, err := c.ledger.WithdrawFees(ctx, uuid.NewString())
	return c.settleAdminWrite(ctx, tx, err)
}

// checkAdminWritable refuses a new pause or withdrawal while a
// previous admin write's landing status is unknown.
func (c *Coordinator) checkAdminWritable() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.adminBusy {
		return fmt.Errorf("%w: admin write unresolved, sync required", domain.ErrPendingUnknown)
	}
	return nil
}

func (c *Coordinator) settleAdminWrite(ctx context.Context, tx port.TxHandle, err error) (port.PlatformStatus, error) {
	if err != nil {
		return port.PlatformStatus{}, err
	}
	if err := c.confirm(ctx, tx); err != nil {
		if errors.Is(err, domain.ErrPendingUnknown) {
			c.mu.Lock()
			c.adminBusy = true
			c.mu.Unlock()
		}
		return port.PlatformStatus{}, err
	}
	if err := c.Sync(ctx); err != nil {
		return port.PlatformStatus{}, err
	}
	return c.Status(ctx)
}
