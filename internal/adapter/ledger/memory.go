package ledger

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"manguechain/internal/core/domain"
	"manguechain/internal/core/port"
)

// Memory is an in-process ledger implementing the contract rules
// deterministically: registration uniqueness, pause enforcement, the
// campaign status machine, the release-time fee skim and fee
// withdrawal. It backs dev mode and tests; production wires the rpc
// gateway instead. Writes apply at submission and handles settle after
// an optional delay, which lets tests exercise the pending-unknown
// path with writes that did land.
type Memory struct {
	feeBps      int64
	settleDelay time.Duration

	mu       sync.Mutex
	paused   bool
	retained int64
	coops    []domain.Cooperative
	tasks    []domain.Campaign
	vaults   map[string]int64  // vault address -> credited balance
	tokens   map[string]string // idempotency token -> tx hash
	nextAddr int64
}

// MemoryOption configures the in-process ledger.
type MemoryOption func(*Memory)

// WithFeeBps sets the basis points skimmed at payment release.
func WithFeeBps(bps int64) MemoryOption {
	return func(m *Memory) { m.feeBps = bps }
}

// WithSettleDelay delays confirmation of every write.
func WithSettleDelay(d time.Duration) MemoryOption {
	return func(m *Memory) { m.settleDelay = d }
}

// NewMemory creates an empty in-process ledger with a 2% default fee.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		feeBps: 200,
		vaults: make(map[string]int64),
		tokens: make(map[string]string),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

type memTx struct {
	hash  string
	delay time.Duration
}

func (t memTx) Hash() string { return t.hash }

func (t memTx) Wait(ctx context.Context) error {
	if t.delay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(t.delay):
		return nil
	}
}

func newHash() string {
	return "0x" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// submit runs a write under the ledger lock with token idempotency.
// The caller's mutation must be fully validated before it touches
// state, mirroring a transaction that either applies or reverts.
func (m *Memory) submit(token string, apply func() error) (port.TxHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if hash, ok := m.tokens[token]; ok {
		return memTx{hash: hash, delay: m.settleDelay}, nil
	}
	if err := apply(); err != nil {
		return nil, err
	}
	hash := newHash()
	if token != "" {
		m.tokens[token] = hash
	}
	return memTx{hash: hash, delay: m.settleDelay}, nil
}

func (m *Memory) RegisterCooperative(ctx context.Context, token string, c domain.Cooperative) (port.TxHandle, error) {
	return m.submit(token, func() error {
		if err := c.Validate(); err != nil {
			return err
		}
		for _, existing := range m.coops {
			if existing.Vault == c.Vault {
				return fmt.Errorf("%w: %s", domain.ErrDuplicateCooperative, c.Vault)
			}
		}
		m.nextAddr++
		c.Address = fmt.Sprintf("0x%040x", m.nextAddr)
		m.coops = append(m.coops, c)
		return nil
	})
}

func (m *Memory) CreateCampaign(ctx context.Context, token, cooperative, name, description, area string, goal int64) (port.CreateResult, error) {
	var id int64
	tx, err := m.submit(token, func() error {
		if m.paused {
			return fmt.Errorf("%w: ledger is paused", domain.ErrPermission)
		}
		if goal <= 0 || name == "" {
			return domain.ErrValidation
		}
		if !m.hasCooperative(cooperative) {
			return fmt.Errorf("%w: %s", domain.ErrUnknownCooperative, cooperative)
		}
		id = int64(len(m.tasks)) + 1
		m.tasks = append(m.tasks, domain.Campaign{
			ID:          id,
			Cooperative: cooperative,
			Name:        name,
			Description: description,
			Area:        area,
			Goal:        goal,
			Status:      domain.StatusOpen,
		})
		return nil
	})
	if err != nil {
		return port.CreateResult{}, err
	}
	return port.CreateResult{Tx: tx, ID: id}, nil
}

func (m *Memory) Donate(ctx context.Context, token string, campaignID, amount int64) (port.TxHandle, error) {
	return m.submit(token, func() error {
		if m.paused {
			return fmt.Errorf("%w: ledger is paused", domain.ErrPermission)
		}
		if amount <= 0 {
			return domain.ErrValidation
		}
		t, err := m.task(campaignID)
		if err != nil {
			return err
		}
		if !t.AcceptsDonations() {
			return fmt.Errorf("%w: campaign %d", domain.ErrCampaignClosed, campaignID)
		}
		t.Donated += amount
		if t.Status == domain.StatusOpen && t.GoalMet() {
			t.Status = domain.StatusFunded
		}
		return nil
	})
}

func (m *Memory) StartCampaign(ctx context.Context, token string, campaignID int64) (port.TxHandle, error) {
	return m.submit(token, func() error {
		t, err := m.task(campaignID)
		if err != nil {
			return err
		}
		if t.Status != domain.StatusFunded {
			return fmt.Errorf("%w: campaign %d is %s", domain.ErrInvalidTransition, campaignID, t.Status)
		}
		now := time.Now().UTC()
		t.Status = domain.StatusInProgress
		t.StartedAt = &now
		return nil
	})
}

func (m *Memory) FinalizeCampaign(ctx context.Context, token string, campaignID int64) (port.TxHandle, error) {
	return m.submit(token, func() error {
		t, err := m.task(campaignID)
		if err != nil {
			return err
		}
		if t.Status != domain.StatusInProgress {
			return fmt.Errorf("%w: campaign %d is %s", domain.ErrInvalidTransition, campaignID, t.Status)
		}
		t.Status = domain.StatusAudited
		return nil
	})
}

func (m *Memory) AuditTask(ctx context.Context, token string, campaignID int64, comments string) (port.TxHandle, error) {
	return m.submit(token, func() error {
		if comments == "" {
			return domain.ErrValidation
		}
		t, err := m.task(campaignID)
		if err != nil {
			return err
		}
		if t.AuditComments != "" {
			return fmt.Errorf("%w: campaign %d", domain.ErrAlreadyAudited, campaignID)
		}
		if t.Status != domain.StatusAudited {
			return fmt.Errorf("%w: campaign %d is %s", domain.ErrInvalidTransition, campaignID, t.Status)
		}
		t.AuditComments = comments
		return nil
	})
}

func (m *Memory) ReleasePayment(ctx context.Context, token string, campaignID int64) (port.TxHandle, error) {
	return m.submit(token, func() error {
		t, err := m.task(campaignID)
		if err != nil {
			return err
		}
		if t.Paid {
			return fmt.Errorf("%w: campaign %d", domain.ErrAlreadyPaid, campaignID)
		}
		if !t.GoalMet() {
			return fmt.Errorf("%w: campaign %d", domain.ErrGoalNotMet, campaignID)
		}
		if t.Status != domain.StatusAudited {
			return fmt.Errorf("%w: campaign %d is %s", domain.ErrInvalidTransition, campaignID, t.Status)
		}
		fee := t.Donated * m.feeBps / 10000
		m.retained += fee
		m.vaults[m.vaultOf(t.Cooperative)] += t.Donated - fee
		now := time.Now().UTC()
		t.Paid = true
		t.Status = domain.StatusFinished
		t.FinishedAt = &now
		return nil
	})
}

func (m *Memory) Pause(ctx context.Context, token string) (port.TxHandle, error) {
	return m.submit(token, func() error {
		if m.paused {
			return fmt.Errorf("%w: already paused", domain.ErrInvalidTransition)
		}
		m.paused = true
		return nil
	})
}

func (m *Memory) Unpause(ctx context.Context, token string) (port.TxHandle, error) {
	return m.submit(token, func() error {
		if !m.paused {
			return fmt.Errorf("%w: not paused", domain.ErrInvalidTransition)
		}
		m.paused = false
		return nil
	})
}

func (m *Memory) WithdrawFees(ctx context.Context, token string) (port.TxHandle, error) {
	return m.submit(token, func() error {
		if m.retained <= 0 {
			return domain.ErrNoFees
		}
		m.retained = 0
		return nil
	})
}

func (m *Memory) IsPaused(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paused, nil
}

func (m *Memory) RetainedFees(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.retained, nil
}

func (m *Memory) TaskCount(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.tasks)), nil
}

func (m *Memory) Task(ctx context.Context, campaignID int64) (domain.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, err := m.task(campaignID)
	if err != nil {
		return domain.Campaign{}, err
	}
	return *t, nil
}

func (m *Memory) CooperativeCount(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.coops)), nil
}

func (m *Memory) Cooperative(ctx context.Context, index int64) (domain.Cooperative, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if index < 1 || index > int64(len(m.coops)) {
		return domain.Cooperative{}, fmt.Errorf("%w: cooperative index %d", domain.ErrValidation, index)
	}
	return m.coops[index-1], nil
}

// VaultBalance reports the funds credited to a vault by payment
// releases. Read-side helper for tests and dev tooling.
func (m *Memory) VaultBalance(vault string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.vaults[vault]
}

func (m *Memory) task(id int64) (*domain.Campaign, error) {
	if id < 1 || id > int64(len(m.tasks)) {
		return nil, fmt.Errorf("%w: %d", domain.ErrCampaignNotFound, id)
	}
	return &m.tasks[id-1], nil
}

func (m *Memory) hasCooperative(address string) bool {
	for _, c := range m.coops {
		if c.Address == address {
			return true
		}
	}
	return false
}

func (m *Memory) vaultOf(address string) string {
	for _, c := range m.coops {
		if c.Address == address {
			return c.Vault
		}
	}
	return ""
}
