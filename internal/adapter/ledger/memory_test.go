package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"manguechain/internal/core/domain"
)

func registerTestCoop(t *testing.T, m *Memory) domain.Cooperative {
	t.Helper()
	ctx := context.Background()
	_, err := m.RegisterCooperative(ctx, "tok-coop", domain.Cooperative{
		Vault:      "0x2222222222222222222222222222222222222222",
		Name:       "Cooperativa Mangue Limpo",
		TaxID:      "12.345.678/0001-99",
		PersonalID: "123.456.789-00",
		Email:      "contato@manguelimpo.org",
	})
	require.NoError(t, err)
	coop, err := m.Cooperative(ctx, 1)
	require.NoError(t, err)
	return coop
}

func TestMemoryAssignsAddresses(t *testing.T) {
	m := NewMemory()
	coop := registerTestCoop(t, m)
	require.True(t, domain.ValidAddress(coop.Address))

	n, err := m.CooperativeCount(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	_, err = m.Cooperative(context.Background(), 2)
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestMemoryDuplicateVault(t *testing.T) {
	m := NewMemory()
	coop := registerTestCoop(t, m)

	_, err := m.RegisterCooperative(context.Background(), "tok-dup", domain.Cooperative{
		Vault:      coop.Vault,
		Name:       "Clonada",
		TaxID:      "1",
		PersonalID: "2",
		Email:      "x@y.z",
	})
	require.ErrorIs(t, err, domain.ErrDuplicateCooperative)
}

func TestMemoryFeeSkim(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(WithFeeBps(500)) // 5%
	coop := registerTestCoop(t, m)

	res, err := m.CreateCampaign(ctx, "tok-create", coop.Address, "Campanha", "desc", "Recife", 10000)
	require.NoError(t, err)
	require.Equal(t, int64(1), res.ID)

	_, err = m.Donate(ctx, "tok-d1", res.ID, 10000)
	require.NoError(t, err)
	_, err = m.StartCampaign(ctx, "tok-s", res.ID)
	require.NoError(t, err)
	_, err = m.FinalizeCampaign(ctx, "tok-f", res.ID)
	require.NoError(t, err)
	_, err = m.ReleasePayment(ctx, "tok-r", res.ID)
	require.NoError(t, err)

	fees, err := m.RetainedFees(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(500), fees)
	require.Equal(t, int64(9500), m.VaultBalance(coop.Vault))

	task, err := m.Task(ctx, res.ID)
	require.NoError(t, err)
	require.True(t, task.Paid)
	require.Equal(t, domain.StatusFinished, task.Status)
	require.NoError(t, task.CheckInvariants())
}

func TestMemoryPauseRules(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	coop := registerTestCoop(t, m)

	_, err := m.Pause(ctx, "tok-p")
	require.NoError(t, err)

	_, err = m.Pause(ctx, "tok-p2")
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = m.CreateCampaign(ctx, "tok-c", coop.Address, "Campanha", "desc", "Recife", 100)
	require.ErrorIs(t, err, domain.ErrPermission)

	_, err = m.Unpause(ctx, "tok-u")
	require.NoError(t, err)

	_, err = m.CreateCampaign(ctx, "tok-c2", coop.Address, "Campanha", "desc", "Recife", 100)
	require.NoError(t, err)
}

func TestMemoryWithdrawZeroBalance(t *testing.T) {
	m := NewMemory()
	_, err := m.WithdrawFees(context.Background(), "tok-w")
	require.ErrorIs(t, err, domain.ErrNoFees)
}

// TestMemoryTokenReplay replays an idempotency token and expects the
// same hash without the write applying twice.
func TestMemoryTokenReplay(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	coop := registerTestCoop(t, m)
	res, err := m.CreateCampaign(ctx, "tok-c", coop.Address, "Campanha", "desc", "Recife", 100)
	require.NoError(t, err)

	tx1, err := m.Donate(ctx, "tok-same", res.ID, 40)
	require.NoError(t, err)
	tx2, err := m.Donate(ctx, "tok-same", res.ID, 40)
	require.NoError(t, err)
	require.Equal(t, tx1.Hash(), tx2.Hash())

	task, err := m.Task(ctx, res.ID)
	require.NoError(t, err)
	require.Equal(t, int64(40), task.Donated)
}

func TestMemorySeed(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, Seed(ctx, m))

	coops, err := m.CooperativeCount(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), coops)

	tasks, err := m.TaskCount(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), tasks)

	task, err := m.Task(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, domain.StatusOpen, task.Status)
	require.NoError(t, task.CheckInvariants())
}
