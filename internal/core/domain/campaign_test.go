package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStatusOrder(t *testing.T) {
	order := []Status{StatusOpen, StatusFunded, StatusInProgress, StatusAudited, StatusFinished}
	for i := 1; i < len(order); i++ {
		require.True(t, order[i-1].Before(order[i]), "%s should come before %s", order[i-1], order[i])
		require.False(t, order[i].Before(order[i-1]))
	}
	require.Equal(t, -1, Status("bogus").Rank())
	require.False(t, Status("bogus").Valid())
}

func TestPercentFunded(t *testing.T) {
	c := Campaign{Goal: 1000}
	require.Equal(t, 0, c.PercentFunded())

	c.Donated = 350
	require.Equal(t, 35, c.PercentFunded())

	// Over-funding clamps at 100.
	c.Donated = 1500
	require.Equal(t, 100, c.PercentFunded())

	require.Equal(t, 0, Campaign{}.PercentFunded())
}

func TestPayoutEligible(t *testing.T) {
	c := Campaign{Goal: 1000, Donated: 1000, Status: StatusAudited}
	require.True(t, c.PayoutEligible())

	c.Paid = true
	require.False(t, c.PayoutEligible())

	c = Campaign{Goal: 1000, Donated: 500, Status: StatusAudited}
	require.False(t, c.PayoutEligible())

	c = Campaign{Goal: 1000, Donated: 1000, Status: StatusInProgress}
	require.False(t, c.PayoutEligible())
}

func TestCheckInvariants(t *testing.T) {
	now := time.Now()
	valid := Campaign{ID: 1, Goal: 1000, Donated: 0, Status: StatusOpen}
	require.NoError(t, valid.CheckInvariants())

	finished := Campaign{ID: 1, Goal: 1000, Donated: 1200, Status: StatusFinished, Paid: true, FinishedAt: &now}
	require.NoError(t, finished.CheckInvariants())

	// Finished requires paid and goal met.
	bad := finished
	bad.Paid = false
	require.ErrorIs(t, bad.CheckInvariants(), ErrValidation)

	bad = finished
	bad.Donated = 500
	require.ErrorIs(t, bad.CheckInvariants(), ErrValidation)

	// FinishedAt set iff finished.
	bad = valid
	bad.FinishedAt = &now
	require.ErrorIs(t, bad.CheckInvariants(), ErrValidation)

	bad = Campaign{ID: 1, Goal: 0, Status: StatusOpen}
	require.ErrorIs(t, bad.CheckInvariants(), ErrValidation)

	bad = Campaign{ID: 1, Goal: 1000, Donated: -1, Status: StatusOpen}
	require.ErrorIs(t, bad.CheckInvariants(), ErrValidation)
}

func TestValidAddress(t *testing.T) {
	require.True(t, ValidAddress("0x2222222222222222222222222222222222222222"))
	require.True(t, ValidAddress("0xAbCdEf0123456789abcdef0123456789ABCDEF01"))
	require.False(t, ValidAddress(""))
	require.False(t, ValidAddress("0x12345"))
	require.False(t, ValidAddress("2222222222222222222222222222222222222222ab"))
	require.False(t, ValidAddress("0xZZ22222222222222222222222222222222222222"))
}

func TestCooperativeValidate(t *testing.T) {
	coop := Cooperative{
		Vault:      "0x2222222222222222222222222222222222222222",
		Name:       "Cooperativa Mangue Limpo",
		TaxID:      "12.345.678/0001-99",
		PersonalID: "123.456.789-00",
		Email:      "contato@manguelimpo.org",
	}
	require.NoError(t, coop.Validate())

	missing := coop
	missing.Email = ""
	require.ErrorIs(t, missing.Validate(), ErrValidation)

	malformed := coop
	malformed.Vault = "not-an-address"
	require.ErrorIs(t, malformed.Validate(), ErrValidation)
}
