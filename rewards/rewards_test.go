package rewards

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/summerfi/sumr-gov/decay"
	"github.com/summerfi/sumr-gov/state"
)

const alpha = decay.WAD / 5

var errNoAccount = errors.New("no such account")

// fakeAccounting returns canned account records keyed by index.
type fakeAccounting map[uint64]*state.Account

func (f fakeAccounting) GetAccount(idx uint64) (*state.Account, error) {
	a, ok := f[idx]
	if !ok {
		return nil, errNoAccount
	}
	return a, nil
}

func TestSmoothedWeightDerivesFreshly(t *testing.T) {
	// unsmoothed account at full factor weighs its full stake
	a := &state.Account{Staked: 1000, DecayFactor: decay.WAD}
	require.Equal(t, uint64(1000), SmoothedWeight(a, alpha))

	// raw decay shows up immediately even when no EMA update ever ran:
	// the uninitialized EMA passes the raw factor straight through
	a = &state.Account{Staked: 1000, DecayFactor: decay.WAD / 2}
	require.Equal(t, uint64(500), SmoothedWeight(a, alpha))

	// with a stored EMA the weight blends raw and stored:
	// 0.2*0.5 + 0.8*1.0 = 0.9
	a = &state.Account{Staked: 1000, DecayFactor: decay.WAD / 2, SmoothedFactor: decay.WAD}
	require.Equal(t, uint64(900), SmoothedWeight(a, alpha))

	require.Equal(t, uint64(0), SmoothedWeight(&state.Account{DecayFactor: decay.WAD}, alpha))
}

func TestEarnedUsesCurrentRawFactor(t *testing.T) {
	// a year of idling at 10%/yr decayed the raw factor to 0.9 with no EMA
	// update in between; accrual must see the dip, not the full stake
	acct := fakeAccounting{
		1: {Staked: 1000, DecayFactor: decay.WAD - decay.WAD/10},
	}
	c := NewCalculator(acct, 1_000_000, alpha)

	got, err := c.Earned(1, 0, decay.SecondsPerYear, 1000)
	require.NoError(t, err)
	require.Equal(t, uint64(900_000), got)

	// Earned is a pure view: the stored EMA stays uninitialized
	require.Equal(t, uint64(0), acct[1].SmoothedFactor)
}

func TestEarnedProportional(t *testing.T) {
	acct := fakeAccounting{
		1: {Staked: 3000, DecayFactor: decay.WAD},
		2: {Staked: 1000, DecayFactor: decay.WAD},
	}
	total := SmoothedWeight(acct[1], alpha) + SmoothedWeight(acct[2], alpha)
	c := NewCalculator(acct, 4_000_000, alpha)

	// over a full year the emission splits 3:1
	e1, err := c.Earned(1, 0, decay.SecondsPerYear, total)
	require.NoError(t, err)
	e2, err := c.Earned(2, 0, decay.SecondsPerYear, total)
	require.NoError(t, err)
	require.Equal(t, uint64(3_000_000), e1)
	require.Equal(t, uint64(1_000_000), e2)

	// half the interval, half the accrual
	h1, err := c.Earned(1, 0, decay.SecondsPerYear/2, total)
	require.NoError(t, err)
	require.Equal(t, uint64(1_500_000), h1)
}

func TestEarnedSmoothingDampsWeight(t *testing.T) {
	// account 1 carries a decayed raw factor against a full stored EMA, so
	// its fresh smoothed factor is 0.2*0.5 + 0.8*1.0 = 0.9
	acct := fakeAccounting{
		1: {Staked: 1000, DecayFactor: decay.WAD / 2, SmoothedFactor: decay.WAD},
		2: {Staked: 1000, DecayFactor: decay.WAD},
	}
	total := SmoothedWeight(acct[1], alpha) + SmoothedWeight(acct[2], alpha)
	require.Equal(t, uint64(1900), total)

	c := NewCalculator(acct, 1_900_000, alpha)
	e1, err := c.Earned(1, 0, decay.SecondsPerYear, total)
	require.NoError(t, err)
	e2, err := c.Earned(2, 0, decay.SecondsPerYear, total)
	require.NoError(t, err)
	require.Equal(t, uint64(900_000), e1)
	require.Equal(t, uint64(1_000_000), e2)
}

func TestEarnedEdges(t *testing.T) {
	acct := fakeAccounting{1: {Staked: 1000, DecayFactor: decay.WAD}}
	c := NewCalculator(acct, 1_000_000, alpha)

	_, err := c.Earned(1, 100, 50, 1000)
	require.ErrorIs(t, err, ErrBadInterval)

	// empty interval and empty pool both accrue nothing
	got, err := c.Earned(1, 100, 100, 1000)
	require.NoError(t, err)
	require.Equal(t, uint64(0), got)

	got, err = c.Earned(1, 0, decay.SecondsPerYear, 0)
	require.NoError(t, err)
	require.Equal(t, uint64(0), got)

	// accounting errors surface
	_, err = c.Earned(9, 0, decay.SecondsPerYear, 1000)
	require.ErrorIs(t, err, errNoAccount)

	// an unstaked account accrues nothing
	acct[2] = &state.Account{DecayFactor: decay.WAD}
	got, err = c.Earned(2, 0, decay.SecondsPerYear, 1000)
	require.NoError(t, err)
	require.Equal(t, uint64(0), got)
}
