package state

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/summerfi/sumr-gov/config"
	"github.com/summerfi/sumr-gov/decay"
	"github.com/summerfi/sumr-gov/tx"
)

const day = uint64(86400)

func TestRefreshNoopInsideWindow(t *testing.T) {
	s := newTestState(t, nil)
	a := addTestAccount(t, s, 1000)

	params, err := s.Params()
	require.NoError(t, err)
	s.SetTime(testGenesisTime + params.DecayFreeWindow)

	ev, err := s.RefreshDecay(a.Index)
	require.NoError(t, err)
	require.Nil(t, ev)
	require.Equal(t, decay.WAD, a.DecayFactor)
}

func TestRefreshIdempotentSameInstant(t *testing.T) {
	s := newTestState(t, nil)
	a := addTestAccount(t, s, 1000)

	params, err := s.Params()
	require.NoError(t, err)
	s.SetTime(testGenesisTime + params.DecayFreeWindow + day)

	ev, err := s.RefreshDecay(a.Index)
	require.NoError(t, err)
	require.NotNil(t, ev)
	first := a.DecayFactor
	require.Less(t, first, decay.WAD)

	// the refresh re-opened the window, a second call at the same instant
	// changes nothing
	_, err = s.RefreshDecay(a.Index)
	require.NoError(t, err)
	require.Equal(t, first, a.DecayFactor)
}

func TestRefreshChargesOnlyPastWindowEnd(t *testing.T) {
	s := newTestState(t, nil)
	a := addTestAccount(t, s, 1000)

	params, err := s.Params()
	require.NoError(t, err)
	s.SetTime(testGenesisTime + params.DecayFreeWindow + day)
	_, err = s.RefreshDecay(a.Index)
	require.NoError(t, err)

	want := decay.Factor(decay.WAD, day, params.DecayRatePerYear, params.DecayFunction)
	require.Equal(t, want, a.DecayFactor)
}

func TestDelegatedPoolReflectsDelegatorDecay(t *testing.T) {
	s := newTestState(t, nil)
	b := addTestAccount(t, s, 100_000_000)
	a := addTestAccount(t, s, 200_000_000)

	_, err := s.Delegate(&tx.DelegateTx{Delegatee: b.Index}, a.Index, false)
	require.NoError(t, err)
	votes, err := s.GetVotes(b.Index)
	require.NoError(t, err)
	require.Equal(t, uint64(300_000_000), votes)

	params, err := s.Params()
	require.NoError(t, err)
	s.SetTime(testGenesisTime + params.DecayFreeWindow + day)
	_, err = s.RefreshDecay(a.Index)
	require.NoError(t, err)

	// one day at 10%/year linear: 200e6 * (1 - 0.10/365.25)
	votes, err = s.GetVotes(b.Index)
	require.NoError(t, err)
	require.Equal(t, uint64(100_000_000+199_945_242), votes)

	// the delegate's own factor is untouched
	factor, err := s.GetFactor(b.Index)
	require.NoError(t, err)
	require.Equal(t, decay.WAD, factor)
}

func TestSmoothedFactorFollowsRefresh(t *testing.T) {
	cfg := config.DefaultGovConfig()
	cfg.SmoothingAlpha = decay.WAD / 5
	s := newTestState(t, cfg)
	a := addTestAccount(t, s, 1000)

	require.NoError(t, s.UpdateSmoothedFactor(a.Index))
	require.Equal(t, decay.WAD, a.SmoothedFactor)

	params, err := s.Params()
	require.NoError(t, err)
	s.SetTime(testGenesisTime + params.DecayFreeWindow + 30*day)
	_, err = s.TouchAccount(a.Index)
	require.NoError(t, err)

	want := decay.Smooth(a.DecayFactor, decay.WAD, cfg.SmoothingAlpha)
	require.Equal(t, want, a.SmoothedFactor)
	require.Greater(t, a.SmoothedFactor, a.DecayFactor)
}

func TestRefreshTxRequiresController(t *testing.T) {
	s := newTestState(t, nil)
	ctrl := addTestAccount(t, s, 1000)
	target := addTestAccount(t, s, 1000)

	_, err := s.Refresh(&tx.RefreshTx{Target: target.Index}, ctrl.Index, false)
	require.ErrorIs(t, err, ErrNotController)

	require.NoError(t, s.setDecayController(ctrl.Index, true))
	params, err := s.Params()
	require.NoError(t, err)
	s.SetTime(testGenesisTime + params.DecayFreeWindow + day)

	ev, err := s.Refresh(&tx.RefreshTx{Target: target.Index}, ctrl.Index, false)
	require.NoError(t, err)
	require.NotNil(t, ev)
	require.Less(t, target.DecayFactor, decay.WAD)
	require.Equal(t, uint64(1), ctrl.Nonce)

	// the explicit refresh runs the full pre-operation sequence, so the
	// stored EMA is seeded from the freshly decayed factor
	require.Equal(t, target.DecayFactor, target.SmoothedFactor)

	// revoking the capability closes the door again
	require.NoError(t, s.setDecayController(ctrl.Index, false))
	_, err = s.Refresh(&tx.RefreshTx{Target: target.Index}, ctrl.Index, false)
	require.ErrorIs(t, err, ErrNotController)
}
