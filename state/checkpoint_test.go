package state

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/summerfi/sumr-gov/tx"
)

func TestGetPastVotesRejectsFutureLookup(t *testing.T) {
	s := newTestState(t, nil)
	a := addTestAccount(t, s, 100)

	_, err := s.GetPastVotes(a.Index, s.Now())
	require.ErrorIs(t, err, ErrFutureLookup)
	_, err = s.GetPastVotes(a.Index, s.Now()+100)
	require.ErrorIs(t, err, ErrFutureLookup)
}

func TestGetPastVotesBeforeFirstCheckpoint(t *testing.T) {
	s := newTestState(t, nil)
	a := addTestAccount(t, s, 100)
	s.SetTime(testGenesisTime + 10)

	votes, err := s.GetPastVotes(a.Index, testGenesisTime-1)
	require.NoError(t, err)
	require.Equal(t, uint64(0), votes)
}

func TestGetPastVotesPicksLatestAtOrBefore(t *testing.T) {
	s := newTestState(t, nil)
	b := addTestAccount(t, s, 100)
	a := addTestAccount(t, s, 50)

	// t0: b alone holds 100
	t1 := testGenesisTime + 100
	s.SetTime(t1)
	delegate(t, s, a.Index, b.Index) // b: 150

	t2 := testGenesisTime + 200
	s.SetTime(t2)
	delegate(t, s, a.Index, NoDelegate) // b: 100 again

	s.SetTime(testGenesisTime + 300)

	for _, tc := range []struct {
		ts   uint64
		want uint64
	}{
		{testGenesisTime, 100},
		{t1 - 1, 100},
		{t1, 150},
		{t2 - 1, 150},
		{t2, 100},
		{t2 + 50, 100},
	} {
		votes, err := s.GetPastVotes(b.Index, tc.ts)
		require.NoError(t, err)
		require.Equal(t, tc.want, votes, "ts=%v", tc.ts)
	}
}

func TestSameBlockChangesMergeIntoOneCheckpoint(t *testing.T) {
	s := newTestState(t, nil)
	b := addTestAccount(t, s, 100)
	a := addTestAccount(t, s, 50)
	c := addTestAccount(t, s, 25)

	n := b.Checkpoints
	s.SetTime(testGenesisTime + 100)
	delegate(t, s, a.Index, b.Index)
	delegate(t, s, c.Index, b.Index)

	// two vote changes at one timestamp occupy a single slot
	require.Equal(t, n+1, b.Checkpoints)

	s.SetTime(testGenesisTime + 200)
	votes, err := s.GetPastVotes(b.Index, testGenesisTime+100)
	require.NoError(t, err)
	require.Equal(t, uint64(175), votes)
}

func TestCheckpointsSurviveFlush(t *testing.T) {
	s := newTestState(t, nil)
	b := addTestAccount(t, s, 100)
	a := addTestAccount(t, s, 50)

	t1 := testGenesisTime + 100
	s.SetTime(t1)
	delegate(t, s, a.Index, b.Index)
	_, err := s.Update()
	require.NoError(t, err)

	s.SetTime(t1 + 100)
	votes, err := s.GetPastVotes(b.Index, t1)
	require.NoError(t, err)
	require.Equal(t, uint64(150), votes)
	votes, err = s.GetPastVotes(b.Index, t1-1)
	require.NoError(t, err)
	require.Equal(t, uint64(100), votes)
}

func TestVotingOpsDoNotCheckpointWithoutChange(t *testing.T) {
	s := newTestState(t, nil)
	a := addTestAccount(t, s, 100)
	n := a.Checkpoints
	require.NoError(t, s.Stake(&tx.StakeTx{Amount: 40}, a.Index, false))
	require.Equal(t, n, a.Checkpoints)
}
