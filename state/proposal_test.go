package state

import (
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/summerfi/sumr-gov/decay"
	"github.com/summerfi/sumr-gov/tx"
	"github.com/summerfi/sumr-gov/types"
)

func rateCall(rate uint64) []byte {
	return []byte(fmt.Sprintf(`{"action":"set_decay_rate","rate":%v}`, rate))
}

func proposeTx(desc string) *tx.ProposeTx {
	return &tx.ProposeTx{
		Targets:     []common.Address{ParamsTarget},
		Values:      []uint64{0},
		Calldatas:   [][]byte{rateCall(decay.WAD / 20)},
		Description: desc,
	}
}

func mustPropose(t *testing.T, s *State, proposer uint64, desc string) common.Hash {
	t.Helper()
	ev, err := s.Propose(proposeTx(desc), proposer, false)
	require.NoError(t, err)
	require.NotNil(t, ev)
	return common.HexToHash(ev.Id)
}

func TestProposeBelowThreshold(t *testing.T) {
	s := newTestState(t, nil)
	poor := addTestAccount(t, s, 10)
	s.SetTime(testGenesisTime + 10)

	_, err := s.Propose(proposeTx("d"), poor.Index, false)
	require.ErrorIs(t, err, ErrBelowThreshold)
}

func TestProposeDeterministicId(t *testing.T) {
	s := newTestState(t, nil)
	rich := addTestAccount(t, s, 10_000_000)
	s.SetTime(testGenesisTime + 10)

	id := mustPropose(t, s, rich.Index, "d")
	ptx := proposeTx("d")
	want := types.HashProposal(ptx.Targets, ptx.Values, ptx.Calldatas, types.HashDescription("d"))
	require.Equal(t, want, id)

	// identical content is a duplicate
	_, err := s.Propose(proposeTx("d"), rich.Index, false)
	require.ErrorIs(t, err, ErrProposalAlreadyExists)

	p, err := s.GetProposal(id)
	require.NoError(t, err)
	require.Equal(t, types.ProposalStatusPending, p.Status)
	require.Equal(t, s.Now()+s.cfg.VotingDelay, p.VoteStart)
	require.Equal(t, p.VoteStart+s.cfg.VotingPeriod, p.VoteEnd)

	byIdx, err := s.GetProposalByIndex(p.Index)
	require.NoError(t, err)
	require.Equal(t, id, byIdx.Id)
	require.Equal(t, uint64(1), s.ProposalCount())
}

func TestProposeMalformedBatch(t *testing.T) {
	s := newTestState(t, nil)
	rich := addTestAccount(t, s, 10_000_000)
	s.SetTime(testGenesisTime + 10)

	bad := proposeTx("d")
	bad.Values = nil
	_, err := s.Propose(bad, rich.Index, false)
	require.ErrorIs(t, err, tx.ErrInvalidTx)

	empty := &tx.ProposeTx{Description: "d"}
	_, err = s.Propose(empty, rich.Index, false)
	require.ErrorIs(t, err, tx.ErrInvalidTx)
}

func TestGuardianMayProposeBelowThreshold(t *testing.T) {
	s := newTestState(t, nil)
	poor := addTestAccount(t, s, 10)
	s.SetTime(testGenesisTime + 10)
	s.setGuardian(poor.Address(), s.Now()+3600)

	id := mustPropose(t, s, poor.Index, "d")
	_, err := s.GetProposal(id)
	require.NoError(t, err)

	// an expired seat does not count
	s.SetTime(s.Now() + 7200)
	_, err = s.Propose(proposeTx("d2"), poor.Index, false)
	require.ErrorIs(t, err, ErrBelowThreshold)
}

func TestVoteLifecycle(t *testing.T) {
	s := newTestState(t, nil)
	rich := addTestAccount(t, s, 10_000_000)
	voter := addTestAccount(t, s, 2_000_000)
	s.SetTime(testGenesisTime + 10)
	id := mustPropose(t, s, rich.Index, "d")

	// pending until the voting delay elapses
	_, err := s.CastVote(&tx.VoteTx{ProposalId: id, Support: uint8(types.VoteFor)}, voter.Index, false)
	require.ErrorIs(t, err, ErrProposalNotActive)

	s.SetTime(s.Now() + s.cfg.VotingDelay)
	ev, err := s.CastVote(&tx.VoteTx{ProposalId: id, Support: uint8(types.VoteFor)}, voter.Index, false)
	require.NoError(t, err)
	require.Equal(t, uint64(2_000_000), ev.Weight)

	_, err = s.CastVote(&tx.VoteTx{ProposalId: id, Support: uint8(types.VoteAgainst)}, voter.Index, false)
	require.ErrorIs(t, err, ErrAlreadyVoted)

	r, err := s.GetVoteReceipt(id, voter.Index)
	require.NoError(t, err)
	require.Equal(t, types.VoteFor, r.Support)
	require.Equal(t, uint64(2_000_000), r.Weight)

	_, err = s.CastVote(&tx.VoteTx{ProposalId: id, Support: 3}, rich.Index, false)
	require.ErrorIs(t, err, tx.ErrInvalidTx)

	p, err := s.GetProposal(id)
	require.NoError(t, err)
	require.Equal(t, uint64(2_000_000), p.ForVotes)

	// after the voting period the ballot box is closed
	s.SetTime(p.VoteEnd + 1)
	_, err = s.CastVote(&tx.VoteTx{ProposalId: id, Support: uint8(types.VoteFor)}, rich.Index, false)
	require.ErrorIs(t, err, ErrProposalNotActive)
	require.Equal(t, types.ProposalStatusSucceeded, s.StatusOf(p))
}

func TestQuorumRules(t *testing.T) {
	s := newTestState(t, nil)
	rich := addTestAccount(t, s, 10_000_000)
	against := addTestAccount(t, s, 600_000)
	abstain := addTestAccount(t, s, 900_000)
	forv := addTestAccount(t, s, 700_000)
	s.SetTime(testGenesisTime + 10)
	id := mustPropose(t, s, rich.Index, "d")
	s.SetTime(s.Now() + s.cfg.VotingDelay)

	vote := func(idx uint64, support types.VoteSupport) {
		_, err := s.CastVote(&tx.VoteTx{ProposalId: id, Support: uint8(support)}, idx, false)
		require.NoError(t, err)
	}
	vote(forv.Index, types.VoteFor)
	vote(abstain.Index, types.VoteAbstain)
	vote(against.Index, types.VoteAgainst)

	p, err := s.GetProposal(id)
	require.NoError(t, err)
	s.SetTime(p.VoteEnd + 1)

	// 700k for + 900k abstain meets the 1m quorum, and for > against
	require.Equal(t, types.ProposalStatusSucceeded, s.StatusOf(p))

	// without the abstain weight quorum fails
	p.AbstainVotes = 0
	require.Equal(t, types.ProposalStatusDefeated, s.StatusOf(p))

	// a for/against tie loses
	p.AbstainVotes = 900_000
	p.AgainstVotes = p.ForVotes
	require.Equal(t, types.ProposalStatusDefeated, s.StatusOf(p))
}

func passProposal(t *testing.T, s *State, id common.Hash, voter uint64) *types.Proposal {
	t.Helper()
	p, err := s.GetProposal(id)
	require.NoError(t, err)
	s.SetTime(p.VoteStart)
	_, err = s.CastVote(&tx.VoteTx{ProposalId: id, Support: uint8(types.VoteFor)}, voter, false)
	require.NoError(t, err)
	s.SetTime(p.VoteEnd + 1)
	p, err = s.GetProposal(id)
	require.NoError(t, err)
	return p
}

func TestQueueExecuteTimelock(t *testing.T) {
	s := newTestState(t, nil)
	rich := addTestAccount(t, s, 10_000_000)
	s.SetTime(testGenesisTime + 10)
	id := mustPropose(t, s, rich.Index, "d")

	// cannot queue before the vote settles
	_, err := s.Queue(&tx.QueueTx{ProposalId: id}, rich.Index, false)
	require.ErrorIs(t, err, ErrProposalWrongStatus)

	passProposal(t, s, id, rich.Index)
	ev, err := s.Queue(&tx.QueueTx{ProposalId: id}, rich.Index, false)
	require.NoError(t, err)
	require.Equal(t, s.Now()+s.cfg.TimelockDelay, ev.Eta)

	_, err = s.Execute(&tx.ExecuteTx{ProposalId: id}, rich.Index, false)
	require.ErrorIs(t, err, ErrTimelockNotReady)

	s.SetTime(ev.Eta)
	_, err = s.Execute(&tx.ExecuteTx{ProposalId: id}, rich.Index, false)
	require.NoError(t, err)

	p, err := s.GetProposal(id)
	require.NoError(t, err)
	require.Equal(t, types.ProposalStatusExecuted, p.Status)

	params, err := s.Params()
	require.NoError(t, err)
	require.Equal(t, decay.WAD/20, params.DecayRatePerYear)

	// executing twice is refused
	_, err = s.Execute(&tx.ExecuteTx{ProposalId: id}, rich.Index, false)
	require.ErrorIs(t, err, ErrProposalWrongStatus)
}

func TestQueuedProposalExpires(t *testing.T) {
	s := newTestState(t, nil)
	rich := addTestAccount(t, s, 10_000_000)
	s.SetTime(testGenesisTime + 10)
	id := mustPropose(t, s, rich.Index, "d")
	passProposal(t, s, id, rich.Index)
	ev, err := s.Queue(&tx.QueueTx{ProposalId: id}, rich.Index, false)
	require.NoError(t, err)

	s.SetTime(ev.Eta + s.cfg.GracePeriod + 1)
	p, err := s.GetProposal(id)
	require.NoError(t, err)
	require.Equal(t, types.ProposalStatusExpired, s.StatusOf(p))
	_, err = s.Execute(&tx.ExecuteTx{ProposalId: id}, rich.Index, false)
	require.ErrorIs(t, err, ErrProposalWrongStatus)
}

func TestExecuteRejectsUnknownAction(t *testing.T) {
	s := newTestState(t, nil)
	rich := addTestAccount(t, s, 10_000_000)
	s.SetTime(testGenesisTime + 10)

	ptx := proposeTx("d")
	ptx.Calldatas = [][]byte{[]byte(`{"action":"mint_tokens"}`)}
	ev, err := s.Propose(ptx, rich.Index, false)
	require.NoError(t, err)
	id := common.HexToHash(ev.Id)
	passProposal(t, s, id, rich.Index)
	qev, err := s.Queue(&tx.QueueTx{ProposalId: id}, rich.Index, false)
	require.NoError(t, err)
	s.SetTime(qev.Eta)

	_, err = s.Execute(&tx.ExecuteTx{ProposalId: id}, rich.Index, false)
	require.ErrorIs(t, err, ErrUnknownAction)

	// the failed execution leaves the proposal queued
	p, err := s.GetProposal(id)
	require.NoError(t, err)
	require.Equal(t, types.ProposalStatusQueued, p.Status)
}

func TestCancelAuthorization(t *testing.T) {
	s := newTestState(t, nil)
	rich := addTestAccount(t, s, 10_000_000)
	other := addTestAccount(t, s, 10)
	guardian := addTestAccount(t, s, 10)
	s.SetTime(testGenesisTime + 10)

	// proposer cancels its own pending proposal
	id := mustPropose(t, s, rich.Index, "one")
	_, err := s.Cancel(&tx.CancelTx{ProposalId: id}, rich.Index, false)
	require.NoError(t, err)
	p, err := s.GetProposal(id)
	require.NoError(t, err)
	require.Equal(t, types.ProposalStatusCancelled, p.Status)

	// a bystander cannot, while the proposer still holds threshold weight
	id = mustPropose(t, s, rich.Index, "two")
	_, err = s.Cancel(&tx.CancelTx{ProposalId: id}, other.Index, false)
	require.ErrorIs(t, err, ErrNotAuthorized)

	// a guardian can
	s.setGuardian(guardian.Address(), s.Now()+3600)
	_, err = s.Cancel(&tx.CancelTx{ProposalId: id}, guardian.Index, false)
	require.NoError(t, err)

	// once the proposer's weight drops below threshold, anyone can
	id = mustPropose(t, s, rich.Index, "three")
	delegate(t, s, rich.Index, other.Index)
	s.SetTime(s.Now() + 5)
	_, err = s.Cancel(&tx.CancelTx{ProposalId: id}, other.Index, false)
	require.NoError(t, err)

	// executed proposals are beyond cancellation
	p, err = s.GetProposal(id)
	require.NoError(t, err)
	p.Status = types.ProposalStatusExecuted
	require.NoError(t, s.putProposal(p))
	_, err = s.Cancel(&tx.CancelTx{ProposalId: id}, rich.Index, false)
	require.ErrorIs(t, err, ErrProposalWrongStatus)
}

func TestCancelRefusedOnceSucceeded(t *testing.T) {
	s := newTestState(t, nil)
	rich := addTestAccount(t, s, 10_000_000)
	s.SetTime(testGenesisTime + 10)

	id := mustPropose(t, s, rich.Index, "d")
	p := passProposal(t, s, id, rich.Index)
	require.Equal(t, types.ProposalStatusSucceeded, s.StatusOf(p))

	// a passed vote is final: even the proposer cannot cancel it, the
	// window closes until it is queued
	_, err := s.Cancel(&tx.CancelTx{ProposalId: id}, rich.Index, false)
	require.ErrorIs(t, err, ErrProposalWrongStatus)

	// queuing reopens cancellation (for the timelock period)
	_, err = s.Queue(&tx.QueueTx{ProposalId: id}, rich.Index, false)
	require.NoError(t, err)
	_, err = s.Cancel(&tx.CancelTx{ProposalId: id}, rich.Index, false)
	require.NoError(t, err)
}

func TestGovernanceActionsRoundtrip(t *testing.T) {
	s := newTestState(t, nil)
	target := addTestAccount(t, s, 100)
	s.SetTime(testGenesisTime + 10)

	calls := []struct {
		calldata []byte
		check    func(t *testing.T)
	}{
		{[]byte(`{"action":"set_decay_free_window","window":172800}`), func(t *testing.T) {
			params, err := s.Params()
			require.NoError(t, err)
			require.Equal(t, uint64(172800), params.DecayFreeWindow)
		}},
		{[]byte(`{"action":"set_decay_function","function":1}`), func(t *testing.T) {
			params, err := s.Params()
			require.NoError(t, err)
			require.Equal(t, decay.FunctionExponential, params.DecayFunction)
		}},
		{[]byte(`{"action":"set_trusted_remote","chainId":7,"remote":"0xabc"}`), func(t *testing.T) {
			remote, err := s.TrustedRemote(7)
			require.NoError(t, err)
			require.Equal(t, "0xabc", remote)
		}},
		{[]byte(fmt.Sprintf(`{"action":"set_decay_controller","account":%v,"grant":true}`, target.Index)), func(t *testing.T) {
			ok, err := s.HasDecayController(target.Index)
			require.NoError(t, err)
			require.True(t, ok)
		}},
		{[]byte(fmt.Sprintf(`{"action":"set_vesting_balance","account":%v,"amount":40}`, target.Index)), func(t *testing.T) {
			a, err := s.GetAccount(target.Index)
			require.NoError(t, err)
			require.Equal(t, uint64(40), a.VestingBalance)
			votes, err := s.GetVotes(target.Index)
			require.NoError(t, err)
			require.Equal(t, uint64(140), votes)
		}},
	}
	for _, c := range calls {
		require.NoError(t, s.applyCall(ParamsTarget, c.calldata))
		c.check(t)
	}

	// out-of-range values never reach the params
	require.ErrorIs(t, s.applyCall(ParamsTarget, rateCall(decay.WAD)), ErrDecayRateOutOfRange)
	require.ErrorIs(t, s.applyCall(common.HexToAddress("0xdead"), rateCall(1)), ErrUnknownTarget)

	// a guardian seat needs a real address
	require.ErrorIs(t, s.applyCall(ParamsTarget,
		[]byte(`{"action":"set_guardian","expiry":9999999999}`)), ErrZeroAddress)
	require.ErrorIs(t, s.applyCall(ParamsTarget,
		[]byte(fmt.Sprintf(`{"action":"set_guardian","address":"%s","expiry":9999999999}`, common.Address{}.Hex()))), ErrZeroAddress)
}
