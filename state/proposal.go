package state

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/summerfi/sumr-gov/tx"
	"github.com/summerfi/sumr-gov/types"
)

func (s *State) putProposal(p *types.Proposal) error {
	val, err := json.Marshal(p)
	if err != nil {
		return err
	}
	s.stageSet(fmt.Sprintf(KeyProposalBody, p.Id.Bytes()), val)
	return nil
}

// GetProposal loads a proposal by its content-derived id.
func (s *State) GetProposal(id common.Hash) (*types.Proposal, error) {
	val, err := s.stagedGet(fmt.Sprintf(KeyProposalBody, id.Bytes()))
	if err != nil {
		return nil, err
	}
	if val == nil {
		return nil, ErrProposalNoexists
	}
	p := new(types.Proposal)
	if err := json.Unmarshal(val, p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetProposalByIndex loads a proposal by its chain-local sequence number.
func (s *State) GetProposalByIndex(index uint64) (*types.Proposal, error) {
	val, err := s.stagedGet(fmt.Sprintf(KeyProposalSeq, index))
	if err != nil {
		return nil, err
	}
	if val == nil {
		return nil, ErrProposalNoexists
	}
	return s.GetProposal(common.BytesToHash(val))
}

func (s *State) ProposalCount() uint64 {
	return s.proposalCount
}

// StatusOf derives the effective lifecycle status from the stored base status
// and the chain clock. Only Pending, Queued, Executed and Cancelled are ever
// stored; Active, Defeated, Succeeded and Expired are views.
func (s *State) StatusOf(p *types.Proposal) types.ProposalStatus {
	now := s.header.Time
	switch p.Status {
	case types.ProposalStatusExecuted, types.ProposalStatusCancelled:
		return p.Status
	case types.ProposalStatusQueued:
		if now > p.Eta+s.cfg.GracePeriod {
			return types.ProposalStatusExpired
		}
		return types.ProposalStatusQueued
	}
	if now < p.VoteStart {
		return types.ProposalStatusPending
	}
	if now <= p.VoteEnd {
		return types.ProposalStatusActive
	}
	if p.ForVotes+p.AbstainVotes >= s.cfg.Quorum && p.ForVotes > p.AgainstVotes {
		return types.ProposalStatusSucceeded
	}
	return types.ProposalStatusDefeated
}

// meetsThreshold reports whether idx commanded at least the proposal
// threshold of voting weight as of the last finalized instant.
func (s *State) meetsThreshold(idx uint64) (bool, error) {
	if s.header.Time == 0 {
		return false, nil
	}
	votes, err := s.GetPastVotes(idx, s.header.Time-1)
	if err != nil {
		return false, err
	}
	return votes >= s.cfg.ProposalThreshold, nil
}

// Propose creates a new proposal on the hub. The proposer must command
// threshold voting weight or hold an active guardian seat.
func (s *State) Propose(ptx *tx.ProposeTx, caller uint64, checkOnly bool) (event *types.EventProposalCreated, err error) {
	if !s.cfg.Hub {
		return nil, ErrHubOnly
	}
	n := len(ptx.Targets)
	if n == 0 || len(ptx.Values) != n || len(ptx.Calldatas) != n {
		return nil, tx.ErrInvalidTx
	}
	a, err := s.GetAccount(caller)
	if err != nil {
		return nil, err
	}
	descHash := types.HashDescription(ptx.Description)
	id := types.HashProposal(ptx.Targets, ptx.Values, ptx.Calldatas, descHash)
	if _, err := s.GetProposal(id); err == nil {
		return nil, ErrProposalAlreadyExists
	} else if err != ErrProposalNoexists {
		return nil, err
	}
	ok, err := s.meetsThreshold(caller)
	if err != nil && err != ErrFutureLookup {
		return nil, err
	}
	if !ok {
		guardian, gerr := s.IsActiveGuardian(a.Address())
		if gerr != nil {
			return nil, gerr
		}
		if !guardian {
			return nil, ErrBelowThreshold
		}
	}
	if checkOnly {
		return nil, nil
	}

	if _, err := s.TouchAccount(caller); err != nil {
		return nil, err
	}

	now := s.header.Time
	p := &types.Proposal{
		Id:              id,
		Index:           s.proposalCount,
		Proposer:        caller,
		ProposerAddress: a.Address(),
		Targets:         ptx.Targets,
		Values:          ptx.Values,
		Calldatas:       ptx.Calldatas,
		Description:     ptx.Description,
		DescriptionHash: descHash,
		Status:          types.ProposalStatusPending,
		CreatedAt:       now,
		VoteStart:       now + s.cfg.VotingDelay,
		VoteEnd:         now + s.cfg.VotingDelay + s.cfg.VotingPeriod,
	}
	if err := s.putProposal(p); err != nil {
		return nil, err
	}
	s.stageSet(fmt.Sprintf(KeyProposalSeq, p.Index), id.Bytes())
	s.proposalCount += 1
	s.countDirty = true

	a.Nonce += 1
	s.markModified(a, ModifiedFlagMod)

	event = &types.EventProposalCreated{
		Id:              id.Hex(),
		Index:           p.Index,
		Proposer:        caller,
		ProposerAddress: p.ProposerAddress,
		Description:     p.Description,
		VoteStart:       p.VoteStart,
		VoteEnd:         p.VoteEnd,
	}
	return event, nil
}

// GetVoteReceipt returns the stored ballot for (proposal, voter), or
// ErrNotFound when the voter has not voted.
func (s *State) GetVoteReceipt(id common.Hash, voter uint64) (*types.VoteReceipt, error) {
	val, err := s.stagedGet(fmt.Sprintf(KeyVoteReceipt, id.Bytes(), voter))
	if err != nil {
		return nil, err
	}
	if val == nil {
		return nil, ErrNotFound
	}
	r := new(types.VoteReceipt)
	if err := json.Unmarshal(val, r); err != nil {
		return nil, err
	}
	return r, nil
}

// CastVote records a ballot on an active proposal. The voter's decay is
// refreshed first, so the counted weight is its pooled votes as of this
// block.
func (s *State) CastVote(vtx *tx.VoteTx, caller uint64, checkOnly bool) (event *types.EventVoteCast, err error) {
	if !s.cfg.Hub {
		return nil, ErrHubOnly
	}
	if vtx.Support > uint8(types.VoteAbstain) {
		return nil, tx.ErrInvalidTx
	}
	p, err := s.GetProposal(vtx.ProposalId)
	if err != nil {
		return nil, err
	}
	if s.StatusOf(p) != types.ProposalStatusActive {
		return nil, ErrProposalNotActive
	}
	a, err := s.GetAccount(caller)
	if err != nil {
		return nil, err
	}
	if _, err := s.GetVoteReceipt(vtx.ProposalId, caller); err == nil {
		return nil, ErrAlreadyVoted
	} else if err != ErrNotFound {
		return nil, err
	}
	if checkOnly {
		return nil, nil
	}

	if _, err := s.TouchAccount(caller); err != nil {
		return nil, err
	}
	weight := a.Votes

	switch types.VoteSupport(vtx.Support) {
	case types.VoteFor:
		p.ForVotes += weight
	case types.VoteAgainst:
		p.AgainstVotes += weight
	case types.VoteAbstain:
		p.AbstainVotes += weight
	}
	if err := s.putProposal(p); err != nil {
		return nil, err
	}
	receipt := &types.VoteReceipt{
		Proposal:     vtx.ProposalId,
		Voter:        caller,
		VoterAddress: a.Address(),
		Support:      types.VoteSupport(vtx.Support),
		Weight:       weight,
		Height:       s.header.Height,
	}
	val, err := json.Marshal(receipt)
	if err != nil {
		return nil, err
	}
	s.stageSet(fmt.Sprintf(KeyVoteReceipt, vtx.ProposalId.Bytes(), caller), val)

	a.Nonce += 1
	s.markModified(a, ModifiedFlagMod)

	event = &types.EventVoteCast{
		Id:           vtx.ProposalId.Hex(),
		Voter:        caller,
		VoterAddress: a.Address(),
		Support:      uint64(vtx.Support),
		Weight:       weight,
	}
	return event, nil
}

// Queue moves a succeeded proposal into the timelock.
func (s *State) Queue(qtx *tx.QueueTx, caller uint64, checkOnly bool) (event *types.EventProposalStatus, err error) {
	if !s.cfg.Hub {
		return nil, ErrHubOnly
	}
	p, err := s.GetProposal(qtx.ProposalId)
	if err != nil {
		return nil, err
	}
	if s.StatusOf(p) != types.ProposalStatusSucceeded {
		return nil, ErrProposalWrongStatus
	}
	a, err := s.GetAccount(caller)
	if err != nil {
		return nil, err
	}
	if checkOnly {
		return nil, nil
	}

	p.Status = types.ProposalStatusQueued
	p.Eta = s.header.Time + s.cfg.TimelockDelay
	if err := s.putProposal(p); err != nil {
		return nil, err
	}
	a.Nonce += 1
	s.markModified(a, ModifiedFlagMod)

	event = &types.EventProposalStatus{
		Id:     p.Id.Hex(),
		Status: uint64(types.ProposalStatusQueued),
		Eta:    p.Eta,
	}
	return event, nil
}

// Execute runs a queued proposal whose timelock has elapsed and whose grace
// period has not. Each call in the batch is applied in order; the first
// failure aborts the whole transaction.
func (s *State) Execute(etx *tx.ExecuteTx, caller uint64, checkOnly bool) (event *types.EventProposalStatus, err error) {
	p, err := s.GetProposal(etx.ProposalId)
	if err != nil {
		return nil, err
	}
	if s.StatusOf(p) != types.ProposalStatusQueued {
		return nil, ErrProposalWrongStatus
	}
	if s.header.Time < p.Eta {
		return nil, ErrTimelockNotReady
	}
	a, err := s.GetAccount(caller)
	if err != nil {
		return nil, err
	}
	if checkOnly {
		return nil, nil
	}

	if err := s.executeCalls(p); err != nil {
		return nil, err
	}
	p.Status = types.ProposalStatusExecuted
	if err := s.putProposal(p); err != nil {
		return nil, err
	}
	a.Nonce += 1
	s.markModified(a, ModifiedFlagMod)

	event = &types.EventProposalStatus{
		Id:     p.Id.Hex(),
		Status: uint64(types.ProposalStatusExecuted),
		Eta:    p.Eta,
	}
	return event, nil
}

// Cancel aborts a proposal that has not yet executed. Permitted for the
// proposer, for an active guardian, and for anyone once the proposer has
// dropped below the proposal threshold.
func (s *State) Cancel(ctx *tx.CancelTx, caller uint64, checkOnly bool) (event *types.EventProposalStatus, err error) {
	p, err := s.GetProposal(ctx.ProposalId)
	if err != nil {
		return nil, err
	}
	switch s.StatusOf(p) {
	case types.ProposalStatusPending, types.ProposalStatusActive,
		types.ProposalStatusQueued:
	default:
		return nil, ErrProposalWrongStatus
	}
	a, err := s.GetAccount(caller)
	if err != nil {
		return nil, err
	}
	if caller != p.Proposer {
		guardian, err := s.IsActiveGuardian(a.Address())
		if err != nil {
			return nil, err
		}
		if !guardian {
			ok, err := s.meetsThreshold(p.Proposer)
			if err != nil && err != ErrFutureLookup {
				return nil, err
			}
			if ok {
				return nil, ErrNotAuthorized
			}
		}
	}
	if checkOnly {
		return nil, nil
	}

	p.Status = types.ProposalStatusCancelled
	if err := s.putProposal(p); err != nil {
		return nil, err
	}
	a.Nonce += 1
	s.markModified(a, ModifiedFlagMod)

	event = &types.EventProposalStatus{
		Id:     p.Id.Hex(),
		Status: uint64(types.ProposalStatusCancelled),
		Eta:    p.Eta,
	}
	return event, nil
}

// IsActiveGuardian reports whether addr holds an unexpired guardian seat.
func (s *State) IsActiveGuardian(addr string) (bool, error) {
	val, err := s.stagedGet(fmt.Sprintf(KeyGuardian, addr))
	if err != nil {
		return false, err
	}
	if len(val) != 8 {
		return false, nil
	}
	expiry := binary.BigEndian.Uint64(val)
	return expiry > s.header.Time, nil
}

func (s *State) setGuardian(addr string, expiry uint64) {
	val := make([]byte, 8)
	binary.BigEndian.PutUint64(val, expiry)
	s.stageSet(fmt.Sprintf(KeyGuardian, addr), val)
}
