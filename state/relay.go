package state

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/summerfi/sumr-gov/decay"
	"github.com/summerfi/sumr-gov/tx"
	"github.com/summerfi/sumr-gov/types"
)

// RelaySender is the governor endpoint identity a chain signs outbound relay
// messages with. Satellites register the hub's sender through the
// trusted-remote table and refuse everything else.
var RelaySender = common.HexToAddress("0x0000000000000000000000000000000000000002")

// HasRelaySent reports whether a proposal was already relayed to destChainId.
func (s *State) HasRelaySent(destChainId uint32, id common.Hash) (bool, error) {
	val, err := s.stagedGet(fmt.Sprintf(KeyRelaySent, destChainId, id.Bytes()))
	if err != nil {
		return false, err
	}
	return len(val) > 0, nil
}

func (s *State) markRelaySent(destChainId uint32, id common.Hash) {
	s.stageSet(fmt.Sprintf(KeyRelaySent, destChainId, id.Bytes()), []byte{1})
}

// HasRelayReceived reports whether an inbound message id was already applied.
func (s *State) HasRelayReceived(messageId common.Hash) (bool, error) {
	val, err := s.stagedGet(fmt.Sprintf(KeyRelayReceived, messageId.Bytes()))
	if err != nil {
		return false, err
	}
	return len(val) > 0, nil
}

func (s *State) markRelayReceived(messageId common.Hash) {
	s.stageSet(fmt.Sprintf(KeyRelayReceived, messageId.Bytes()), []byte{1})
}

// SendRelay builds the cross-chain message for an executed proposal and
// records the send. The returned message is handed to the relay transport by
// the caller; delivery order across messages is not guaranteed.
func (s *State) SendRelay(rtx *tx.RelayTx, caller uint64, checkOnly bool) (msg *types.RelayMessage, event *types.EventProposalRelay, err error) {
	if !s.cfg.Hub {
		return nil, nil, ErrHubOnly
	}
	p, err := s.GetProposal(rtx.ProposalId)
	if err != nil {
		return nil, nil, err
	}
	if s.StatusOf(p) != types.ProposalStatusExecuted {
		return nil, nil, ErrProposalWrongStatus
	}
	sent, err := s.HasRelaySent(rtx.DestChainId, rtx.ProposalId)
	if err != nil {
		return nil, nil, err
	}
	if sent {
		return nil, nil, ErrRelayReplay
	}
	a, err := s.GetAccount(caller)
	if err != nil {
		return nil, nil, err
	}
	if checkOnly {
		return nil, nil, nil
	}

	msg = &types.RelayMessage{
		SrcChainId:      s.cfg.EndpointChainId,
		SrcSender:       RelaySender,
		ProposalId:      p.Id,
		Targets:         p.Targets,
		Values:          p.Values,
		Calldatas:       p.Calldatas,
		DescriptionHash: p.DescriptionHash,
	}
	msg.MessageId = msg.ComputeMessageId()

	s.markRelaySent(rtx.DestChainId, p.Id)
	a.Nonce += 1
	s.markModified(a, ModifiedFlagMod)

	event = &types.EventProposalRelay{
		Id:        p.Id.Hex(),
		ChainId:   uint64(rtx.DestChainId),
		MessageId: msg.MessageId.Hex(),
		Sender:    msg.SrcSender.Hex(),
	}
	return msg, event, nil
}

// ReceiveRelay verifies and applies an inbound cross-chain message on a
// satellite. The origin must match the trusted-remote table, both the message
// id and the proposal id must recompute from the payload, and each message id
// applies at most once. The proposal was timelocked on the hub, so it skips
// local queuing and executes immediately.
func (s *State) ReceiveRelay(rtx *tx.RelayReceiveTx, caller uint64, checkOnly bool) (event *types.EventProposalRelay, err error) {
	if s.cfg.Hub {
		return nil, ErrSatelliteOnly
	}
	msg, err := types.DecodeRelayMessage(rtx.Payload)
	if err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	if rtx.SrcChainId != msg.SrcChainId {
		return nil, ErrRelayIdMismatch
	}
	trusted, err := s.TrustedRemote(msg.SrcChainId)
	if err != nil {
		return nil, err
	}
	if trusted == "" || !strings.EqualFold(trusted, msg.SrcSender.Hex()) ||
		!strings.EqualFold(rtx.SrcSender, msg.SrcSender.Hex()) {
		return nil, ErrUntrustedRemote
	}
	if msg.ComputeMessageId() != msg.MessageId {
		return nil, ErrRelayIdMismatch
	}
	if types.HashProposal(msg.Targets, msg.Values, msg.Calldatas, msg.DescriptionHash) != msg.ProposalId {
		return nil, ErrRelayIdMismatch
	}
	received, err := s.HasRelayReceived(msg.MessageId)
	if err != nil {
		return nil, err
	}
	if received {
		return nil, ErrRelayReplay
	}
	a, err := s.GetAccount(caller)
	if err != nil {
		return nil, err
	}
	if checkOnly {
		return nil, nil
	}

	s.markRelayReceived(msg.MessageId)

	p := &types.Proposal{
		Id:              msg.ProposalId,
		Index:           s.proposalCount,
		Proposer:        caller,
		ProposerAddress: msg.SrcSender.Hex(),
		Targets:         msg.Targets,
		Values:          msg.Values,
		Calldatas:       msg.Calldatas,
		DescriptionHash: msg.DescriptionHash,
		Status:          types.ProposalStatusQueued,
		CreatedAt:       s.header.Time,
		Eta:             s.header.Time,
		Relayed:         true,
	}
	if err := s.executeCalls(p); err != nil {
		return nil, err
	}
	p.Status = types.ProposalStatusExecuted
	if err := s.putProposal(p); err != nil {
		return nil, err
	}
	s.stageSet(fmt.Sprintf(KeyProposalSeq, p.Index), p.Id.Bytes())
	s.proposalCount += 1
	s.countDirty = true

	a.Nonce += 1
	s.markModified(a, ModifiedFlagMod)

	event = &types.EventProposalRelay{
		Id:        p.Id.Hex(),
		ChainId:   uint64(msg.SrcChainId),
		MessageId: msg.MessageId.Hex(),
		Sender:    msg.SrcSender.Hex(),
	}
	return event, nil
}

// InitGenesis seeds governance state from the genesis document: decay
// parameters, guardian seats and the trusted-remote table.
func (s *State) InitGenesis(g *types.GenesisGovState) error {
	if g == nil {
		return nil
	}
	params := DefaultGovParams()
	if g.DecayRatePerYear != 0 {
		params.DecayRatePerYear = g.DecayRatePerYear
	}
	if g.DecayFreeWindow != 0 {
		params.DecayFreeWindow = g.DecayFreeWindow
	}
	params.DecayFunction = decay.Function(g.DecayFunction)
	if err := s.setParams(params); err != nil {
		return err
	}
	for addr, expiry := range g.Guardians {
		s.setGuardian(addr, expiry)
	}
	for chainId, remote := range g.TrustedRemotes {
		s.SetTrustedRemote(chainId, remote)
	}
	return nil
}
