package relay

import (
	"context"
	"errors"
	"math"

	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/ethereum/go-ethereum/common"

	"github.com/summerfi/sumr-gov/config"
	"github.com/summerfi/sumr-gov/state"
	"github.com/summerfi/sumr-gov/types"
)

var (
	ErrInsufficientFee  = errors.New("fee below transport quote")
	ErrUnknownDest      = errors.New("transport has no route to chain")
	ErrProposalNotFound = errors.New("relayed proposal not found in state")
)

// Transport moves encoded relay messages between chains. Implementations
// provide at-least-once delivery with no ordering guarantee; the receiving
// endpoint dedupes by message id.
type Transport interface {
	// QuoteFee prices delivery of payload to destChainId in base units.
	QuoteFee(ctx context.Context, destChainId uint32, payload []byte) (uint64, error)
	// Send hands payload to the transport for delivery. A nil error means
	// accepted, not delivered.
	Send(ctx context.Context, destChainId uint32, payload []byte) error
}

// Endpoint bridges committed chain events to the transport. It watches for
// proposal_sent events, rebuilds the deterministic message from state and
// dispatches it. Dispatch runs off-consensus, so a transport outage never
// stalls block execution.
type Endpoint struct {
	cfg       *config.GovConfig
	db        *state.StateDB
	transport Transport
	logger    cmtlog.Logger
}

func NewEndpoint(cfg *config.GovConfig, db *state.StateDB, tp Transport, logger cmtlog.Logger) *Endpoint {
	return &Endpoint{
		cfg:       cfg,
		db:        db,
		transport: tp,
		logger:    logger.With("module", "relay"),
	}
}

// BuildMessage reconstructs the relay message for an executed proposal. The
// construction is deterministic, so every node derives the same message id
// the consensus path recorded.
func (e *Endpoint) BuildMessage(proposalId common.Hash) (*types.RelayMessage, error) {
	p, _, err := e.db.GetProposalById(proposalId)
	if err != nil {
		return nil, ErrProposalNotFound
	}
	msg := &types.RelayMessage{
		SrcChainId:      e.cfg.EndpointChainId,
		SrcSender:       state.RelaySender,
		ProposalId:      p.Id,
		Targets:         p.Targets,
		Values:          p.Values,
		Calldatas:       p.Calldatas,
		DescriptionHash: p.DescriptionHash,
	}
	msg.MessageId = msg.ComputeMessageId()
	return msg, nil
}

// Dispatch encodes and sends the message for one recorded relay. maxFee of
// zero skips the fee check.
func (e *Endpoint) Dispatch(ctx context.Context, destChainId uint32, proposalId common.Hash, maxFee uint64) error {
	msg, err := e.BuildMessage(proposalId)
	if err != nil {
		return err
	}
	payload, err := types.EncodeRelayMessage(msg)
	if err != nil {
		return err
	}
	fee, err := e.transport.QuoteFee(ctx, destChainId, payload)
	if err != nil {
		return err
	}
	if maxFee != 0 && fee > maxFee {
		return ErrInsufficientFee
	}
	if err := e.transport.Send(ctx, destChainId, payload); err != nil {
		return err
	}
	e.logger.Info("relay dispatched",
		"dest", destChainId,
		"proposal", proposalId.Hex(),
		"message", msg.MessageId.Hex(),
		"fee", fee)
	return nil
}

// HandleEvent reacts to one committed abci event, dispatching when it is a
// proposal_sent record. Other event types are ignored.
func (e *Endpoint) HandleEvent(ctx context.Context, ev abcitypes.Event) error {
	if ev.Type != types.EventProposalSentType {
		return nil
	}
	sent := types.DecodeEventProposalRelay(ev)
	if sent == nil || sent.ChainId > math.MaxUint32 {
		return nil
	}
	return e.Dispatch(ctx, uint32(sent.ChainId), common.HexToHash(sent.Id), 0)
}
