package handler

import (
	"context"

	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"

	"github.com/summerfi/sumr-gov/state"
	"github.com/summerfi/sumr-gov/tx"
	"github.com/summerfi/sumr-gov/types"
)

// RelaySendTxHandler records a proposal as relayed and emits the sent event.
// The transport picks committed sent events up off-consensus, so delivery
// never blocks block execution and carries no ordering guarantee.
type RelaySendTxHandler struct {
	logger cmtlog.Logger
}

func NewRelaySendTxHandler(logger cmtlog.Logger) (h *RelaySendTxHandler) {
	return &RelaySendTxHandler{logger: logger.With("module", "relaySendTx")}
}

func (h *RelaySendTxHandler) Check(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ResponseCheckTx, err error) {
	res = &abcitypes.ResponseCheckTx{Code: 0}
	rtx := btx.Tx.(*tx.RelayTx)
	_, _, err1 := st.SendRelay(rtx, btx.Account, true)
	if err1 != nil {
		h.logger.Info("CheckTx relay send fail", "err", err1)
		res.Code = 1
		res.Log = err1.Error()
	}
	return
}

func (h *RelaySendTxHandler) NewContext(ctx context.Context) {}

func (h *RelaySendTxHandler) handle(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ExecTxResult, err error) {
	rtx := btx.Tx.(*tx.RelayTx)
	_, event, err := st.SendRelay(rtx, btx.Account, false)
	if err != nil {
		return nil, err
	}
	res = &abcitypes.ExecTxResult{}
	if event != nil {
		res.Events = []abcitypes.Event{types.EncodeEventProposalRelay(types.EventProposalSentType, event)}
	}
	return
}

func (h *RelaySendTxHandler) Prepare(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}

func (h *RelaySendTxHandler) Process(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}

// RelayReceiveTxHandler applies an inbound cross-chain message on a
// satellite.
type RelayReceiveTxHandler struct {
	logger cmtlog.Logger
}

func NewRelayReceiveTxHandler(logger cmtlog.Logger) (h *RelayReceiveTxHandler) {
	return &RelayReceiveTxHandler{logger: logger.With("module", "relayReceiveTx")}
}

func (h *RelayReceiveTxHandler) Check(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ResponseCheckTx, err error) {
	res = &abcitypes.ResponseCheckTx{Code: 0}
	rtx := btx.Tx.(*tx.RelayReceiveTx)
	_, err1 := st.ReceiveRelay(rtx, btx.Account, true)
	if err1 != nil {
		h.logger.Info("CheckTx relay receive fail", "err", err1)
		res.Code = 1
		res.Log = err1.Error()
	}
	return
}

func (h *RelayReceiveTxHandler) NewContext(ctx context.Context) {}

func (h *RelayReceiveTxHandler) handle(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ExecTxResult, err error) {
	rtx := btx.Tx.(*tx.RelayReceiveTx)
	event, err := st.ReceiveRelay(rtx, btx.Account, false)
	if err != nil {
		return nil, err
	}
	res = &abcitypes.ExecTxResult{}
	if event != nil {
		res.Events = []abcitypes.Event{types.EncodeEventProposalRelay(types.EventProposalReceivedType, event)}
	}
	return
}

func (h *RelayReceiveTxHandler) Prepare(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}

func (h *RelayReceiveTxHandler) Process(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}
