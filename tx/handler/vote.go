package handler

import (
	"context"

	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"

	"github.com/summerfi/sumr-gov/state"
	"github.com/summerfi/sumr-gov/tx"
	"github.com/summerfi/sumr-gov/types"
)

type VoteTxHandler struct {
	logger cmtlog.Logger
}

func NewVoteTxHandler(logger cmtlog.Logger) (h *VoteTxHandler) {
	logger = logger.With("module", "voteTx")
	h = &VoteTxHandler{
		logger: logger,
	}
	return
}

func (h *VoteTxHandler) Check(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ResponseCheckTx, err error) {
	res = &abcitypes.ResponseCheckTx{Code: 0}
	vtx := btx.Tx.(*tx.VoteTx)
	_, err1 := st.CastVote(vtx, btx.Account, true)
	if err1 != nil {
		h.logger.Info("CheckTx vote fail", "err", err1)
		res.Code = 1
		res.Log = err1.Error()
	}
	return
}

// Double voting is rejected by the per-proposal receipt, so votes on
// different proposals from one account may share a block.
func (h *VoteTxHandler) NewContext(ctx context.Context) {}

func (h *VoteTxHandler) handle(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ExecTxResult, err error) {
	vtx := btx.Tx.(*tx.VoteTx)
	event, err := st.CastVote(vtx, btx.Account, false)
	if err != nil {
		return nil, err
	}
	res = &abcitypes.ExecTxResult{}
	if event != nil {
		res.Events = []abcitypes.Event{types.EncodeEventVoteCast(event)}
	}
	return
}

func (h *VoteTxHandler) Prepare(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}

func (h *VoteTxHandler) Process(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}
