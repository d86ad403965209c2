package handler

import (
	"context"

	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"

	"github.com/summerfi/sumr-gov/state"
	"github.com/summerfi/sumr-gov/tx"
	"github.com/summerfi/sumr-gov/types"
)

type ProposeTxHandler struct {
	logger cmtlog.Logger

	accountSet map[uint64]bool
}

func NewProposeTxHandler(logger cmtlog.Logger) (h *ProposeTxHandler) {
	logger = logger.With("module", "proposeTx")
	h = &ProposeTxHandler{
		logger:     logger,
		accountSet: make(map[uint64]bool),
	}
	return
}

func (h *ProposeTxHandler) Check(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ResponseCheckTx, err error) {
	res = &abcitypes.ResponseCheckTx{Code: 0}
	ptx := btx.Tx.(*tx.ProposeTx)
	_, err1 := st.Propose(ptx, btx.Account, true)
	if err1 != nil {
		h.logger.Info("CheckTx propose fail", "err", err1)
		res.Code = 1
		res.Log = err1.Error()
	}
	return
}

func (h *ProposeTxHandler) NewContext(ctx context.Context) {
	h.accountSet = make(map[uint64]bool)
}

func (h *ProposeTxHandler) handle(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ExecTxResult, err error) {
	if _, ok := h.accountSet[btx.Account]; ok {
		return nil, state.ErrOneActionInOneBlock
	}
	ptx := btx.Tx.(*tx.ProposeTx)
	event, err := st.Propose(ptx, btx.Account, false)
	if err != nil {
		return nil, err
	}
	h.accountSet[btx.Account] = true
	res = &abcitypes.ExecTxResult{}
	if event != nil {
		res.Events = []abcitypes.Event{types.EncodeEventProposalCreated(event)}
	}
	return
}

func (h *ProposeTxHandler) Prepare(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}

func (h *ProposeTxHandler) Process(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}
