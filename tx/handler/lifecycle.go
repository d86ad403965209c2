package handler

import (
	"context"

	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"

	"github.com/summerfi/sumr-gov/state"
	"github.com/summerfi/sumr-gov/tx"
	"github.com/summerfi/sumr-gov/types"
)

// QueueTxHandler, ExecuteTxHandler and CancelTxHandler drive the stored
// proposal lifecycle transitions. They share a shape: one state call, one
// status event.

type QueueTxHandler struct {
	logger cmtlog.Logger
}

func NewQueueTxHandler(logger cmtlog.Logger) (h *QueueTxHandler) {
	return &QueueTxHandler{logger: logger.With("module", "queueTx")}
}

func (h *QueueTxHandler) Check(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ResponseCheckTx, err error) {
	res = &abcitypes.ResponseCheckTx{Code: 0}
	qtx := btx.Tx.(*tx.QueueTx)
	_, err1 := st.Queue(qtx, btx.Account, true)
	if err1 != nil {
		h.logger.Info("CheckTx queue fail", "err", err1)
		res.Code = 1
		res.Log = err1.Error()
	}
	return
}

func (h *QueueTxHandler) NewContext(ctx context.Context) {}

func (h *QueueTxHandler) handle(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ExecTxResult, err error) {
	qtx := btx.Tx.(*tx.QueueTx)
	event, err := st.Queue(qtx, btx.Account, false)
	if err != nil {
		return nil, err
	}
	res = &abcitypes.ExecTxResult{}
	if event != nil {
		res.Events = []abcitypes.Event{types.EncodeEventProposalStatus(types.EventProposalQueuedType, event)}
	}
	return
}

func (h *QueueTxHandler) Prepare(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}

func (h *QueueTxHandler) Process(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}

type ExecuteTxHandler struct {
	logger cmtlog.Logger
}

func NewExecuteTxHandler(logger cmtlog.Logger) (h *ExecuteTxHandler) {
	return &ExecuteTxHandler{logger: logger.With("module", "executeTx")}
}

func (h *ExecuteTxHandler) Check(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ResponseCheckTx, err error) {
	res = &abcitypes.ResponseCheckTx{Code: 0}
	etx := btx.Tx.(*tx.ExecuteTx)
	_, err1 := st.Execute(etx, btx.Account, true)
	if err1 != nil {
		h.logger.Info("CheckTx execute fail", "err", err1)
		res.Code = 1
		res.Log = err1.Error()
	}
	return
}

func (h *ExecuteTxHandler) NewContext(ctx context.Context) {}

func (h *ExecuteTxHandler) handle(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ExecTxResult, err error) {
	etx := btx.Tx.(*tx.ExecuteTx)
	event, err := st.Execute(etx, btx.Account, false)
	if err != nil {
		return nil, err
	}
	res = &abcitypes.ExecTxResult{}
	if event != nil {
		res.Events = []abcitypes.Event{types.EncodeEventProposalStatus(types.EventProposalExecutedType, event)}
	}
	return
}

func (h *ExecuteTxHandler) Prepare(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}

func (h *ExecuteTxHandler) Process(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}

type CancelTxHandler struct {
	logger cmtlog.Logger
}

func NewCancelTxHandler(logger cmtlog.Logger) (h *CancelTxHandler) {
	return &CancelTxHandler{logger: logger.With("module", "cancelTx")}
}

func (h *CancelTxHandler) Check(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ResponseCheckTx, err error) {
	res = &abcitypes.ResponseCheckTx{Code: 0}
	ctx2 := btx.Tx.(*tx.CancelTx)
	_, err1 := st.Cancel(ctx2, btx.Account, true)
	if err1 != nil {
		h.logger.Info("CheckTx cancel fail", "err", err1)
		res.Code = 1
		res.Log = err1.Error()
	}
	return
}

func (h *CancelTxHandler) NewContext(ctx context.Context) {}

func (h *CancelTxHandler) handle(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ExecTxResult, err error) {
	ctx2 := btx.Tx.(*tx.CancelTx)
	event, err := st.Cancel(ctx2, btx.Account, false)
	if err != nil {
		return nil, err
	}
	res = &abcitypes.ExecTxResult{}
	if event != nil {
		res.Events = []abcitypes.Event{types.EncodeEventProposalStatus(types.EventProposalCancelledType, event)}
	}
	return
}

func (h *CancelTxHandler) Prepare(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}

func (h *CancelTxHandler) Process(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}
