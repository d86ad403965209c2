package handler

import (
	"context"

	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"

	"github.com/summerfi/sumr-gov/state"
	"github.com/summerfi/sumr-gov/tx"
	"github.com/summerfi/sumr-gov/types"
)

type RefreshTxHandler struct {
	logger cmtlog.Logger
}

func NewRefreshTxHandler(logger cmtlog.Logger) (h *RefreshTxHandler) {
	return &RefreshTxHandler{logger: logger.With("module", "refreshTx")}
}

func (h *RefreshTxHandler) Check(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ResponseCheckTx, err error) {
	res = &abcitypes.ResponseCheckTx{Code: 0}
	rtx := btx.Tx.(*tx.RefreshTx)
	_, err1 := st.Refresh(rtx, btx.Account, true)
	if err1 != nil {
		h.logger.Info("CheckTx refresh fail", "err", err1)
		res.Code = 1
		res.Log = err1.Error()
	}
	return
}

func (h *RefreshTxHandler) NewContext(ctx context.Context) {}

func (h *RefreshTxHandler) handle(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ExecTxResult, err error) {
	rtx := btx.Tx.(*tx.RefreshTx)
	event, err := st.Refresh(rtx, btx.Account, false)
	if err != nil {
		return nil, err
	}
	res = &abcitypes.ExecTxResult{}
	if event != nil {
		res.Events = []abcitypes.Event{types.EncodeEventDecayUpdated(event)}
	}
	return
}

func (h *RefreshTxHandler) Prepare(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}

func (h *RefreshTxHandler) Process(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}
