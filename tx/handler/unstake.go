package handler

import (
	"context"
	"strconv"

	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"

	"github.com/summerfi/sumr-gov/state"
	"github.com/summerfi/sumr-gov/tx"
	"github.com/summerfi/sumr-gov/types"
)

type UnstakeTxHandler struct {
	logger cmtlog.Logger

	accountSet map[uint64]bool
}

func NewUnstakeTxHandler(logger cmtlog.Logger) (h *UnstakeTxHandler) {
	logger = logger.With("module", "unstakeTx")
	h = &UnstakeTxHandler{
		logger:     logger,
		accountSet: make(map[uint64]bool),
	}
	return
}

func (h *UnstakeTxHandler) Check(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ResponseCheckTx, err error) {
	res = &abcitypes.ResponseCheckTx{Code: 0}
	utx := btx.Tx.(*tx.UnstakeTx)
	err1 := st.Unstake(utx, btx.Account, true)
	if err1 != nil {
		h.logger.Info("CheckTx unstake fail", "err", err1)
		res.Code = 1
		res.Log = err1.Error()
	}
	return
}

func (h *UnstakeTxHandler) NewContext(ctx context.Context) {
	h.accountSet = make(map[uint64]bool)
}

func (h *UnstakeTxHandler) handle(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ExecTxResult, err error) {
	if _, ok := h.accountSet[btx.Account]; ok {
		return nil, state.ErrOneActionInOneBlock
	}
	utx := btx.Tx.(*tx.UnstakeTx)
	err = st.Unstake(utx, btx.Account, false)
	if err != nil {
		return nil, err
	}
	h.accountSet[btx.Account] = true
	res = &abcitypes.ExecTxResult{}
	res.Events = append(res.Events, abcitypes.Event{
		Type: types.EventUnstakeType,
		Attributes: []abcitypes.EventAttribute{
			{Key: "account", Value: strconv.FormatUint(btx.Account, 10), Index: true},
			{Key: "amount", Value: strconv.FormatUint(utx.Amount, 10), Index: false},
		},
	})
	return
}

func (h *UnstakeTxHandler) Prepare(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}

func (h *UnstakeTxHandler) Process(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}
