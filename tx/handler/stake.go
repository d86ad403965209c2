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

type StakeTxHandler struct {
	logger cmtlog.Logger

	accountSet map[uint64]bool
}

func NewStakeTxHandler(logger cmtlog.Logger) (h *StakeTxHandler) {
	logger = logger.With("module", "stakeTx")
	h = &StakeTxHandler{
		logger:     logger,
		accountSet: make(map[uint64]bool),
	}
	return
}

func (h *StakeTxHandler) Check(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ResponseCheckTx, err error) {
	res = &abcitypes.ResponseCheckTx{Code: 0}
	stx := btx.Tx.(*tx.StakeTx)
	err1 := st.Stake(stx, btx.Account, true)
	if err1 != nil {
		h.logger.Info("CheckTx stake fail", "err", err1)
		res.Code = 1
		res.Log = err1.Error()
	}
	return
}

func (h *StakeTxHandler) NewContext(ctx context.Context) {
	h.accountSet = make(map[uint64]bool)
}

func (h *StakeTxHandler) handle(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ExecTxResult, err error) {
	if _, ok := h.accountSet[btx.Account]; ok {
		return nil, state.ErrOneActionInOneBlock
	}
	stx := btx.Tx.(*tx.StakeTx)
	err = st.Stake(stx, btx.Account, false)
	if err != nil {
		return nil, err
	}
	h.accountSet[btx.Account] = true
	res = &abcitypes.ExecTxResult{}
	res.Events = append(res.Events, abcitypes.Event{
		Type: types.EventStakeType,
		Attributes: []abcitypes.EventAttribute{
			{Key: "account", Value: strconv.FormatUint(btx.Account, 10), Index: true},
			{Key: "amount", Value: strconv.FormatUint(stx.Amount, 10), Index: false},
		},
	})
	return
}

func (h *StakeTxHandler) Prepare(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}

func (h *StakeTxHandler) Process(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}
