package app

import (
	"context"
	"errors"

	abcitypes "github.com/cometbft/cometbft/abci/types"
	"github.com/ethereum/go-ethereum/common"

	"github.com/summerfi/sumr-gov/state"
	"github.com/summerfi/sumr-gov/tx"
	"github.com/summerfi/sumr-gov/types"
)

var ErrUnexpectedTxProcess = errors.New("unexpected tx process")

func (app *GovApp) getState(blkHash *common.Hash) (st *state.State) {
	st = app.db.NewState()
	app.st = st
	return
}

func (app *GovApp) parseTx(txDat []byte, allowNonceGap bool) (btx *tx.GovTx, err error) {
	btx, err = tx.UnmarshalGovTx(txDat)
	if err != nil {
		return
	}
	if btx != nil {
		_, err = app.db.State().Verify(btx, allowNonceGap)
	}
	return
}

func (app *GovApp) CheckTx(ctx context.Context, check *abcitypes.RequestCheckTx) (res *abcitypes.ResponseCheckTx, err error) {
	res = &abcitypes.ResponseCheckTx{Code: 0}
	btx, err := app.parseTx(check.Tx, true)
	if err != nil {
		app.logger.Error("parse tx fail", "err", err)
		res.Code = 1
		res.Log = err.Error()
		err = nil
		return
	}
	app.logger.Info("check tx", "type", btx.Type)
	h, ok := app.txHdlrs[btx.Type]
	if !ok {
		app.logger.Error("unsupported tx", "type", btx.Type)
		res.Code = 1
		res.Log = "unsupported tx"
		return
	}
	st := app.db.State()
	res, err = h.Check(ctx, st, btx)
	if err != nil {
		app.logger.Error("check tx fail", "err", err)
		res.Code = 1
		res.Log = err.Error()
		err = nil
	}

	return
}

// PrepareProposal filters the mempool offering: each tx executes against a
// speculative clone of the block state, and only txs that execute cleanly
// make it into the proposal.
func (app *GovApp) PrepareProposal(ctx context.Context, proposal *abcitypes.RequestPrepareProposal) (res *abcitypes.ResponsePrepareProposal, err error) {
	app.logger.Info("PrepareProposal", "height", proposal.Height)
	st := app.getState(nil)
	st.SetTime(uint64(proposal.Time.Unix()))
	for _, h := range app.txHdlrs {
		h.NewContext(ctx)
	}
	txs := make([][]byte, 0)
	for _, stx := range proposal.Txs {
		btx, err := app.parseTx(stx, false)
		if err != nil {
			app.logger.Error("unsupported tx, parse fail", "err", err)
			continue
		}
		h, ok := app.txHdlrs[btx.Type]
		if !ok {
			app.logger.Error("unsupported tx", "type", btx.Type)
			continue
		}
		stTmp := st.Clone()
		result, err := h.Prepare(ctx, stTmp, btx)
		if err != nil {
			app.logger.Error("prepare tx fail", "type", btx.Type, "err", err)
			continue
		}
		if result == nil || result.Code != 0 {
			app.logger.Error("prepare tx rejected", "type", btx.Type)
			continue
		}
		st = stTmp
		app.st = st
		txs = append(txs, stx)
	}
	return &abcitypes.ResponsePrepareProposal{Txs: txs}, nil
}

func (app *GovApp) execute(ctx context.Context, st *state.State, txs [][]byte) (res []*abcitypes.ExecTxResult, err error) {
	for _, h := range app.txHdlrs {
		h.NewContext(ctx)
	}
	res = make([]*abcitypes.ExecTxResult, len(txs))
	for i, stx := range txs {
		btx, err := app.parseTx(stx, false)
		if err != nil {
			app.logger.Error("unexpected tx, parse fail", "err", err)
			return nil, err
		}
		h, ok := app.txHdlrs[btx.Type]
		if !ok {
			app.logger.Error("unexpected tx, no handler", "type", btx.Type)
			return nil, ErrUnexpectedTxProcess
		}
		result, err := h.Process(ctx, st, btx)
		if err != nil {
			app.logger.Error("unexpected process tx fail", "type", btx.Type, "err", err)
			return nil, ErrUnexpectedTxProcess
		}
		if result == nil || result.Code != 0 {
			app.logger.Error("unexpected process tx result", "type", btx.Type)
			return nil, ErrUnexpectedTxProcess
		}
		res[i] = result
	}
	return
}

func (app *GovApp) ProcessProposal(ctx context.Context, proposal *abcitypes.RequestProcessProposal) (res *abcitypes.ResponseProcessProposal, err error) {
	app.logger.Info("ProcessProposal", "height", proposal.Height)
	res = &abcitypes.ResponseProcessProposal{Status: abcitypes.ResponseProcessProposal_REJECT}
	if len(proposal.Txs) == 0 {
		res.Status = abcitypes.ResponseProcessProposal_ACCEPT
		return res, nil
	}
	st := app.getState(nil)
	st.SetTime(uint64(proposal.Time.Unix()))

	_, err = app.execute(ctx, st, proposal.Txs)
	if err != nil {
		app.logger.Error("process fail", "err", err)
		return res, nil
	}
	res.Status = abcitypes.ResponseProcessProposal_ACCEPT
	return res, nil
}

func (app *GovApp) FinalizeBlock(ctx context.Context, req *abcitypes.RequestFinalizeBlock) (*abcitypes.ResponseFinalizeBlock, error) {
	app.logger.Info("FinalizeBlock", "height", req.Height)
	app.lastBlk.Set(req)
	st := app.getState(nil)
	st.SetTime(uint64(req.Time.Unix()))
	res, err := app.execute(ctx, st, req.Txs)
	if err != nil {
		return nil, err
	}
	curVals, err := st.Validators()
	if err != nil {
		app.logger.Error("get validators fail", "err", err)
		return nil, err
	}
	h, err := st.Update()
	if err != nil {
		app.logger.Error("state update hash fail", "err", err)
		return nil, err
	}
	updateVals, err := st.ValidatorsUpdate(curVals)
	if err != nil {
		app.logger.Error("state update validators fail", "err", err)
		return nil, err
	}
	var events []abcitypes.Event
	if len(updateVals) != 0 {
		events = append(events, types.EncodeEventUpdateValidators(&types.EventUpdateValidators{Updates: updateVals}))
	}
	return &abcitypes.ResponseFinalizeBlock{
		TxResults:        res,
		AppHash:          h.Bytes(),
		ValidatorUpdates: updateVals,
		Events:           events,
	}, nil
}

func (app *GovApp) Commit(ctx context.Context, commit *abcitypes.RequestCommit) (*abcitypes.ResponseCommit, error) {
	_, err := app.db.SetState(app.st)
	if err != nil {
		return nil, err
	}
	app.st = nil
	app.logger.Info("Commit")
	return &abcitypes.ResponseCommit{}, nil
}
