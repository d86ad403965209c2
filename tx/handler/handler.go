package handler

import (
	"context"

	abcitypes "github.com/cometbft/cometbft/abci/types"

	"github.com/summerfi/sumr-gov/state"
	"github.com/summerfi/sumr-gov/tx"
)

// TxHandler executes one transaction type. Check validates against the
// committed state without mutating; NewContext resets per-block bookkeeping;
// Prepare and Process run the same deterministic path during block building
// and block replay.
type TxHandler interface {
	Check(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ResponseCheckTx, err error)
	NewContext(ctx context.Context)
	Prepare(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ExecTxResult, err error)
	Process(ctx context.Context, st *state.State, btx *tx.GovTx) (res *abcitypes.ExecTxResult, err error)
}
