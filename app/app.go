package app

import (
	"context"
	"encoding/json"

	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cometbft/cometbft/store"
	"github.com/ethereum/go-ethereum/common"

	"github.com/summerfi/sumr-gov/config"
	"github.com/summerfi/sumr-gov/state"
	"github.com/summerfi/sumr-gov/tx"
	"github.com/summerfi/sumr-gov/tx/handler"
	"github.com/summerfi/sumr-gov/types"
)

type finalizeBlock struct {
	Height uint64
	Hash   common.Hash
}

func (b *finalizeBlock) Set(blk *abcitypes.RequestFinalizeBlock) {
	b.Height = uint64(blk.Height)
	b.Hash = common.BytesToHash(blk.Hash)
}

var _ abcitypes.Application = &GovApp{}

// GovApp is the ABCI application: decay-weighted voting state plus the
// proposal lifecycle, executed deterministically under cometbft consensus.
type GovApp struct {
	cfg    *config.GovAppConfig
	logger cmtlog.Logger

	db       *state.StateDB
	lastBlk  finalizeBlock
	txHdlrs  map[tx.GovTxType]handler.TxHandler
	queriers map[string]Querier

	st *state.State
}

func NewGovApp(cfg *config.GovAppConfig, logger cmtlog.Logger) (app *GovApp, err error) {
	logger = logger.With("module", "app")

	if err := cfg.Gov.Validate(); err != nil {
		return nil, err
	}
	dir := cfg.Home + "/data"
	db, err := state.NewStateDB(dir, cfg.Gov, logger)
	if err != nil {
		return nil, err
	}

	app = &GovApp{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		txHdlrs:  make(map[tx.GovTxType]handler.TxHandler),
		queriers: make(map[string]Querier),
	}
	app.registerTxHandler()
	app.registerQuerier()
	return
}

func (app *GovApp) StateDB() *state.StateDB {
	return app.db
}

func (app *GovApp) Start(bs *store.BlockStore) {
	height := app.db.Header().Height
	if height > 0 {
		blk := bs.LoadBlock(int64(height))
		if blk == nil {
			panic("unexpected BlockStore")
		}
		app.lastBlk.Height = height
		app.lastBlk.Hash = common.BytesToHash(blk.Hash())
	}
}

func (app *GovApp) Stop() {
	err := app.db.Close()
	if err != nil {
		app.logger.Error("close db fail", "err", err)
	}
	app.logger.Info("gov app stopped")
}

func (app *GovApp) registerTxHandler() {
	app.txHdlrs = map[tx.GovTxType]handler.TxHandler{
		tx.GovTxTypeDelegate:     handler.NewDelegateTxHandler(app.logger),
		tx.GovTxTypeStake:        handler.NewStakeTxHandler(app.logger),
		tx.GovTxTypeUnstake:      handler.NewUnstakeTxHandler(app.logger),
		tx.GovTxTypePropose:      handler.NewProposeTxHandler(app.logger),
		tx.GovTxTypeVote:         handler.NewVoteTxHandler(app.logger),
		tx.GovTxTypeQueue:        handler.NewQueueTxHandler(app.logger),
		tx.GovTxTypeExecute:      handler.NewExecuteTxHandler(app.logger),
		tx.GovTxTypeCancel:       handler.NewCancelTxHandler(app.logger),
		tx.GovTxTypeRelaySend:    handler.NewRelaySendTxHandler(app.logger),
		tx.GovTxTypeRelayReceive: handler.NewRelayReceiveTxHandler(app.logger),
		tx.GovTxTypeRefresh:      handler.NewRefreshTxHandler(app.logger),
	}
}

func (app *GovApp) registerQuerier() {
	app.queriers["/accounts/"] = NewAccountQuerier(app.db, app.logger)
	app.queriers["/validators/"] = NewValidatorQuerier(app.db, app.logger)
	app.queriers["/proposals/"] = NewProposalQuerier(app.db, app.logger)
	app.queriers["/params/"] = NewParamsQuerier(app.db, app.logger)
	app.queriers["/votes/"] = NewVotesQuerier(app.db, app.logger)
}

// genesisAppState is the app_state document inside the genesis file.
type genesisAppState struct {
	Gov *types.GenesisGovState `json:"gov"`
}

func (app *GovApp) InitChain(_ context.Context, chain *abcitypes.RequestInitChain) (res *abcitypes.ResponseInitChain, err error) {
	st := app.db.NewState()
	st.SetChainId(chain.ChainId)
	st.SetTime(uint64(chain.Time.Unix()))
	for _, v := range chain.Validators {
		var acnt state.Account
		acnt.SetPubKey(v.PubKey.GetEd25519())
		acnt.Staked = uint64(v.Power) * config.GWeiPerPower(0)
		err = st.AddAccount(&acnt)
		if err != nil {
			app.logger.Error("InitChain add account fail", "err", err)
			return nil, err
		}
	}
	if len(chain.AppStateBytes) > 0 {
		var gs genesisAppState
		if err := json.Unmarshal(chain.AppStateBytes, &gs); err != nil {
			app.logger.Error("InitChain parse app state fail", "err", err)
			return nil, err
		}
		if err := st.InitGenesis(gs.Gov); err != nil {
			app.logger.Error("InitChain seed gov state fail", "err", err)
			return nil, err
		}
	}
	var h common.Hash
	_, err = st.Update()
	if err != nil {
		app.logger.Error("InitChain update state fail", "err", err)
		return nil, err
	}
	h, err = app.db.SetState(st)
	if err != nil {
		app.logger.Error("InitChain apply state fail", "err", err)
		return nil, err
	}
	return &abcitypes.ResponseInitChain{
		AppHash: h.Bytes(),
	}, nil
}

func (app *GovApp) Info(ctx context.Context, info *abcitypes.RequestInfo) (*abcitypes.ResponseInfo, error) {
	header := app.db.Header()
	return &abcitypes.ResponseInfo{
		LastBlockHeight:  int64(header.Height),
		LastBlockAppHash: header.Hash,
	}, nil
}

func (app *GovApp) ExtendVote(_ context.Context, extend *abcitypes.RequestExtendVote) (*abcitypes.ResponseExtendVote, error) {
	return &abcitypes.ResponseExtendVote{}, nil
}

func (app *GovApp) VerifyVoteExtension(_ context.Context, verify *abcitypes.RequestVerifyVoteExtension) (*abcitypes.ResponseVerifyVoteExtension, error) {
	return &abcitypes.ResponseVerifyVoteExtension{}, nil
}

func (app *GovApp) ApplySnapshotChunk(context.Context, *abcitypes.RequestApplySnapshotChunk) (*abcitypes.ResponseApplySnapshotChunk, error) {
	return nil, nil
}

func (app *GovApp) ListSnapshots(context.Context, *abcitypes.RequestListSnapshots) (*abcitypes.ResponseListSnapshots, error) {
	return nil, nil
}

func (app *GovApp) LoadSnapshotChunk(context.Context, *abcitypes.RequestLoadSnapshotChunk) (*abcitypes.ResponseLoadSnapshotChunk, error) {
	return nil, nil
}

func (app *GovApp) OfferSnapshot(context.Context, *abcitypes.RequestOfferSnapshot) (*abcitypes.ResponseOfferSnapshot, error) {
	return nil, nil
}
