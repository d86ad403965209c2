package app

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"strings"

	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/ethereum/go-ethereum/common"

	"github.com/summerfi/sumr-gov/state"
	"github.com/summerfi/sumr-gov/types"
)

func (app *GovApp) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	path := req.Path
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	q, ok := app.queriers[path]
	if !ok {
		res = &abcitypes.ResponseQuery{}
		res.Code = 404
		return
	}
	res, err = q.Query(ctx, req)
	return
}

type Querier interface {
	Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error)
}

type AccountQuerier struct {
	db     *state.StateDB
	logger cmtlog.Logger
}

func NewAccountQuerier(db *state.StateDB, logger cmtlog.Logger) (q *AccountQuerier) {
	q = &AccountQuerier{
		db:     db,
		logger: logger,
	}
	return
}

func (q *AccountQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	res = &abcitypes.ResponseQuery{}
	var a *state.Account
	var height uint64
	if len(req.Data) == 20 {
		a, height, _ = q.db.GetAccountByAddress(req.Data)
	} else if len(req.Data) <= 8 {
		var idx uint64
		for _, v := range req.Data {
			idx <<= 8
			idx |= uint64(v)
		}
		a, height, _ = q.db.GetAccountByIndex(idx)
	}
	if a != nil {
		res.Value, _ = a.Marshal()
		res.Height = int64(height)
	} else {
		res.Code = 1
	}
	return
}

type ValidatorQuerier struct {
	db     *state.StateDB
	logger cmtlog.Logger
}

func NewValidatorQuerier(db *state.StateDB, logger cmtlog.Logger) (q *ValidatorQuerier) {
	q = &ValidatorQuerier{
		db:     db,
		logger: logger,
	}
	return
}

func (q *ValidatorQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	res = &abcitypes.ResponseQuery{}
	validators, height, err := q.db.State().ValidatorAccounts()
	if err != nil {
		res.Code = 1
		return
	}
	res.Height = int64(height)
	res.Value, _ = json.Marshal(validators)
	return
}

// proposalView is a proposal plus its derived lifecycle status as of the
// queried height's clock.
type proposalView struct {
	Proposal *types.Proposal      `json:"proposal"`
	Status   types.ProposalStatus `json:"status"`
}

type ProposalQuerier struct {
	db     *state.StateDB
	logger cmtlog.Logger
}

func NewProposalQuerier(db *state.StateDB, logger cmtlog.Logger) (q *ProposalQuerier) {
	q = &ProposalQuerier{
		db:     db,
		logger: logger,
	}
	return
}

func (q *ProposalQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	res = &abcitypes.ResponseQuery{}
	var p *types.Proposal
	var height uint64
	if len(req.Data) == 32 {
		p, height, _ = q.db.GetProposalById(common.BytesToHash(req.Data))
	} else if len(req.Data) <= 8 {
		var idx uint64
		for _, v := range req.Data {
			idx <<= 8
			idx |= uint64(v)
		}
		p, height, _ = q.db.GetProposalByIndex(idx)
	}
	if p == nil {
		res.Code = 1
		return
	}
	view := proposalView{
		Proposal: p,
		Status:   q.db.State().StatusOf(p),
	}
	res.Value, _ = json.Marshal(&view)
	res.Height = int64(height)
	return
}

type ParamsQuerier struct {
	db     *state.StateDB
	logger cmtlog.Logger
}

func NewParamsQuerier(db *state.StateDB, logger cmtlog.Logger) (q *ParamsQuerier) {
	q = &ParamsQuerier{
		db:     db,
		logger: logger,
	}
	return
}

func (q *ParamsQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	res = &abcitypes.ResponseQuery{}
	params, err := q.db.State().Params()
	if err != nil {
		res.Code = 1
		return res, nil
	}
	res.Value, _ = params.Marshal()
	res.Height = int64(q.db.Header().Height)
	return
}

// VotesQuerier resolves one ballot receipt. Data is the 32-byte proposal id
// followed by the voter index as 8 big-endian bytes.
type VotesQuerier struct {
	db     *state.StateDB
	logger cmtlog.Logger
}

func NewVotesQuerier(db *state.StateDB, logger cmtlog.Logger) (q *VotesQuerier) {
	q = &VotesQuerier{
		db:     db,
		logger: logger,
	}
	return
}

func (q *VotesQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	res = &abcitypes.ResponseQuery{}
	if len(req.Data) != 40 {
		res.Code = 1
		return
	}
	id := common.BytesToHash(req.Data[:32])
	voter := binary.BigEndian.Uint64(req.Data[32:])
	receipt, err := q.db.State().GetVoteReceipt(id, voter)
	if err != nil {
		res.Code = 1
		return res, nil
	}
	res.Value, _ = json.Marshal(receipt)
	res.Height = int64(q.db.Header().Height)
	return
}
