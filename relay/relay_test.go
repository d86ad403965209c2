package relay

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	abcitypes "github.com/cometbft/cometbft/abci/types"
	"github.com/cometbft/cometbft/crypto/ed25519"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	ctypes "github.com/cometbft/cometbft/rpc/core/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/summerfi/sumr-gov/config"
	"github.com/summerfi/sumr-gov/state"
	"github.com/summerfi/sumr-gov/tx"
	"github.com/summerfi/sumr-gov/types"
)

// newGovDB opens a fresh governance db with one committed proposal and
// returns the db, its config and the proposal id.
func newGovDB(t *testing.T) (*state.StateDB, *config.GovConfig, common.Hash) {
	t.Helper()
	cfg := config.DefaultGovConfig()
	db, err := state.NewStateDB(t.TempDir(), cfg, cmtlog.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	st := db.NewState()
	st.SetTime(1_700_000_000)
	a := &state.Account{Balance: 10_000_000}
	a.SetPubKey(ed25519.GenPrivKey().PubKey().Bytes())
	require.NoError(t, st.AddAccount(a))
	st.SetTime(1_700_000_010)
	ev, err := st.Propose(&tx.ProposeTx{
		Targets:     []common.Address{state.ParamsTarget},
		Values:      []uint64{0},
		Calldatas:   [][]byte{[]byte(`{"action":"set_decay_free_window","window":7200}`)},
		Description: "shorten the decay-free window",
	}, a.Index, false)
	require.NoError(t, err)
	_, err = db.SetState(st)
	require.NoError(t, err)
	return db, cfg, common.HexToHash(ev.Id)
}

func TestBuildMessageDeterministic(t *testing.T) {
	db, cfg, id := newGovDB(t)
	ep := NewEndpoint(cfg, db, NewLoopbackTransport(0), cmtlog.NewNopLogger())

	msg, err := ep.BuildMessage(id)
	require.NoError(t, err)
	require.Equal(t, cfg.EndpointChainId, msg.SrcChainId)
	require.Equal(t, state.RelaySender, msg.SrcSender)
	require.Equal(t, id, msg.ProposalId)
	require.Equal(t, msg.ComputeMessageId(), msg.MessageId)

	again, err := ep.BuildMessage(id)
	require.NoError(t, err)
	require.Equal(t, msg.MessageId, again.MessageId)

	_, err = ep.BuildMessage(common.Hash{0xff})
	require.ErrorIs(t, err, ErrProposalNotFound)
}

func TestDispatchDeliversPayload(t *testing.T) {
	db, cfg, id := newGovDB(t)
	tp := NewLoopbackTransport(25)

	var delivered [][]byte
	tp.Register(2, func(ctx context.Context, payload []byte) error {
		delivered = append(delivered, payload)
		return nil
	})

	ep := NewEndpoint(cfg, db, tp, cmtlog.NewNopLogger())
	require.NoError(t, ep.Dispatch(context.Background(), 2, id, 0))
	require.Len(t, delivered, 1)
	require.Equal(t, delivered, tp.Sent(2))

	msg, err := types.DecodeRelayMessage(delivered[0])
	require.NoError(t, err)
	require.Equal(t, id, msg.ProposalId)
}

func TestDispatchFeeCap(t *testing.T) {
	db, cfg, id := newGovDB(t)
	tp := NewLoopbackTransport(100)
	tp.Register(2, func(ctx context.Context, payload []byte) error { return nil })
	ep := NewEndpoint(cfg, db, tp, cmtlog.NewNopLogger())
	ctx := context.Background()

	require.ErrorIs(t, ep.Dispatch(ctx, 2, id, 50), ErrInsufficientFee)
	require.Empty(t, tp.Sent(2))

	// an exact quote and a zero cap both pass
	require.NoError(t, ep.Dispatch(ctx, 2, id, 100))
	require.NoError(t, ep.Dispatch(ctx, 2, id, 0))
	require.Len(t, tp.Sent(2), 2)
}

func TestDispatchUnknownDestination(t *testing.T) {
	db, cfg, id := newGovDB(t)
	ep := NewEndpoint(cfg, db, NewLoopbackTransport(0), cmtlog.NewNopLogger())
	require.ErrorIs(t, ep.Dispatch(context.Background(), 9, id, 0), ErrUnknownDest)
}

func TestLoopbackReceiverErrorSurfaces(t *testing.T) {
	db, cfg, id := newGovDB(t)
	tp := NewLoopbackTransport(0)
	errRecv := errors.New("receiver down")
	tp.Register(2, func(ctx context.Context, payload []byte) error { return errRecv })
	ep := NewEndpoint(cfg, db, tp, cmtlog.NewNopLogger())

	require.ErrorIs(t, ep.Dispatch(context.Background(), 2, id, 0), errRecv)
	// the payload was accepted before the receiver failed
	require.Len(t, tp.Sent(2), 1)
}

func TestHandleEventFiltersAndDispatches(t *testing.T) {
	db, cfg, id := newGovDB(t)
	tp := NewLoopbackTransport(0)
	tp.Register(2, func(ctx context.Context, payload []byte) error { return nil })
	ep := NewEndpoint(cfg, db, tp, cmtlog.NewNopLogger())
	ctx := context.Background()

	// unrelated event types are ignored
	require.NoError(t, ep.HandleEvent(ctx, abcitypes.Event{Type: types.EventProposalQueuedType}))
	require.Empty(t, tp.Sent(2))

	sent := types.EncodeEventProposalRelay(types.EventProposalSentType, &types.EventProposalRelay{
		Id:        id.Hex(),
		ChainId:   2,
		MessageId: common.Hash{1}.Hex(),
		Sender:    state.RelaySender.Hex(),
	})
	require.NoError(t, ep.HandleEvent(ctx, sent))
	require.Len(t, tp.Sent(2), 1)
}

// fakeBlockSource serves a scripted chain: the first Status call reports the
// anchor height, later calls report one block beyond it.
type fakeBlockSource struct {
	mu      sync.Mutex
	calls   int
	results map[int64]*ctypes.ResultBlockResults
}

func (f *fakeBlockSource) Status(ctx context.Context) (*ctypes.ResultStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	h := int64(1)
	if f.calls > 1 {
		h = 2
	}
	return &ctypes.ResultStatus{SyncInfo: ctypes.SyncInfo{LatestBlockHeight: h}}, nil
}

func (f *fakeBlockSource) BlockResults(ctx context.Context, height *int64) (*ctypes.ResultBlockResults, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.results[*height]
	if !ok {
		return nil, errors.New("height not available")
	}
	return res, nil
}

func TestWatchDispatchesCommittedSends(t *testing.T) {
	db, cfg, id := newGovDB(t)
	tp := NewLoopbackTransport(0)
	tp.Register(2, func(ctx context.Context, payload []byte) error { return nil })
	ep := NewEndpoint(cfg, db, tp, cmtlog.NewNopLogger())

	sent := types.EncodeEventProposalRelay(types.EventProposalSentType, &types.EventProposalRelay{
		Id:        id.Hex(),
		ChainId:   2,
		MessageId: common.Hash{1}.Hex(),
		Sender:    state.RelaySender.Hex(),
	})
	src := &fakeBlockSource{results: map[int64]*ctypes.ResultBlockResults{
		2: {
			Height:     2,
			TxsResults: []*abcitypes.ExecTxResult{{Events: []abcitypes.Event{sent}}},
		},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ep.Watch(ctx, src)

	require.Eventually(t, func() bool { return len(tp.Sent(2)) == 1 }, 5*time.Second, 50*time.Millisecond)

	msg, err := types.DecodeRelayMessage(tp.Sent(2)[0])
	require.NoError(t, err)
	require.Equal(t, id, msg.ProposalId)
}
