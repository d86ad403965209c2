package state

import (
	"testing"

	"github.com/cometbft/cometbft/crypto/ed25519"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cosmos/iavl"
	dbm "github.com/cosmos/iavl/db"
	"github.com/stretchr/testify/require"

	"github.com/summerfi/sumr-gov/config"
	"github.com/summerfi/sumr-gov/tx"
)

const testGenesisTime = uint64(1_700_000_000)

func newTestState(t *testing.T, cfg *config.GovConfig) *State {
	t.Helper()
	if cfg == nil {
		cfg = config.DefaultGovConfig()
	}
	tdb := iavl.NewMutableTree(dbm.NewMemDB(), 128, true, Cometbft2CosmosLogger(cmtlog.NewNopLogger()))
	_, err := tdb.Load()
	require.NoError(t, err)
	st := newState(tdb, cfg, cmtlog.NewNopLogger())
	require.NoError(t, st.load())
	st.SetTime(testGenesisTime)
	return st
}

func satelliteConfig() *config.GovConfig {
	cfg := config.DefaultGovConfig()
	cfg.Hub = false
	cfg.EndpointChainId = 2
	cfg.HubChainId = 1
	return cfg
}

func addTestAccount(t *testing.T, s *State, balance uint64) *Account {
	t.Helper()
	pk := ed25519.GenPrivKey().PubKey()
	a := &Account{Balance: balance}
	a.SetPubKey(pk.Bytes())
	require.NoError(t, s.AddAccount(a))
	return a
}

func TestAddAccountPoolsOwnVotes(t *testing.T) {
	s := newTestState(t, nil)
	a := addTestAccount(t, s, 500)

	votes, err := s.GetVotes(a.Index)
	require.NoError(t, err)
	require.Equal(t, uint64(500), votes)
	require.Equal(t, a.Index, a.PoolTarget)
	require.Equal(t, uint64(500), a.PoolWeight)
}

func TestAddAccountDuplicatePubkey(t *testing.T) {
	s := newTestState(t, nil)
	a := addTestAccount(t, s, 1)

	dup := &Account{Balance: 2}
	dup.SetPubKey(a.PubKey)
	require.ErrorIs(t, s.AddAccount(dup), ErrAccountAlreadyExists)
}

func TestGetAccountUnknownIndex(t *testing.T) {
	s := newTestState(t, nil)
	_, err := s.GetAccount(StartAccountIdx + 42)
	require.ErrorIs(t, err, ErrTxAccountNoexists)
}

func TestVerifyNonceAndSignature(t *testing.T) {
	s := newTestState(t, nil)
	s.SetChainId("test-chain")
	priv := ed25519.GenPrivKey()
	a := &Account{Balance: 10}
	a.SetPubKey(priv.PubKey().Bytes())
	require.NoError(t, s.AddAccount(a))

	btx := &tx.GovTx{
		Version: tx.GovTxVersion1,
		Type:    tx.GovTxTypeStake,
		Nonce:   0,
		Account: a.Index,
		Tx:      &tx.StakeTx{Amount: 5},
	}
	dat, err := btx.SigData([]byte("test-chain"))
	require.NoError(t, err)
	sig, err := priv.Sign(dat)
	require.NoError(t, err)
	btx.Sig = [][]byte{sig}

	succ, err := s.Verify(btx, false)
	require.NoError(t, err)
	require.True(t, succ)

	btx.Nonce = 7
	_, err = s.Verify(btx, false)
	require.ErrorIs(t, err, ErrTxNonceInvalid)

	// a nonce gap is acceptable during block preparation
	dat, err = btx.SigData([]byte("test-chain"))
	require.NoError(t, err)
	sig, err = priv.Sign(dat)
	require.NoError(t, err)
	btx.Sig = [][]byte{sig}
	succ, err = s.Verify(btx, true)
	require.NoError(t, err)
	require.True(t, succ)

	btx.Sig = [][]byte{sig[:32]}
	_, err = s.Verify(btx, true)
	require.ErrorIs(t, err, ErrTxSigInvalid)
}

func TestUpdateCommitsStagedWrites(t *testing.T) {
	s := newTestState(t, nil)
	a := addTestAccount(t, s, 1000)
	h1, err := s.Update()
	require.NoError(t, err)
	require.NotEqual(t, [32]byte{}, [32]byte(h1))

	// staged checkpoint data must be readable from the tree after flush
	got, err := s.GetVotes(a.Index)
	require.NoError(t, err)
	require.Equal(t, uint64(1000), got)

	// flushing again without changes keeps the hash stable
	h2, err := s.Update()
	require.NoError(t, err)
	require.Equal(t, h1, h2)
}

func TestCloneIsolation(t *testing.T) {
	s := newTestState(t, nil)
	a := addTestAccount(t, s, 100)

	sp := s.Clone()
	require.NoError(t, sp.Stake(&tx.StakeTx{Amount: 40}, a.Index, false))

	orig, err := s.GetAccount(a.Index)
	require.NoError(t, err)
	require.Equal(t, uint64(100), orig.Balance)
	require.Equal(t, uint64(0), orig.Staked)

	spec, err := sp.GetAccount(a.Index)
	require.NoError(t, err)
	require.Equal(t, uint64(60), spec.Balance)
	require.Equal(t, uint64(40), spec.Staked)
}
