package tx

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalDispatchesOnType(t *testing.T) {
	btx := &GovTx{
		Version: GovTxVersion1,
		Type:    GovTxTypePropose,
		Nonce:   7,
		Account: 65536,
		Tx: &ProposeTx{
			Targets:     []common.Address{common.HexToAddress("0x01")},
			Values:      []uint64{0},
			Calldatas:   [][]byte{[]byte(`{"action":"set_decay_rate","rate":5}`)},
			Description: "lower the decay rate",
		},
		Sig: [][]byte{{0xaa}},
	}
	dat, err := MarshalGovTx(btx)
	require.NoError(t, err)

	got, err := UnmarshalGovTx(dat)
	require.NoError(t, err)
	require.Equal(t, btx.Version, got.Version)
	require.Equal(t, btx.Nonce, got.Nonce)
	require.Equal(t, btx.Account, got.Account)
	require.Equal(t, btx.Sig, got.Sig)

	body, ok := got.Tx.(*ProposeTx)
	require.True(t, ok)
	require.Equal(t, btx.Tx.(*ProposeTx), body)
}

func TestUnmarshalRelayReceive(t *testing.T) {
	btx := &GovTx{
		Version: GovTxVersion1,
		Type:    GovTxTypeRelayReceive,
		Account: 65537,
		Tx: &RelayReceiveTx{
			SrcChainId: 1,
			SrcSender:  common.HexToAddress("0x02").Hex(),
			Payload:    []byte{0xc0},
		},
	}
	dat, err := MarshalGovTx(btx)
	require.NoError(t, err)

	got, err := UnmarshalGovTx(dat)
	require.NoError(t, err)
	body, ok := got.Tx.(*RelayReceiveTx)
	require.True(t, ok)
	require.Equal(t, btx.Tx.(*RelayReceiveTx), body)
}

func TestUnmarshalUnknownType(t *testing.T) {
	_, err := UnmarshalGovTx([]byte(`{"type":99,"tx":{}}`))
	require.ErrorIs(t, err, ErrUnsupportedTxType)

	_, err = UnmarshalGovTx([]byte(`not json`))
	require.ErrorIs(t, err, ErrUnsupportedTxType)
}

func TestUnmarshalUnknownVersion(t *testing.T) {
	_, err := UnmarshalGovTx([]byte(`{"version":2,"type":5,"tx":{}}`))
	require.ErrorIs(t, err, ErrUnsupportedTxVersion)

	// both released envelope versions parse
	for _, v := range []uint8{GovTxVersion0, GovTxVersion1} {
		dat := []byte(fmt.Sprintf(`{"version":%d,"type":5,"tx":{}}`, v))
		got, err := UnmarshalGovTx(dat)
		require.NoError(t, err)
		require.Equal(t, v, got.Version)
	}
}

func TestSigDataReplacesSignature(t *testing.T) {
	btx := &GovTx{
		Version: GovTxVersion1,
		Type:    GovTxTypeVote,
		Nonce:   1,
		Account: 65536,
		Tx:      &VoteTx{ProposalId: common.Hash{1}, Support: 1},
		Sig:     [][]byte{{0xde, 0xad}},
	}
	dat, err := btx.SigData([]byte("chain-1"))
	require.NoError(t, err)

	var env struct {
		Sig [][]byte `json:"sig"`
	}
	require.NoError(t, json.Unmarshal(dat, &env))
	require.Equal(t, [][]byte{[]byte("chain-1")}, env.Sig)

	// the original envelope keeps its signature
	require.Equal(t, [][]byte{{0xde, 0xad}}, btx.Sig)

	// different chain ids sign different byte strings
	other, err := btx.SigData([]byte("chain-2"))
	require.NoError(t, err)
	require.NotEqual(t, dat, other)
}
