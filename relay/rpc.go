package relay

import (
	"context"
	"encoding/hex"
	"fmt"

	cmtlog "github.com/cometbft/cometbft/libs/log"
	comethttp "github.com/cometbft/cometbft/rpc/client/http"

	"github.com/summerfi/sumr-gov/crypto"
	"github.com/summerfi/sumr-gov/state"
	"github.com/summerfi/sumr-gov/tx"
	"github.com/summerfi/sumr-gov/types"
)

// RpcTransport delivers relay messages by submitting relay-receive
// transactions to each destination chain's RPC endpoint, signed with the
// hub node's relay key. Delivery is at-least-once: a redelivered message is
// rejected by the destination's received-set, so retries are safe.
type RpcTransport struct {
	logger cmtlog.Logger
	signer *crypto.PV
	fee    uint64
	dests  map[uint32]*comethttp.HTTP
}

func NewRpcTransport(signer *crypto.PV, dests map[uint32]string, fee uint64, logger cmtlog.Logger) (*RpcTransport, error) {
	t := &RpcTransport{
		logger: logger.With("module", "relay-rpc"),
		signer: signer,
		fee:    fee,
		dests:  make(map[uint32]*comethttp.HTTP, len(dests)),
	}
	for chainId, chainUrl := range dests {
		cli, err := comethttp.New(chainUrl, "/websocket")
		if err != nil {
			return nil, fmt.Errorf("relay destination %v: %w", chainId, err)
		}
		t.dests[chainId] = cli
	}
	return t, nil
}

func (t *RpcTransport) QuoteFee(ctx context.Context, destChainId uint32, payload []byte) (uint64, error) {
	if _, ok := t.dests[destChainId]; !ok {
		return 0, ErrUnknownDest
	}
	return t.fee, nil
}

func (t *RpcTransport) Send(ctx context.Context, destChainId uint32, payload []byte) error {
	cli, ok := t.dests[destChainId]
	if !ok {
		return ErrUnknownDest
	}
	msg, err := types.DecodeRelayMessage(payload)
	if err != nil {
		return err
	}
	gres, err := cli.Genesis(ctx)
	if err != nil {
		return fmt.Errorf("get destination genesis: %w", err)
	}
	act, err := t.signerAccount(ctx, cli)
	if err != nil {
		return err
	}
	btx := tx.GovTx{
		Version: tx.GovTxVersion1,
		Type:    tx.GovTxTypeRelayReceive,
		Nonce:   act.Nonce,
		Account: act.Index,
		Tx: &tx.RelayReceiveTx{
			SrcChainId: msg.SrcChainId,
			SrcSender:  msg.SrcSender.Hex(),
			Payload:    payload,
		},
	}
	dat, err := btx.SigData([]byte(gres.Genesis.ChainID))
	if err != nil {
		return err
	}
	sig, err := t.signer.Sign(dat)
	if err != nil {
		return err
	}
	btx.Sig = [][]byte{sig}
	raw, err := tx.MarshalGovTx(&btx)
	if err != nil {
		return err
	}
	res, err := cli.BroadcastTxSync(ctx, raw)
	if err != nil {
		return err
	}
	if res.Code != 0 {
		return fmt.Errorf("relay receive tx rejected: code %v log %v", res.Code, res.Log)
	}
	t.logger.Info("relay payload submitted",
		"dest", destChainId, "message", msg.MessageId.Hex(), "hash", res.Hash.String())
	return nil
}

// signerAccount resolves the relay key's account record on the destination
// chain; the nonce must be the destination-side one.
func (t *RpcTransport) signerAccount(ctx context.Context, cli *comethttp.HTTP) (*state.Account, error) {
	addr, err := hex.DecodeString(t.signer.Address())
	if err != nil {
		return nil, err
	}
	res, err := cli.ABCIQuery(ctx, "/accounts/", addr)
	if err != nil {
		return nil, err
	}
	if res.Response.Code != 0 {
		return nil, fmt.Errorf("relay signer has no account on destination: %v", res.Response.Log)
	}
	var act state.Account
	if err := act.Unmarshal(res.Response.Value); err != nil {
		return nil, err
	}
	return &act, nil
}
