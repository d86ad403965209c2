package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/cometbft/cometbft/rpc/client/http"
	"github.com/spf13/cobra"

	"github.com/summerfi/sumr-gov/crypto"
	"github.com/summerfi/sumr-gov/tx"
)

// txSender holds the flags every transaction command shares: where to send,
// which account signs, and with what key.
type txSender struct {
	Url    string
	Index  uint64
	Nonce  uint64
	Skey   string
	NoSend bool
}

func senderFlags(cmd *cobra.Command, s *txSender) {
	urlFlag(cmd, &s.Url)
	cmd.Flags().Uint64VarP(&s.Index, "index", "i", 0, "account index")
	cmd.Flags().Uint64VarP(&s.Nonce, "nonce", "n", 0, "account nonce, 0 queries the chain")
	cmd.Flags().StringVarP(&s.Skey, "skeyPath", "s", "./config/priv_validator_key.json", "private key path")
	cmd.Flags().BoolVarP(&s.NoSend, "nosend", "", false, "not send transaction but print signature")
}

// send signs body as a transaction of type tp and broadcasts it. The nonce is
// queried from the node when the flag is left at zero.
func (s *txSender) send(tp tx.GovTxType, body any) {
	cli, err := http.New(s.Url, "/websocket")
	if err != nil {
		fmt.Printf("new client err:%v\n", err)
		return
	}
	ctx := context.Background()
	gres, err := cli.Genesis(ctx)
	if err != nil {
		fmt.Printf("get chain genesis err:%v\n", err)
		return
	}
	chainId := gres.Genesis.ChainID
	nonce := s.Nonce
	if nonce == 0 {
		act, err := queryAccount(s.Url, s.Index, "")
		if err != nil {
			return
		}
		nonce = act.Nonce
	}
	btx := tx.GovTx{
		Version: tx.GovTxVersion1,
		Type:    tp,
		Nonce:   nonce,
		Account: s.Index,
		Tx:      body,
	}
	dat, err := btx.SigData([]byte(chainId))
	if err != nil {
		fmt.Printf("tx sign data err:%v\n", err)
		return
	}
	pv := crypto.LoadFilePV(s.Skey)
	sig, err := pv.Sign(dat)
	if err != nil {
		fmt.Printf("sign tx err:%v\n", err)
		return
	}
	if s.NoSend {
		println("pubkey:", hex.EncodeToString(pv.PublicKey()))
		println("address:", pv.Address())
		println("signature:", hex.EncodeToString(sig))
		return
	}
	btx.Sig = [][]byte{sig}
	dat, err = tx.MarshalGovTx(&btx)
	if err != nil {
		fmt.Printf("marshal tx err:%v\n", err)
		return
	}
	res, err := cli.BroadcastTxSync(ctx, dat)
	if err != nil {
		fmt.Printf("broadcast tx err:%v\n", err)
		return
	}
	dat, _ = json.Marshal(res)
	fmt.Printf("%v\n", string(dat))
}
