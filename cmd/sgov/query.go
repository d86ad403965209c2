package main

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/cometbft/cometbft/rpc/client/http"
	"github.com/spf13/cobra"
)

type proposalQueryArguments struct {
	Url        string
	ProposalId string
	Index      uint64
}

var proposalQueryArgs proposalQueryArguments

var proposalCmd = &cobra.Command{
	Use:   "proposal",
	Short: "query a proposal by id or sequence index",
	Long:  ``,
	Run:   proposalQueryRun,
}

var paramsQueryUrl string

var paramsCmd = &cobra.Command{
	Use:   "params",
	Short: "query the governance decay parameters",
	Long:  ``,
	Run:   paramsQueryRun,
}

func init() {
	urlFlag(proposalCmd, &proposalQueryArgs.Url)
	proposalCmd.Flags().StringVarP(&proposalQueryArgs.ProposalId, "proposal", "p", "", "proposal id")
	proposalCmd.Flags().Uint64VarP(&proposalQueryArgs.Index, "index", "i", 0, "proposal sequence index")
	urlFlag(paramsCmd, &paramsQueryUrl)
}

func abciQuery(url string, path string, dat []byte) ([]byte, error) {
	cli, err := http.New(url, "/websocket")
	if err != nil {
		fmt.Printf("new client err:%v\n", err)
		return nil, err
	}
	res, err := cli.ABCIQuery(context.Background(), path, dat)
	if err != nil {
		fmt.Printf("request err:%v\n", err)
		return nil, err
	}
	if res.Response.Code != 0 {
		return nil, fmt.Errorf("query fail: %v", res.Response.Log)
	}
	return res.Response.Value, nil
}

func proposalQueryRun(cmd *cobra.Command, args []string) {
	var dat []byte
	if proposalQueryArgs.ProposalId != "" {
		id, err := parseProposalId(proposalQueryArgs.ProposalId)
		if err != nil {
			fmt.Printf("invalid proposal id:%v\n", err)
			return
		}
		dat = id.Bytes()
	} else {
		s := fmt.Sprintf("0%x", proposalQueryArgs.Index)
		if len(s)&1 == 1 {
			s = s[1:]
		}
		dat, _ = hex.DecodeString(s)
	}
	val, err := abciQuery(proposalQueryArgs.Url, "/proposals/", dat)
	if err != nil {
		fmt.Printf("query proposal err:%v\n", err)
		return
	}
	fmt.Println(string(val))
}

func paramsQueryRun(cmd *cobra.Command, args []string) {
	val, err := abciQuery(paramsQueryUrl, "/params/", nil)
	if err != nil {
		fmt.Printf("query params err:%v\n", err)
		return
	}
	fmt.Println(string(val))
}
