package main

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/summerfi/sumr-gov/tx"
)

type proposeArguments struct {
	txSender
	Targets     string
	Values      string
	Calldatas   string
	Description string
}

var proposeArgs proposeArguments

var proposeCmd = &cobra.Command{
	Use:   "propose",
	Short: "submit a proposal with a batch of governance calls",
	Long:  ``,
	Run:   proposeRun,
}

func init() {
	senderFlags(proposeCmd, &proposeArgs.txSender)
	proposeCmd.Flags().StringVarP(&proposeArgs.Targets, "targets", "t", "", "comma separated target addresses")
	proposeCmd.Flags().StringVarP(&proposeArgs.Values, "values", "v", "", "comma separated call values, empty means all zero")
	proposeCmd.Flags().StringVarP(&proposeArgs.Calldatas, "calldatas", "c", "", "comma separated hex calldatas")
	proposeCmd.Flags().StringVarP(&proposeArgs.Description, "description", "m", "", "proposal description")
}

func proposeRun(cmd *cobra.Command, args []string) {
	targets := []common.Address{}
	for _, t := range strings.Split(proposeArgs.Targets, ",") {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if !common.IsHexAddress(t) {
			fmt.Printf("invalid target address:%v\n", t)
			return
		}
		targets = append(targets, common.HexToAddress(t))
	}
	calldatas := [][]byte{}
	for _, c := range strings.Split(proposeArgs.Calldatas, ",") {
		c = strings.TrimSpace(strings.TrimPrefix(c, "0x"))
		if c == "" {
			continue
		}
		dat, err := hex.DecodeString(c)
		if err != nil {
			fmt.Printf("invalid calldata:%v\n", c)
			return
		}
		calldatas = append(calldatas, dat)
	}
	values := make([]uint64, len(targets))
	if proposeArgs.Values != "" {
		values = values[:0]
		for _, v := range strings.Split(proposeArgs.Values, ",") {
			n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
			if err != nil {
				fmt.Printf("invalid value:%v\n", v)
				return
			}
			values = append(values, n)
		}
	}
	proposeArgs.send(tx.GovTxTypePropose, &tx.ProposeTx{
		Targets:     targets,
		Values:      values,
		Calldatas:   calldatas,
		Description: proposeArgs.Description,
	})
}
