package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/summerfi/sumr-gov/tx"
)

type relayArguments struct {
	txSender
	DestChainId uint32
	ProposalId  string
}

var relayArgs relayArguments

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "record an executed proposal as sent to a satellite chain",
	Long:  ``,
	Run:   relayRun,
}

func init() {
	senderFlags(relayCmd, &relayArgs.txSender)
	relayCmd.Flags().Uint32VarP(&relayArgs.DestChainId, "dest", "c", 0, "destination chain id")
	relayCmd.Flags().StringVarP(&relayArgs.ProposalId, "proposal", "p", "", "proposal id")
}

func relayRun(cmd *cobra.Command, args []string) {
	id, err := parseProposalId(relayArgs.ProposalId)
	if err != nil {
		fmt.Printf("invalid proposal id:%v\n", err)
		return
	}
	relayArgs.send(tx.GovTxTypeRelaySend, &tx.RelayTx{
		DestChainId: relayArgs.DestChainId,
		ProposalId:  id,
	})
}
