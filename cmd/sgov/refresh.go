package main

import (
	"github.com/spf13/cobra"

	"github.com/summerfi/sumr-gov/tx"
)

type refreshArguments struct {
	txSender
	Target uint64
}

var refreshArgs refreshArguments

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "force a decay refresh of an account (decay controller only)",
	Long:  ``,
	Run:   refreshRun,
}

func init() {
	senderFlags(refreshCmd, &refreshArgs.txSender)
	refreshCmd.Flags().Uint64VarP(&refreshArgs.Target, "target", "t", 0, "target account index")
}

func refreshRun(cmd *cobra.Command, args []string) {
	refreshArgs.send(tx.GovTxTypeRefresh, &tx.RefreshTx{
		Target: refreshArgs.Target,
	})
}
