package main

import (
	"github.com/spf13/cobra"

	"github.com/summerfi/sumr-gov/tx"
)

type delegateArguments struct {
	txSender
	Delegatee uint64
}

var delegateArgs delegateArguments

var delegateCmd = &cobra.Command{
	Use:   "delegate",
	Short: "point the account's delegation at another account, 0 clears it",
	Long:  ``,
	Run:   delegateRun,
}

func init() {
	senderFlags(delegateCmd, &delegateArgs.txSender)
	delegateCmd.Flags().Uint64VarP(&delegateArgs.Delegatee, "delegatee", "t", 0, "delegatee account index")
}

func delegateRun(cmd *cobra.Command, args []string) {
	delegateArgs.send(tx.GovTxTypeDelegate, &tx.DelegateTx{
		Delegatee: delegateArgs.Delegatee,
	})
}
