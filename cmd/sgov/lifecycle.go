package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/summerfi/sumr-gov/tx"
)

type lifecycleArguments struct {
	txSender
	ProposalId string
}

var queueArgs lifecycleArguments

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "queue a succeeded proposal into the timelock",
	Long:  ``,
	Run:   queueRun,
}

var executeArgs lifecycleArguments

var executeCmd = &cobra.Command{
	Use:   "execute",
	Short: "execute a queued proposal whose timelock has elapsed",
	Long:  ``,
	Run:   executeRun,
}

var cancelArgs lifecycleArguments

var cancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "cancel a proposal before execution",
	Long:  ``,
	Run:   cancelRun,
}

func init() {
	for _, c := range []struct {
		cmd  *cobra.Command
		args *lifecycleArguments
	}{
		{queueCmd, &queueArgs},
		{executeCmd, &executeArgs},
		{cancelCmd, &cancelArgs},
	} {
		senderFlags(c.cmd, &c.args.txSender)
		c.cmd.Flags().StringVarP(&c.args.ProposalId, "proposal", "p", "", "proposal id")
	}
}

func queueRun(cmd *cobra.Command, args []string) {
	id, err := parseProposalId(queueArgs.ProposalId)
	if err != nil {
		fmt.Printf("invalid proposal id:%v\n", err)
		return
	}
	queueArgs.send(tx.GovTxTypeQueue, &tx.QueueTx{ProposalId: id})
}

func executeRun(cmd *cobra.Command, args []string) {
	id, err := parseProposalId(executeArgs.ProposalId)
	if err != nil {
		fmt.Printf("invalid proposal id:%v\n", err)
		return
	}
	executeArgs.send(tx.GovTxTypeExecute, &tx.ExecuteTx{ProposalId: id})
}

func cancelRun(cmd *cobra.Command, args []string) {
	id, err := parseProposalId(cancelArgs.ProposalId)
	if err != nil {
		fmt.Printf("invalid proposal id:%v\n", err)
		return
	}
	cancelArgs.send(tx.GovTxTypeCancel, &tx.CancelTx{ProposalId: id})
}
