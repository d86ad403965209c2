package main

import (
	"github.com/spf13/cobra"

	"github.com/summerfi/sumr-gov/tx"
)

type stakeArguments struct {
	txSender
	Amount uint64
}

var stakeArgs stakeArguments

var stakeCmd = &cobra.Command{
	Use:   "stake",
	Short: "move balance into the staking buffer",
	Long:  ``,
	Run:   stakeRun,
}

var unstakeArgs stakeArguments

var unstakeCmd = &cobra.Command{
	Use:   "unstake",
	Short: "move staked balance back to the liquid balance",
	Long:  ``,
	Run:   unstakeRun,
}

func init() {
	senderFlags(stakeCmd, &stakeArgs.txSender)
	stakeCmd.Flags().Uint64VarP(&stakeArgs.Amount, "amount", "m", 0, "amount to stake")
	senderFlags(unstakeCmd, &unstakeArgs.txSender)
	unstakeCmd.Flags().Uint64VarP(&unstakeArgs.Amount, "amount", "m", 0, "amount to unstake")
}

func stakeRun(cmd *cobra.Command, args []string) {
	stakeArgs.send(tx.GovTxTypeStake, &tx.StakeTx{
		Amount: stakeArgs.Amount,
	})
}

func unstakeRun(cmd *cobra.Command, args []string) {
	unstakeArgs.send(tx.GovTxTypeUnstake, &tx.UnstakeTx{
		Amount: unstakeArgs.Amount,
	})
}
