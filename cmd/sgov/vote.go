package main

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/summerfi/sumr-gov/tx"
	"github.com/summerfi/sumr-gov/types"
)

type voteArguments struct {
	txSender
	ProposalId string
	Support    uint8
}

var voteArgs voteArguments

var voteCmd = &cobra.Command{
	Use:   "vote",
	Short: "cast a vote on an active proposal (0 against, 1 for, 2 abstain)",
	Long:  ``,
	Run:   voteRun,
}

func init() {
	senderFlags(voteCmd, &voteArgs.txSender)
	voteCmd.Flags().StringVarP(&voteArgs.ProposalId, "proposal", "p", "", "proposal id")
	voteCmd.Flags().Uint8VarP(&voteArgs.Support, "support", "t", uint8(types.VoteFor), "vote support")
}

func voteRun(cmd *cobra.Command, args []string) {
	id, err := parseProposalId(voteArgs.ProposalId)
	if err != nil {
		fmt.Printf("invalid proposal id:%v\n", err)
		return
	}
	voteArgs.send(tx.GovTxTypeVote, &tx.VoteTx{
		ProposalId: id,
		Support:    voteArgs.Support,
	})
}

func parseProposalId(s string) (common.Hash, error) {
	dat := common.FromHex(s)
	if len(dat) != common.HashLength {
		return common.Hash{}, fmt.Errorf("want %v hex bytes, got %v", common.HashLength, len(dat))
	}
	return common.BytesToHash(dat), nil
}
