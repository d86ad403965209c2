package main

import (
	"fmt"
	"os"
)

func main() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(accountCmd)
	rootCmd.AddCommand(proposalCmd)
	rootCmd.AddCommand(paramsCmd)
	rootCmd.AddCommand(delegateCmd)
	rootCmd.AddCommand(stakeCmd)
	rootCmd.AddCommand(unstakeCmd)
	rootCmd.AddCommand(proposeCmd)
	rootCmd.AddCommand(voteCmd)
	rootCmd.AddCommand(queueCmd)
	rootCmd.AddCommand(executeCmd)
	rootCmd.AddCommand(cancelCmd)
	rootCmd.AddCommand(relayCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(signCmd)
	rootCmd.AddCommand(pubkeyCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
