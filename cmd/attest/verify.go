package main

import (
	"github.com/spf13/cobra"

	"github.com/jamesainslie/attest/pkg/attest/reconcile"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [path]",
	Short: "Check the tree against its checksum records",
	Long: `Rehash every tracked file and compare it against its stored record.
Verify never writes to the tree.

Modified files, missing files, and unreadable tracked files fail the
run (exit code 2). Files without a record are reported as added but do
not fail; record them with 'attest create'. Verify errors out when no
sumfile exists anywhere under the path.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOp(reconcile.OpVerify, args)
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}
