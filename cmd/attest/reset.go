package main

import (
	"github.com/spf13/cobra"

	"github.com/jamesainslie/attest/pkg/attest/reconcile"
)

var resetCmd = &cobra.Command{
	Use:   "reset [path]",
	Short: "Rewrite checksum records to match the tree",
	Long: `Rehash every file and rewrite each directory's sumfile so the records
match the tree exactly. Differences found along the way are still
reported, so the audit trail of what changed is not lost.

Reset accepts modified files as the new baseline and drops records for
missing files. Use it after an intentional change to the tree.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOp(reconcile.OpReset, args)
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
}
