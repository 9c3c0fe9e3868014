package main

import (
	"github.com/spf13/cobra"

	"github.com/jamesainslie/attest/pkg/attest/reconcile"
)

var createCmd = &cobra.Command{
	Use:   "create [path]",
	Short: "Record checksums for untracked files",
	Long: `Walk the tree and add a checksum record for every file that does not
have one yet. Existing records are kept as-is without rehashing, and
records for files that no longer exist are dropped. Directories that
end up with no tracked files lose their sumfile.

Create never fails because a manifest already exists; it is safe to run
repeatedly as new files arrive.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOp(reconcile.OpCreate, args)
	},
}

func init() {
	rootCmd.AddCommand(createCmd)
}
