package metadata

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/pinledger/cmd/pinledger/cmdutil"
	"github.com/marmos91/pinledger/pkg/config"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List metadata rows",
	Long: `List every metadata row in creation order.

Examples:
  pinledger metadata list
  pinledger metadata list -o json`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	cmdutil.Requires(listCmd, func() config.Requirement { return config.NeedRecords })
}

func runList(cmd *cobra.Command, args []string) error {
	store, err := cmdutil.NewStore(cmdutil.Config)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	rows, err := store.ListMetadata(cmdutil.Context(cmd))
	if err != nil {
		return fmt.Errorf("failed to list metadata: %w", err)
	}

	return cmdutil.PrintOutput(cmd, List(rows), len(rows) == 0, "No metadata records found.")
}
