package metadata

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/pinledger/cmd/pinledger/cmdutil"
	"github.com/marmos91/pinledger/internal/cli/output"
	"github.com/marmos91/pinledger/pkg/config"
)

var getImageID string

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Show the metadata row of an image",
	Args:  cobra.NoArgs,
	RunE:  runGet,
}

func init() {
	getCmd.Flags().StringVar(&getImageID, "image-id", "", "Image ID (required)")
	_ = getCmd.MarkFlagRequired("image-id")

	cmdutil.Requires(getCmd, func() config.Requirement { return config.NeedRecords })
}

func runGet(cmd *cobra.Command, args []string) error {
	store, err := cmdutil.NewStore(cmdutil.Config)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	m, err := store.GetMetadataByImageID(cmdutil.Context(cmd), getImageID)
	if err != nil {
		return err
	}

	p, err := cmdutil.Printer(cmd)
	if err != nil {
		return err
	}
	if p.Format() == output.FormatTable {
		return p.Print(List{m})
	}
	return p.Print(m)
}
