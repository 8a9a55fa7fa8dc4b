package image

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/pinledger/cmd/pinledger/cmdutil"
	"github.com/marmos91/pinledger/internal/cli/output"
	"github.com/marmos91/pinledger/pkg/config"
	"github.com/marmos91/pinledger/pkg/nft"
	"github.com/marmos91/pinledger/pkg/records"
)

var detailsContent bool

var detailsCmd = &cobra.Command{
	Use:   "details <file-name>",
	Short: "Show an image with its metadata and tokens",
	Long: `Show an image, its metadata row and every token minted from it.

With --content the pinned metadata document is fetched from the gateway.
An unreachable gateway is logged and the rest is still printed.`,
	Args: cobra.ExactArgs(1),
	RunE: runDetails,
}

func init() {
	detailsCmd.Flags().BoolVar(&detailsContent, "content", false, "Fetch the pinned metadata document")

	cmdutil.Requires(detailsCmd, func() config.Requirement { return config.NeedRecords })
}

func runDetails(cmd *cobra.Command, args []string) error {
	cfg := cmdutil.Config
	store, err := cmdutil.NewStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	details, err := nft.New(store, cmdutil.NewPinningClient(cfg)).Details(cmdutil.Context(cmd), args[0], detailsContent)
	if errors.Is(err, records.ErrImageNotFound) {
		return fmt.Errorf("image %q is not registered", args[0])
	}
	if err != nil {
		return err
	}

	p, err := cmdutil.Printer(cmd)
	if err != nil {
		return err
	}
	if err := p.Print(details); err != nil {
		return err
	}
	if p.Format() == output.FormatTable && len(details.Content) > 0 {
		p.Println()
		return output.PrintJSON(p.Writer(), details.Content)
	}
	return nil
}
