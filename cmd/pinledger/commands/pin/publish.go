package pin

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/pinledger/cmd/pinledger/cmdutil"
	"github.com/marmos91/pinledger/pkg/config"
	"github.com/marmos91/pinledger/pkg/nft"
)

var (
	publishImagePath string
	publishFile      string
	publishName      string
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Pin a metadata document and record it",
	Long: `Pin a JSON metadata document on Pinata and insert the matching metadata
row for the image stored at --image-path.

The image must already be registered. An unknown path pins nothing.

Examples:
  pinledger pin publish --image-path images/42.png --file 42.json
  pinledger pin publish --image-path images/42.png --file 42.json --name "Sunset #42"`,
	Args: cobra.NoArgs,
	RunE: runPublish,
}

func init() {
	publishCmd.Flags().StringVar(&publishImagePath, "image-path", "", "Storage path of the image (required)")
	publishCmd.Flags().StringVar(&publishFile, "file", "", "JSON metadata document (required)")
	publishCmd.Flags().StringVar(&publishName, "name", "", "Pin name (default: NFT Metadata-<timestamp>)")
	_ = publishCmd.MarkFlagRequired("image-path")
	_ = publishCmd.MarkFlagRequired("file")

	cmdutil.Requires(publishCmd, func() config.Requirement { return config.NeedPinata | config.NeedRecords })
}

func runPublish(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(publishFile)
	if err != nil {
		return fmt.Errorf("failed to read metadata file: %w", err)
	}
	if !json.Valid(data) {
		return fmt.Errorf("%s is not valid JSON", publishFile)
	}

	cfg := cmdutil.Config
	store, err := cmdutil.NewStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	svc := nft.New(store, cmdutil.NewPinningClient(cfg))
	published, err := svc.Publish(cmdutil.Context(cmd), publishImagePath, json.RawMessage(data), publishName)
	if err != nil {
		return err
	}

	return cmdutil.PrintOutput(cmd, published, false, "")
}
