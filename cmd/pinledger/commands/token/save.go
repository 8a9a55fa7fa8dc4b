package token

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/pinledger/cmd/pinledger/cmdutil"
	"github.com/marmos91/pinledger/pkg/config"
	"github.com/marmos91/pinledger/pkg/nft"
)

var (
	saveReq      nft.MintRequest
	saveMintedAt string
)

var saveCmd = &cobra.Command{
	Use:   "save",
	Short: "Record a mint transaction",
	Long: `Record a mint transaction against the metadata published at --metadata-url.

The token URI is the metadata URL. Transaction hashes are stored lowercase
and must be unique.`,
	Args: cobra.NoArgs,
	RunE: runSave,
}

func init() {
	f := saveCmd.Flags()
	f.StringVar(&saveReq.MetadataURL, "metadata-url", "", "Gateway URL of the published metadata (required)")
	f.StringVar(&saveReq.TokenID, "token-id", "", "Token ID (required)")
	f.StringVar(&saveReq.TxHash, "tx-hash", "", "Mint transaction hash (required)")
	f.StringVar(&saveReq.ContractAddress, "contract", "", "Contract address (required)")
	f.StringVar(&saveReq.MinterAddress, "minter", "", "Minter address (required)")
	f.StringVar(&saveReq.Chain, "chain", "", "Chain name (required)")
	f.StringVar(&saveMintedAt, "minted-at", "", "Mint time, RFC3339 (default: now)")
	for _, name := range []string{"metadata-url", "token-id", "tx-hash", "contract", "minter", "chain"} {
		_ = saveCmd.MarkFlagRequired(name)
	}

	cmdutil.Requires(saveCmd, func() config.Requirement { return config.NeedRecords })
}

func runSave(cmd *cobra.Command, args []string) error {
	req := saveReq
	if saveMintedAt != "" {
		t, err := time.Parse(time.RFC3339, saveMintedAt)
		if err != nil {
			return fmt.Errorf("invalid --minted-at: %w", err)
		}
		req.MintedAt = t
	}

	cfg := cmdutil.Config
	store, err := cmdutil.NewStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	token, err := nft.New(store, cmdutil.NewPinningClient(cfg)).RecordMint(cmdutil.Context(cmd), req)
	if err != nil {
		return err
	}

	return cmdutil.PrintOutput(cmd, View{*token}, false, "")
}
