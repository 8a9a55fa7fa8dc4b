package token

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/pinledger/cmd/pinledger/cmdutil"
	"github.com/marmos91/pinledger/pkg/config"
	"github.com/marmos91/pinledger/pkg/nft"
)

var getCmd = &cobra.Command{
	Use:   "get <tx-hash>",
	Short: "Show the token minted by a transaction",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

func init() {
	cmdutil.Requires(getCmd, func() config.Requirement { return config.NeedRecords })
}

func runGet(cmd *cobra.Command, args []string) error {
	cfg := cmdutil.Config
	store, err := cmdutil.NewStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	token, err := nft.New(store, cmdutil.NewPinningClient(cfg)).Token(cmdutil.Context(cmd), args[0])
	if err != nil {
		return err
	}

	return cmdutil.PrintOutput(cmd, View{*token}, false, "")
}
