// Package token implements the tokens table commands.
package token

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/pinledger/pkg/records"
)

// Cmd is the parent command for minted tokens.
var Cmd = &cobra.Command{
	Use:   "token",
	Short: "Record and inspect minted tokens",
	Long: `Record mint transactions against published metadata and look them up.

Examples:
  # Record a mint
  pinledger token save \
    --metadata-url https://gateway.pinata.cloud/ipfs/bafk... \
    --token-id 42 --tx-hash 0xabc... --chain sepolia \
    --contract 0x5FbDB2315678afecb367f032d93F642f64180aa3 \
    --minter 0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266

  # Look a mint up by transaction hash
  pinledger token get 0xabc...`,
}

func init() {
	Cmd.AddCommand(saveCmd)
	Cmd.AddCommand(getCmd)
}

// View renders a token as key/value pairs.
type View struct {
	records.Token `yaml:",inline"`
}

func (v View) SummaryPairs() [][2]string {
	return [][2]string{
		{"ID", v.ID},
		{"Token ID", v.TokenID},
		{"Chain", v.Chain},
		{"Tx hash", v.TxHash},
		{"Contract", v.ContractAddress},
		{"Minter", v.MinterAddress},
		{"Token URI", v.TokenURI},
		{"Metadata ID", v.MetadataID},
		{"Minted at", v.MintedAt.UTC().Format(time.RFC3339)},
	}
}
