// Package pin implements the Pinata commands.
package pin

import (
	"github.com/spf13/cobra"
)

// Cmd is the parent command for pinning operations.
var Cmd = &cobra.Command{
	Use:   "pin",
	Short: "Pinata operations",
	Long: `Talk to the Pinata pinning service.

Examples:
  # Verify the configured JWT
  pinledger pin check

  # Check whether a CID is pinned under this account
  pinledger pin status bafkreibm6jg3ux5qumhcn2b3flc3tyu6dmlb4xa7u5bf44yegnrjhc4yeq

  # Pin a metadata document and record it against an image
  pinledger pin publish --image-path images/42.png --file metadata/42.json`,
}

func init() {
	Cmd.AddCommand(checkCmd)
	Cmd.AddCommand(statusCmd)
	Cmd.AddCommand(publishCmd)
}
