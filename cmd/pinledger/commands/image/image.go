// Package image implements the images table commands.
package image

import (
	"github.com/spf13/cobra"
)

// Cmd is the parent command for images.
var Cmd = &cobra.Command{
	Use:   "image",
	Short: "Register and inspect images",
	Long: `Register images and show their metadata and minted tokens.

Examples:
  # Register an uploaded image
  pinledger image add --file-name 42.png --path images/42.png

  # Show an image with its metadata, tokens and pinned document
  pinledger image details 42.png --content`,
}

func init() {
	Cmd.AddCommand(addCmd)
	Cmd.AddCommand(detailsCmd)
}
