// Package metadata implements the metadata table commands.
package metadata

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/pinledger/pkg/records"
)

// Cmd is the parent command for metadata rows.
var Cmd = &cobra.Command{
	Use:   "metadata",
	Short: "Inspect metadata rows",
	Long: `Inspect the metadata table.

Examples:
  # List every metadata row
  pinledger metadata list

  # Show the metadata row of an image
  pinledger metadata get --image-id 6f1c2a7e-...`,
}

func init() {
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(getCmd)
}

// List is a list of metadata rows for table rendering.
type List []*records.MetadataRecord

// Headers implements TableRenderer.
func (l List) Headers() []string {
	return []string{"ID", "CID", "IMAGE ID", "CREATED AT"}
}

// Rows implements TableRenderer.
func (l List) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, m := range l {
		imageID := m.ImageID
		if imageID == "" {
			imageID = "-"
		}
		rows = append(rows, []string{m.ID, m.PinataCID, imageID, formatTime(m.CreatedAt)})
	}
	return rows
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}
