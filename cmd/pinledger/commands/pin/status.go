package pin

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/pinledger/cmd/pinledger/cmdutil"
	"github.com/marmos91/pinledger/pkg/config"
	"github.com/marmos91/pinledger/pkg/pinning"
)

var statusCmd = &cobra.Command{
	Use:   "status <cid>",
	Short: "Show whether a CID is pinned",
	Long: `Show whether a CID is pinned under the configured Pinata account.

Content pinned by another account reads as not-pinned.`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func init() {
	cmdutil.Requires(statusCmd, func() config.Requirement { return config.NeedPinata })
}

// StatusResult is the output of pin status.
type StatusResult struct {
	CID    string            `json:"cid" yaml:"cid"`
	Status pinning.PinStatus `json:"status" yaml:"status"`
	URL    string            `json:"url" yaml:"url"`
}

func (r StatusResult) SummaryPairs() [][2]string {
	return [][2]string{
		{"CID", r.CID},
		{"Status", string(r.Status)},
		{"URL", r.URL},
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	cid := args[0]
	if err := pinning.ValidateCID(cid); err != nil {
		return err
	}

	client := cmdutil.NewPinningClient(cmdutil.Config)
	status, err := client.Status(cmdutil.Context(cmd), cid)
	if err != nil {
		return err
	}

	return cmdutil.PrintOutput(cmd, StatusResult{CID: cid, Status: status, URL: client.GatewayURL(cid)}, false, "")
}
