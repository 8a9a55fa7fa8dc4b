package pin

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/pinledger/cmd/pinledger/cmdutil"
	"github.com/marmos91/pinledger/internal/cli/output"
	"github.com/marmos91/pinledger/pkg/config"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Test Pinata authentication",
	Args:  cobra.NoArgs,
	RunE:  runCheck,
}

func init() {
	cmdutil.Requires(checkCmd, func() config.Requirement { return config.NeedPinata })
}

func runCheck(cmd *cobra.Command, args []string) error {
	client := cmdutil.NewPinningClient(cmdutil.Config)

	result, err := client.TestAuthentication(cmdutil.Context(cmd))
	if err != nil {
		return fmt.Errorf("pinata authentication failed: %w", err)
	}

	p, err := cmdutil.Printer(cmd)
	if err != nil {
		return err
	}
	if p.Format() != output.FormatTable {
		return p.Print(result)
	}
	p.Success(cmdutil.EmptyOr(result.Message, "Authenticated"))
	return nil
}
