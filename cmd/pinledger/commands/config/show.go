package config

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/pinledger/cmd/pinledger/cmdutil"
	"github.com/marmos91/pinledger/internal/cli/output"
)

const redacted = "********"

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the effective configuration",
	Long: `Display the configuration after merging defaults, the config file, .env
and the environment. Secrets are redacted.

By default outputs YAML format. Use -o json for JSON.

Examples:
  pinledger config show
  pinledger config show -o json`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg := *cmdutil.Config
	redact(&cfg.Pinata.JWT)
	redact(&cfg.Records.Supabase.AnonKey)
	redact(&cfg.Records.Supabase.ServiceRoleKey)
	redact(&cfg.Records.Database.Postgres.Password)

	format, err := output.ParseFormat(cmdutil.Flags.Output)
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(cmd.OutOrStdout(), cfg)
	default:
		return output.PrintYAML(cmd.OutOrStdout(), cfg)
	}
}

func redact(s *string) {
	if *s != "" {
		*s = redacted
	}
}
