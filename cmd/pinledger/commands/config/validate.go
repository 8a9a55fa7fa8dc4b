package config

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/pinledger/cmd/pinledger/cmdutil"
	"github.com/marmos91/pinledger/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and credentials",
	Long: `Validate the configuration and report which credentials are missing.

The configuration itself is validated on load. Missing credentials are
listed as warnings since each command needs a different set.

Examples:
  # Validate default config
  pinledger config validate

  # Validate specific config file
  pinledger config validate --config ./pinledger.yaml`,
	Args: cobra.NoArgs,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg := cmdutil.Config

	displayPath := cmdutil.Flags.ConfigFile
	if displayPath == "" {
		displayPath = config.GetDefaultConfigPath()
		if !config.DefaultConfigExists() {
			displayPath += " (not found, using defaults and environment)"
		}
	}

	checks := []struct {
		what string
		req  config.Requirement
	}{
		{"reconcile --dry-run, metadata, token, image", config.NeedRecords},
		{"reconcile", config.NeedRecordsAdmin},
		{"pin, reconcile", config.NeedPinata},
	}

	var warnings []string
	for _, c := range checks {
		var missing *config.MissingCredentialError
		if err := cfg.RequireCredentials(c.req); errors.As(err, &missing) {
			warnings = append(warnings, fmt.Sprintf("%s not set (needed by %s)", missing.Key, c.what))
		}
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file: %s\n", displayPath)
	_, _ = fmt.Fprintln(out, "Validation: OK")

	if len(warnings) > 0 {
		_, _ = fmt.Fprintln(out, "\nWarnings:")
		for _, w := range warnings {
			_, _ = fmt.Fprintf(out, "  - %s\n", w)
		}
	}

	_, _ = fmt.Fprintf(out, "\nConfiguration summary:\n")
	_, _ = fmt.Fprintf(out, "  Records backend: %s\n", cfg.Records.Backend)
	_, _ = fmt.Fprintf(out, "  Pinata API:      %s\n", cfg.Pinata.APIURL)
	_, _ = fmt.Fprintf(out, "  Pacing:          %s\n", cfg.Reconcile.Pacing)
	_, _ = fmt.Fprintf(out, "  Failure policy:  %s\n", cfg.Reconcile.FailurePolicy)
	_, _ = fmt.Fprintf(out, "  Log level:       %s\n", cfg.Logging.Level)

	return nil
}
