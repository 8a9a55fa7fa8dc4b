package config

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/pinledger/cmd/pinledger/cmdutil"
	"github.com/marmos91/pinledger/internal/cli/prompt"
	"github.com/marmos91/pinledger/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a sample configuration file",
	Long: `Create a sample pinledger configuration file.

By default, the file is created at $XDG_CONFIG_HOME/pinledger/config.yaml.
Use --config to specify a custom path.

Examples:
  # Initialize with default location
  pinledger config init

  # Initialize with custom path
  pinledger config init --config ./pinledger.yaml

  # Overwrite an existing file
  pinledger config init --force`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
	cmdutil.SkipConfig(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath := cmdutil.Flags.ConfigFile
	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}

	force := initForce
	if _, err := os.Stat(configPath); err == nil && !force && isInteractive() {
		ok, err := prompt.ConfirmWithForce(fmt.Sprintf("Overwrite %s", configPath), false)
		if err != nil {
			return err
		}
		if !ok {
			return prompt.ErrAborted
		}
		force = true
	}

	if err := config.InitConfigToPath(configPath, force); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file created at: %s\n", configPath)
	_, _ = fmt.Fprintln(out, "\nNext steps:")
	_, _ = fmt.Fprintln(out, "  1. Put credentials in .env or the environment:")
	_, _ = fmt.Fprintln(out, "       PINATA_JWT_KEY, NUXT_PUBLIC_SUPABASE_URL, SUPABASE_SERVICE_ROLE_KEY")
	_, _ = fmt.Fprintln(out, "  2. Check them with: pinledger config validate")
	_, _ = fmt.Fprintln(out, "  3. Preview orphans with: pinledger reconcile --dry-run")
	return nil
}

func isInteractive() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
