// Package commands implements the pinledger CLI.
package commands

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/pinledger/cmd/pinledger/cmdutil"
	configcmd "github.com/marmos91/pinledger/cmd/pinledger/commands/config"
	imagecmd "github.com/marmos91/pinledger/cmd/pinledger/commands/image"
	metadatacmd "github.com/marmos91/pinledger/cmd/pinledger/commands/metadata"
	pincmd "github.com/marmos91/pinledger/cmd/pinledger/commands/pin"
	tokencmd "github.com/marmos91/pinledger/cmd/pinledger/commands/token"
	"github.com/marmos91/pinledger/internal/logger"
	"github.com/marmos91/pinledger/internal/telemetry"
	"github.com/marmos91/pinledger/pkg/config"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var shutdownTelemetry func(context.Context) error

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "pinledger",
	Short: "Keep NFT metadata records in sync with pinned content",
	Long: `pinledger manages the bookkeeping of NFT metadata pinned on Pinata and
recorded in Supabase.

Its main job is reconcile: every metadata row whose CID is no longer pinned
is reported and, unless --dry-run is given, deleted.

Credentials come from the environment, a .env file or the config file:
  PINATA_JWT_KEY, NUXT_PUBLIC_SUPABASE_URL, SUPABASE_SERVICE_ROLE_KEY

Use "pinledger [command] --help" for more information about a command.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: persistentPreRun,
}

// Execute runs the root command with ctx and flushes telemetry afterwards.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if shutdownTelemetry != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if serr := shutdownTelemetry(shutdownCtx); serr != nil {
			logger.Warn("Failed to flush traces", logger.Err(serr))
		}
		shutdownTelemetry = nil
	}
	return err
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cmdutil.Flags.ConfigFile, "config", "", "Config file (default: $XDG_CONFIG_HOME/pinledger/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&cmdutil.Flags.Output, "output", "o", "table", "Output format (table|json|yaml)")
	rootCmd.PersistentFlags().BoolVar(&cmdutil.Flags.NoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&cmdutil.Flags.Verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(pincmd.Cmd)
	rootCmd.AddCommand(metadatacmd.Cmd)
	rootCmd.AddCommand(tokencmd.Cmd)
	rootCmd.AddCommand(imagecmd.Cmd)
	rootCmd.AddCommand(configcmd.Cmd)
	rootCmd.AddCommand(completionCmd)

	// Hide the default completion command (we provide our own)
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// persistentPreRun loads the configuration, sets up logging and tracing and
// checks the command's credentials before any remote client exists.
func persistentPreRun(cmd *cobra.Command, args []string) error {
	if cmdutil.ShouldSkipConfig(cmd) {
		return nil
	}

	cfg, err := config.Load(cmdutil.Flags.ConfigFile)
	if err != nil {
		return err
	}
	if cmdutil.Flags.Verbose {
		cfg.Logging.Level = "DEBUG"
	}
	cmdutil.Config = cfg

	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return err
	}

	shutdown, err := telemetry.Init(cmdutil.Context(cmd), telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "pinledger",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return err
	}
	shutdownTelemetry = shutdown

	return cmdutil.CheckRequirements(cmd, cfg)
}

// PrintErr prints an error message to stderr.
func PrintErr(format string, args ...any) {
	rootCmd.PrintErrf(format+"\n", args...)
}

// Exit prints err and exits with code 1.
func Exit(err error) {
	if errors.Is(err, config.ErrMissingCredential) {
		PrintErr("Configuration error: %v", err)
	} else {
		PrintErr("Error: %v", err)
	}
	os.Exit(1)
}
