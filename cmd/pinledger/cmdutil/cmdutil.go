// Package cmdutil holds the state shared by the pinledger subcommands: the
// global flags, the loaded configuration and the client constructors.
package cmdutil

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/pinledger/internal/cli/output"
	"github.com/marmos91/pinledger/pkg/config"
	"github.com/marmos91/pinledger/pkg/pinning"
	"github.com/marmos91/pinledger/pkg/records"
	"github.com/marmos91/pinledger/pkg/records/postgrest"
	"github.com/marmos91/pinledger/pkg/records/sqlstore"
)

// GlobalFlags mirrors the root persistent flags.
type GlobalFlags struct {
	ConfigFile string
	Output     string
	NoColor    bool
	Verbose    bool
}

// Flags is synced from the root command before every subcommand runs.
var Flags = &GlobalFlags{}

// Config is loaded by the root PersistentPreRunE. It is nil for commands
// marked with SkipConfig.
var Config *config.Config

const (
	annotationSkipConfig = "pinledger/skip-config"
)

var requirements = map[*cobra.Command]func() config.Requirement{}

// SkipConfig marks cmd as runnable without loading the configuration.
func SkipConfig(cmd *cobra.Command) {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[annotationSkipConfig] = "true"
}

// ShouldSkipConfig reports whether cmd was marked with SkipConfig.
func ShouldSkipConfig(cmd *cobra.Command) bool {
	return cmd.Annotations[annotationSkipConfig] == "true"
}

// Requires registers the credentials cmd needs. fn is evaluated after flag
// parsing, so it may depend on the command's flags.
func Requires(cmd *cobra.Command, fn func() config.Requirement) {
	requirements[cmd] = fn
}

// CheckRequirements returns a *config.MissingCredentialError when cmd needs a
// credential that is not configured.
func CheckRequirements(cmd *cobra.Command, cfg *config.Config) error {
	fn, ok := requirements[cmd]
	if !ok {
		return nil
	}
	return cfg.RequireCredentials(fn())
}

// NewStore builds the configured relational store.
func NewStore(cfg *config.Config) (records.Store, error) {
	switch cfg.Records.Backend {
	case "sql":
		dbCfg := cfg.Records.Database
		store, err := sqlstore.New(&dbCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open records database: %w", err)
		}
		return store, nil
	default:
		store, err := postgrest.New(postgrest.Config{
			URL:     cfg.Records.Supabase.URL,
			Key:     cfg.SupabaseKey(),
			Timeout: cfg.Records.Supabase.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create records client: %w", err)
		}
		return store, nil
	}
}

// NewPinningClient builds the Pinata client.
func NewPinningClient(cfg *config.Config) *pinning.Client {
	return pinning.New(pinning.Config{
		APIURL:      cfg.Pinata.APIURL,
		GatewayHost: cfg.Pinata.GatewayHost,
		JWT:         cfg.Pinata.JWT,
		Timeout:     cfg.Pinata.Timeout,
	})
}

// Printer returns a printer on the command's stdout honouring -o and --no-color.
func Printer(cmd *cobra.Command) (*output.Printer, error) {
	format, err := output.ParseFormat(Flags.Output)
	if err != nil {
		return nil, err
	}
	color := !Flags.NoColor && cmd.OutOrStdout() == os.Stdout && output.ColorSupported(os.Stdout)
	return output.NewPrinter(cmd.OutOrStdout(), format, color), nil
}

// PrintOutput prints data, or emptyMsg in table format when isEmpty.
func PrintOutput(cmd *cobra.Command, data any, isEmpty bool, emptyMsg string) error {
	p, err := Printer(cmd)
	if err != nil {
		return err
	}
	if isEmpty && p.Format() == output.FormatTable {
		p.Println(emptyMsg)
		return nil
	}
	return p.Print(data)
}

// EmptyOr returns value if non-empty, otherwise fallback.
func EmptyOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// Context returns the command context, or Background when unset.
func Context(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
