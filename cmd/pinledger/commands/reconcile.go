package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/pinledger/cmd/pinledger/cmdutil"
	"github.com/marmos91/pinledger/internal/cli/prompt"
	"github.com/marmos91/pinledger/internal/logger"
	"github.com/marmos91/pinledger/pkg/config"
	"github.com/marmos91/pinledger/pkg/metrics"
	"github.com/marmos91/pinledger/pkg/reconcile"
)

var (
	reconcileDryRun        bool
	reconcileFailurePolicy string
	reconcileRetries       int
	reconcileDelay         time.Duration
	reconcilePacing        string
	reconcileConfirm       bool
	reconcileProgress      bool
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Delete metadata rows whose content is no longer pinned",
	Long: `Check every metadata row against Pinata and delete the rows whose CID is
not pinned under the configured account.

Rows are processed one at a time in creation order. Each orphan is deleted
right after its check, so an interrupted run keeps the deletions made so far.
Content pinned by another Pinata account reads as not pinned.

Examples:
  # Report orphans without deleting anything
  pinledger reconcile --dry-run

  # Delete orphans, leaving rows whose check failed in place
  pinledger reconcile --failure-policy unknown --retries 2

  # Pace checks with a token bucket that slows down on 429s
  pinledger reconcile --pacing adaptive

  # Machine-readable report
  pinledger reconcile --dry-run -o json`,
	Args: cobra.NoArgs,
	RunE: runReconcile,
}

func init() {
	reconcileCmd.Flags().BoolVar(&reconcileDryRun, "dry-run", false, "Report orphans without deleting them")
	reconcileCmd.Flags().StringVar(&reconcileFailurePolicy, "failure-policy", "", "Meaning of a failed check: orphan or unknown (default from config)")
	reconcileCmd.Flags().IntVar(&reconcileRetries, "retries", 0, "Extra attempts for a failed check (default from config)")
	reconcileCmd.Flags().DurationVar(&reconcileDelay, "delay", 0, "Pause after each check with --pacing fixed (default from config)")
	reconcileCmd.Flags().StringVar(&reconcilePacing, "pacing", "", "Check pacing: fixed or adaptive (default from config)")
	reconcileCmd.Flags().BoolVar(&reconcileConfirm, "confirm", false, "Require typing \"delete\" before a repair run")
	reconcileCmd.Flags().BoolVar(&reconcileProgress, "progress", false, "Print one line per record to stderr")

	cmdutil.Requires(reconcileCmd, func() config.Requirement {
		if reconcileDryRun {
			return config.NeedRecords | config.NeedPinata
		}
		return config.NeedRecordsAdmin | config.NeedPinata
	})
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ctx := cmdutil.Context(cmd)
	cfg := cmdutil.Config

	if err := applyReconcileFlags(cmd, &cfg.Reconcile); err != nil {
		return err
	}

	mode := reconcile.ModeRepair
	if reconcileDryRun {
		mode = reconcile.ModeReportOnly
	}

	if mode == reconcile.ModeRepair && reconcileConfirm {
		ok, err := prompt.ConfirmDanger(fmt.Sprintf("Delete orphaned metadata rows (%s backend)", cfg.Records.Backend), "delete")
		if err != nil {
			return err
		}
		if !ok {
			return prompt.ErrAborted
		}
	}

	policy, err := reconcile.ParseFailurePolicy(cfg.Reconcile.FailurePolicy)
	if err != nil {
		return err
	}

	store, err := cmdutil.NewStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	pins := cmdutil.NewPinningClient(cfg)

	var m reconcile.Metrics
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		m = metrics.NewReconcileMetrics()
	}

	opts := &reconcile.Options{
		Mode:          mode,
		Pacer:         newPacer(cfg.Reconcile, m),
		FailurePolicy: policy,
		Retries:       cfg.Reconcile.Retries,
		Metrics:       m,
	}
	if reconcileProgress {
		errOut := cmd.ErrOrStderr()
		opts.Progress = func(p reconcile.Progress) {
			_, _ = fmt.Fprintf(errOut, "[%d/%d] %s %s %s\n", p.Position, p.Total, p.ID, p.CID, p.Outcome)
		}
	}

	report, runErr := reconcile.New(store, pins, opts).Run(ctx)

	if cfg.Metrics.Enabled && cfg.Metrics.PushGateway != "" {
		pushMetrics(cfg.Metrics, mode)
	}

	if runErr != nil && errors.Is(runErr, reconcile.ErrListFailed) {
		return runErr
	}

	p, err := cmdutil.Printer(cmd)
	if err != nil {
		return err
	}
	if err := p.Print(report); err != nil {
		return err
	}
	return runErr
}

// applyReconcileFlags overrides the config with the flags that were set.
func applyReconcileFlags(cmd *cobra.Command, rc *config.ReconcileConfig) error {
	flags := cmd.Flags()
	if flags.Changed("failure-policy") {
		rc.FailurePolicy = reconcileFailurePolicy
	}
	if flags.Changed("retries") {
		if reconcileRetries < 0 {
			return fmt.Errorf("--retries must not be negative")
		}
		rc.Retries = reconcileRetries
	}
	if flags.Changed("delay") {
		if reconcileDelay < 0 {
			return fmt.Errorf("--delay must not be negative")
		}
		rc.Delay = reconcileDelay
	}
	if flags.Changed("pacing") {
		switch reconcilePacing {
		case "fixed", "adaptive":
			rc.Pacing = reconcilePacing
		default:
			return fmt.Errorf("invalid pacing %q (valid: fixed, adaptive)", reconcilePacing)
		}
	}
	return nil
}

func newPacer(rc config.ReconcileConfig, m reconcile.Metrics) reconcile.Pacer {
	if rc.Pacing == "fixed" {
		return reconcile.NewFixedPacer(rc.Delay)
	}

	pacer := reconcile.NewAdaptivePacer(reconcile.AdaptiveConfig{
		StartRPS: rc.Adaptive.StartRPS,
		MaxRPS:   rc.Adaptive.MaxRPS,
		MinRPS:   rc.Adaptive.MinRPS,
		Step:     rc.Adaptive.Step,
		Down:     rc.Adaptive.Down,
		OKEvery:  rc.Adaptive.OKEvery,
	})
	pacer.OnRateChange(func(rps float64) {
		logger.Debug("Pacer rate changed", logger.KeyRate, rps)
		if m != nil {
			m.SetPacerRate(rps)
		}
	})
	if m != nil {
		m.SetPacerRate(pacer.Rate())
	}
	return pacer
}

// pushMetrics sends the run's metrics to the Pushgateway. A failed push is
// logged and does not change the exit code.
func pushMetrics(mc config.MetricsConfig, mode reconcile.Mode) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := metrics.Push(ctx, mc.PushGateway, mc.Job, map[string]string{"mode": string(mode)}); err != nil {
		logger.Warn("Metrics push failed", logger.KeyURL, mc.PushGateway, logger.Err(err))
		return
	}
	logger.Debug("Metrics pushed", logger.KeyURL, mc.PushGateway)
}
