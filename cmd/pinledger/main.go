package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/marmos91/pinledger/cmd/pinledger/commands"

	// Import prometheus metrics to register init() functions
	_ "github.com/marmos91/pinledger/pkg/metrics/prometheus"
)

// Build-time variables injected via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.Version = version
	commands.Commit = commit
	commands.Date = date

	// SIGINT/SIGTERM stop the run before the next record.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := commands.Execute(ctx); err != nil {
		stop()
		commands.Exit(err)
	}
}
