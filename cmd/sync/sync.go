// Package sync handles the account sync command
package sync

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/riwaht/notion-revolut-server/cmd/root"

	"github.com/spf13/cobra"
)

// Cmd represents the sync command
var Cmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch new transactions and post them to Notion",
	Long: `Fetch transactions for all connected accounts, skip anything already
posted or older than the configured cutoff, and push the rest through
categorization, currency conversion and Notion posting. Failures land in the
retry ledger.`,
	Run: syncFunc,
}

func syncFunc(cmd *cobra.Command, args []string) {
	container := root.BuildContainer()
	defer func() {
		if err := container.Close(); err != nil {
			root.Log.Warnf("Error closing stores: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := container.SyncService().Run(ctx)
	if err != nil {
		root.Log.Errorf("Sync failed: %v", err)
		os.Exit(1)
	}

	root.Log.Infof("Sync complete: %d added, %d failed, %d skipped",
		result.Succeeded, result.Failed, result.Skipped)
	if result.Failed > 0 {
		root.Log.Warn("Some transactions failed, run 'revolut-notion retry' to replay them")
	}
}
