// Package retry handles replaying the failure ledger
package retry

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/riwaht/notion-revolut-server/cmd/root"

	"github.com/spf13/cobra"
)

// Cmd represents the retry command
var Cmd = &cobra.Command{
	Use:   "retry",
	Short: "Replay transactions from the failure ledger",
	Long: `Re-run every transaction recorded in the failure ledger through the full
pipeline. Transactions that succeed leave the ledger; the rest stay with an
incremented retry count.`,
	Run: retryFunc,
}

func retryFunc(cmd *cobra.Command, args []string) {
	container := root.BuildContainer()
	defer func() {
		if err := container.Close(); err != nil {
			root.Log.Warnf("Error closing stores: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := container.RetryRunner().RetryAll(ctx)
	if err != nil {
		root.Log.Errorf("Retry failed: %v", err)
		os.Exit(1)
	}

	root.Log.Infof("Retry summary: %d succeeded, %d still failing",
		result.Succeeded, result.StillFailing)
}
