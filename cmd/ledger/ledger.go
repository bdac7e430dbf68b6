// Package ledger handles inspection of the failure ledger
package ledger

import (
	"os"

	"github.com/riwaht/notion-revolut-server/cmd/root"

	"github.com/spf13/cobra"
)

var exportPath string

// Cmd represents the ledger command
var Cmd = &cobra.Command{
	Use:   "ledger",
	Short: "List failed transactions awaiting retry",
	Long: `List the contents of the failure ledger, oldest failure first. With
--export the listing is written as CSV for review in a spreadsheet.`,
	Run: ledgerFunc,
}

func init() {
	Cmd.Flags().StringVarP(&exportPath, "export", "e", "", "Write the ledger to a CSV file instead of logging it")
}

func ledgerFunc(cmd *cobra.Command, args []string) {
	container := root.BuildContainer()
	defer func() {
		if err := container.Close(); err != nil {
			root.Log.Warnf("Error closing stores: %v", err)
		}
	}()

	led := container.Ledger()

	if exportPath != "" {
		f, err := os.Create(exportPath)
		if err != nil {
			root.Log.Fatalf("Error creating export file: %v", err)
		}
		defer func() {
			if err := f.Close(); err != nil {
				root.Log.Warnf("Error closing export file: %v", err)
			}
		}()

		if err := led.ExportCSV(f); err != nil {
			root.Log.Fatalf("Error exporting ledger: %v", err)
		}
		root.Log.Infof("Ledger exported to %s", exportPath)
		return
	}

	entries, err := led.List()
	if err != nil {
		root.Log.Fatalf("Error reading ledger: %v", err)
	}
	if len(entries) == 0 {
		root.Log.Info("Failure ledger is empty")
		return
	}

	for _, entry := range entries {
		root.Log.Infof("[%s] %s | %s %s | stage=%s retries=%d | %s",
			entry.Transaction.ShortID(),
			entry.Transaction.Description,
			entry.Transaction.Amount.String(),
			entry.Transaction.Currency,
			entry.Stage,
			entry.RetryCount,
			entry.Reason)
	}
}
