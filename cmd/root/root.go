// Package root contains the root command for the application
package root

import (
	"github.com/riwaht/notion-revolut-server/internal/app"
	"github.com/riwaht/notion-revolut-server/internal/config"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// Log is the shared logger instance for commands
	Log = logrus.New()

	// Cfg is the loaded application configuration, set in PersistentPreRun
	Cfg *config.Config

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "revolut-notion",
		Short: "Sync Revolut transactions into Notion with categorization and currency conversion.",
		Long: `revolut-notion pulls bank transactions through the TrueLayer data API,
assigns categories, converts amounts to a base currency and posts the result
to Notion databases. Failed transactions are kept in a durable ledger and can
be replayed with the retry command.`,
		Run: func(cmd *cobra.Command, args []string) {
			Log.Info("Use --help to see available commands")
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.LoadEnv(Log)

			cfg, err := config.InitializeConfig()
			if err != nil {
				Log.Fatalf("Failed to initialize configuration: %v", err)
			}
			Cfg = cfg
			Log = config.ConfigureLoggingFromConfig(cfg)
		},
	}
)

// BuildContainer wires the full application from the loaded configuration.
// Callers own the returned container and must Close it.
func BuildContainer() *app.Container {
	container, err := app.NewContainer(Cfg)
	if err != nil {
		Log.Fatalf("Failed to wire application: %v", err)
	}
	return container
}
