// Package categorize handles one-off categorization from the command line
package categorize

import (
	"github.com/riwaht/notion-revolut-server/cmd/root"
	"github.com/riwaht/notion-revolut-server/internal/categorizer"
	"github.com/riwaht/notion-revolut-server/internal/rules"

	"github.com/spf13/cobra"
)

var isIncome bool

// Cmd represents the categorize command
var Cmd = &cobra.Command{
	Use:   "categorize <description>",
	Short: "Categorize a transaction description",
	Long: `Run a single description through the categorization rules and print the
resulting label. Useful for tuning the rules file without touching Notion.`,
	Args: cobra.ExactArgs(1),
	Run:  categorizeFunc,
}

func init() {
	Cmd.Flags().BoolVarP(&isIncome, "income", "n", false, "Categorize against the income rules (default: expenses)")
}

func categorizeFunc(cmd *cobra.Command, args []string) {
	ruleStore := rules.NewStore(root.Cfg.Rules.File, root.Log)
	ruleSet, err := ruleStore.Load()
	if err != nil {
		root.Log.Fatalf("Error loading rules: %v", err)
	}

	ruleList := ruleSet.Expenses
	group := "expenses"
	if isIncome {
		ruleList = ruleSet.Income
		group = "income"
	}

	embedder := categorizer.NewLocalEmbedder(root.Cfg.Categorization.EmbeddingDim)
	cat := categorizer.New(ruleList, embedder, root.Cfg.Categorization.SemanticThreshold, root.Log)

	category := cat.Categorize(args[0])
	root.Log.Infof("Category (%s): %s", group, category.Name)
}
