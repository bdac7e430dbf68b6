// Package categorizer assigns category labels to transaction descriptions
// using two methods, tried in order:
// 1. Keyword matching against the configured rules, first match wins
// 2. Semantic similarity against per-rule exemplar embeddings
// When neither produces a confident answer the reserved "Uncategorized"
// label is returned. Categorization is a total, deterministic function: it
// never fails and makes no external calls.
package categorizer

import (
	"strings"

	"github.com/riwaht/notion-revolut-server/internal/models"

	"github.com/sirupsen/logrus"
)

// Categorizer runs the strategy chain for one rule group (expenses or
// income). Build one instance per group.
type Categorizer struct {
	strategies []Strategy
	log        *logrus.Logger
}

// New creates a categorizer over the given rules. A nil embedder disables
// the semantic fallback; keyword matching still applies.
func New(ruleList []models.CategoryRule, embedder Embedder, threshold float64, logger *logrus.Logger) *Categorizer {
	if logger == nil {
		logger = logrus.New()
	}

	return &Categorizer{
		strategies: []Strategy{
			NewKeywordStrategy(ruleList, logger),
			NewSemanticStrategy(embedder, ruleList, threshold, logger),
		},
		log: logger,
	}
}

// Categorize assigns a category label to the description. Empty or
// whitespace-only descriptions map directly to Uncategorized without
// touching the semantic path.
func (c *Categorizer) Categorize(description string) models.Category {
	if strings.TrimSpace(description) == "" {
		return models.Category{Name: models.CategoryUncategorized}
	}

	for _, strategy := range c.strategies {
		if category, found := strategy.Categorize(description); found {
			return category
		}
	}

	return models.Category{Name: models.CategoryUncategorized}
}
